package drink

import (
	"github.com/draughtlab/kegmon/internal/drink/domain"
	"github.com/draughtlab/kegmon/internal/drink/repository"
	"github.com/draughtlab/kegmon/internal/drink/service"
	pkgrepository "github.com/draughtlab/kegmon/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("drink.service",
	fx.Provide(repository.Provide),
	fx.Provide(pkgrepository.ProvideStore[domain.Drink]),
	fx.Provide(service.New),
)
