package site

import (
	"github.com/draughtlab/kegmon/internal/site/repository"
	"github.com/draughtlab/kegmon/internal/site/service"
	"go.uber.org/fx"
)

var Module = fx.Module("site.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
