package stats

import (
	"github.com/draughtlab/kegmon/internal/stats/repository"
	"github.com/draughtlab/kegmon/internal/stats/service"
	"go.uber.org/fx"
)

var Module = fx.Module("stats.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
