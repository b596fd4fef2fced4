package thermo

import (
	"github.com/draughtlab/kegmon/internal/thermo/repository"
	"github.com/draughtlab/kegmon/internal/thermo/service"
	"go.uber.org/fx"
)

var Module = fx.Module("thermo.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
