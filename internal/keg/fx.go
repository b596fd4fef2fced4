package keg

import (
	"github.com/draughtlab/kegmon/internal/keg/repository"
	"github.com/draughtlab/kegmon/internal/keg/service"
	"go.uber.org/fx"
)

var Module = fx.Module("keg.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
