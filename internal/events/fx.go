package events

import (
	"github.com/draughtlab/kegmon/internal/events/repository"
	"github.com/draughtlab/kegmon/internal/events/service"
	"go.uber.org/fx"
)

var Module = fx.Module("events.recorder",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
