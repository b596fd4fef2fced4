package session

import (
	"github.com/draughtlab/kegmon/internal/session/repository"
	"github.com/draughtlab/kegmon/internal/session/service"
	"go.uber.org/fx"
)

var Module = fx.Module("session.assembler",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
