package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/clock"
	"github.com/draughtlab/kegmon/internal/config"
	"github.com/draughtlab/kegmon/internal/drink"
	"github.com/draughtlab/kegmon/internal/events"
	"github.com/draughtlab/kegmon/internal/keg"
	"github.com/draughtlab/kegmon/internal/logger"
	"github.com/draughtlab/kegmon/internal/migration"
	"github.com/draughtlab/kegmon/internal/observability"
	"github.com/draughtlab/kegmon/internal/session"
	"github.com/draughtlab/kegmon/internal/site"
	"github.com/draughtlab/kegmon/internal/stats"
	"github.com/draughtlab/kegmon/internal/thermo"
	"github.com/draughtlab/kegmon/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Functional domains
		site.Module,
		keg.Module,
		session.Module,
		drink.Module,
		stats.Module,
		events.Module,
		thermo.Module,

		migration.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
