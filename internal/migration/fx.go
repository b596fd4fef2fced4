package migration

import (
	"github.com/draughtlab/kegmon/internal/config"
	drinkdomain "github.com/draughtlab/kegmon/internal/drink/domain"
	eventsdomain "github.com/draughtlab/kegmon/internal/events/domain"
	kegdomain "github.com/draughtlab/kegmon/internal/keg/domain"
	"github.com/draughtlab/kegmon/internal/seed"
	sessiondomain "github.com/draughtlab/kegmon/internal/session/domain"
	sitedomain "github.com/draughtlab/kegmon/internal/site/domain"
	statsdomain "github.com/draughtlab/kegmon/internal/stats/domain"
	thermodomain "github.com/draughtlab/kegmon/internal/thermo/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, defaults *config.SiteDefaultsHolder) error {
		if cfg.DB.Type == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql installs get the schema via AutoMigrate;
			// the SQL files are written against postgres.
			if err := conn.AutoMigrate(
				&sitedomain.Site{},
				&sitedomain.Settings{},
				&kegdomain.Tap{},
				&kegdomain.Keg{},
				&sessiondomain.Session{},
				&drinkdomain.Drink{},
				&sessiondomain.Chunk{},
				&sessiondomain.UserChunk{},
				&sessiondomain.KegChunk{},
				&statsdomain.SystemStats{},
				&statsdomain.UserStats{},
				&statsdomain.KegStats{},
				&statsdomain.SessionStats{},
				&eventsdomain.SystemEvent{},
				&thermodomain.Sensor{},
				&thermodomain.TempLog{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultSite(conn, cfg.DefaultSiteName, defaults.Get())
	}),
)
