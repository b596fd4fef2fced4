package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/clock"
	"github.com/draughtlab/kegmon/internal/sitecontext"
	"github.com/draughtlab/kegmon/internal/thermo/domain"
	pkgdb "github.com/draughtlab/kegmon/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// keepLogs bounds per-sensor history; at one reading a minute this is
// roughly a day.
const keepLogs = 1500

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("thermo.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordReadingRequest) (*domain.TempLog, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return nil, domain.ErrInvalidSite
	}
	name := strings.TrimSpace(req.SensorName)
	if name == "" {
		return nil, domain.ErrInvalidSensor
	}
	// DS18B20 range; anything outside is a wiring fault, not a reading.
	if req.TempC < -55 || req.TempC > 125 {
		return nil, domain.ErrInvalidReading
	}

	when := req.Time.UTC()
	if req.Time.IsZero() {
		when = s.clock.Now()
	}

	var out *domain.TempLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sensor, err := s.repo.FindSensorByName(ctx, tx, siteID, name)
		if err != nil {
			return err
		}
		if sensor == nil {
			sensor = &domain.Sensor{
				ID:     s.genID.Generate(),
				SiteID: siteID,
				Name:   name,
			}
			if err := s.repo.InsertSensor(ctx, tx, sensor); err != nil {
				if !pkgdb.IsDuplicateKeyErr(err) {
					return err
				}
				sensor, err = s.repo.FindSensorByName(ctx, tx, siteID, name)
				if err != nil {
					return err
				}
				if sensor == nil {
					return domain.ErrSensorNotFound
				}
			}
		}

		entry := &domain.TempLog{
			ID:       s.genID.Generate(),
			SensorID: sensor.ID,
			TempC:    req.TempC,
			Time:     when,
		}
		if err := s.repo.InsertLog(ctx, tx, entry); err != nil {
			return err
		}
		if err := s.repo.PruneLogs(ctx, tx, sensor.ID, keepLogs); err != nil {
			return err
		}
		out = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) LastReading(ctx context.Context, sensorName string) (*domain.TempLog, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return nil, domain.ErrInvalidSite
	}
	sensor, err := s.repo.FindSensorByName(ctx, s.db, siteID, strings.TrimSpace(sensorName))
	if err != nil {
		return nil, err
	}
	if sensor == nil {
		return nil, domain.ErrSensorNotFound
	}
	return s.repo.FindLastLog(ctx, s.db, sensor.ID)
}
