package service

import (
	"context"
	"time"

	"github.com/draughtlab/kegmon/internal/config"
	"github.com/draughtlab/kegmon/internal/sitecontext"
	"github.com/draughtlab/kegmon/internal/site/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     domain.Repository
	Defaults *config.SiteDefaultsHolder
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	defaults *config.SiteDefaultsHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("site.service"),
		repo:     p.Repo,
		defaults: p.Defaults,
	}
}

func (s *Service) Get(ctx context.Context) (domain.Site, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Site{}, domain.ErrInvalidSite
	}

	site, err := s.repo.FindByID(ctx, s.db, siteID)
	if err != nil {
		return domain.Site{}, err
	}
	if site == nil {
		return domain.Site{}, domain.ErrSiteNotFound
	}
	return *site, nil
}

// GetSettings returns the site's settings row, falling back to the config
// defaults for any field the row leaves unset.
func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Settings{}, domain.ErrInvalidSite
	}

	defaults := s.defaults.Get()
	settings, err := s.repo.FindSettings(ctx, s.db, siteID)
	if err != nil {
		return domain.Settings{}, err
	}
	if settings == nil {
		return domain.Settings{
			SiteID:                  siteID,
			SessionTimeoutMinutes:   defaults.SessionTimeoutMinutes,
			Timezone:                defaults.Timezone,
			VolumeDisplayUnits:      defaults.VolumeDisplayUnits,
			TemperatureDisplayUnits: defaults.TemperatureDisplayUnits,
			Privacy:                 defaults.Privacy,
			GuestName:               defaults.GuestName,
		}, nil
	}

	merged := *settings
	if merged.SessionTimeoutMinutes == 0 {
		merged.SessionTimeoutMinutes = defaults.SessionTimeoutMinutes
	}
	if merged.Timezone == "" {
		merged.Timezone = defaults.Timezone
	}
	if merged.GuestName == "" {
		merged.GuestName = defaults.GuestName
	}
	return merged, nil
}

func (s *Service) SessionTimeout(ctx context.Context) (time.Duration, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.SessionTimeout(), nil
}

func (s *Service) Location(ctx context.Context) (*time.Location, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return time.LoadLocation(settings.Timezone)
}
