package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	drinkdomain "github.com/draughtlab/kegmon/internal/drink/domain"
	"github.com/draughtlab/kegmon/internal/events/domain"
	kegdomain "github.com/draughtlab/kegmon/internal/keg/domain"
	"github.com/draughtlab/kegmon/internal/observability/metrics"
	"github.com/draughtlab/kegmon/internal/sitecontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Recorder {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("events.recorder"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) ProcessDrink(ctx context.Context, tx *gorm.DB, drink *drinkdomain.Drink) error {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ErrInvalidSite
	}
	if drink == nil || drink.ID == 0 {
		return domain.ErrInvalidEvent
	}

	if drink.KegID != 0 {
		if err := s.record(ctx, tx, &domain.SystemEvent{
			ID:        s.genID.Generate(),
			SiteID:    siteID,
			Kind:      domain.KindKegTapped,
			Time:      drink.Time,
			KegID:     drink.KegID,
			DedupeKey: domain.KegTappedKey(drink.KegID),
		}); err != nil {
			return err
		}
	}

	if drink.SessionID != 0 {
		if err := s.record(ctx, tx, &domain.SystemEvent{
			ID:        s.genID.Generate(),
			SiteID:    siteID,
			Kind:      domain.KindSessionStarted,
			Time:      drink.Time,
			SessionID: drink.SessionID,
			DedupeKey: domain.SessionStartedKey(drink.SessionID),
		}); err != nil {
			return err
		}

		if !drink.IsGuest() {
			if err := s.record(ctx, tx, &domain.SystemEvent{
				ID:        s.genID.Generate(),
				SiteID:    siteID,
				Kind:      domain.KindSessionJoined,
				Time:      drink.Time,
				UserID:    drink.UserID,
				SessionID: drink.SessionID,
				DedupeKey: domain.SessionJoinedKey(drink.SessionID, drink.UserID),
			}); err != nil {
				return err
			}
		}
	}

	return s.record(ctx, tx, &domain.SystemEvent{
		ID:        s.genID.Generate(),
		SiteID:    siteID,
		Kind:      domain.KindDrinkPoured,
		Time:      drink.Time,
		DrinkID:   drink.ID,
		UserID:    drink.UserID,
		KegID:     drink.KegID,
		SessionID: drink.SessionID,
		DedupeKey: domain.DrinkPouredKey(drink.ID),
	})
}

func (s *Service) ProcessKeg(ctx context.Context, tx *gorm.DB, keg *kegdomain.Keg) error {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ErrInvalidSite
	}
	if keg == nil || keg.ID == 0 {
		return domain.ErrInvalidEvent
	}

	switch keg.Status {
	case kegdomain.StatusOnline:
		return s.record(ctx, tx, &domain.SystemEvent{
			ID:        s.genID.Generate(),
			SiteID:    siteID,
			Kind:      domain.KindKegTapped,
			Time:      keg.StartTime,
			KegID:     keg.ID,
			DedupeKey: domain.KegTappedKey(keg.ID),
		})
	case kegdomain.StatusOffline:
		return s.record(ctx, tx, &domain.SystemEvent{
			ID:        s.genID.Generate(),
			SiteID:    siteID,
			Kind:      domain.KindKegEnded,
			Time:      keg.EndTime,
			KegID:     keg.ID,
			DedupeKey: domain.KegEndedKey(keg.ID),
		})
	default:
		return nil
	}
}

func (s *Service) record(ctx context.Context, tx *gorm.DB, event *domain.SystemEvent) error {
	created, err := s.repo.Insert(ctx, tx, event)
	if err != nil {
		return err
	}
	if created && s.metrics != nil {
		s.metrics.EventsRecorded.WithLabelValues(string(event.Kind)).Inc()
	}
	return nil
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]*domain.SystemEvent, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return nil, domain.ErrInvalidSite
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.FindRecent(ctx, s.db, siteID, limit)
}
