package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/clock"
	"github.com/draughtlab/kegmon/internal/drink/domain"
	eventsdomain "github.com/draughtlab/kegmon/internal/events/domain"
	kegdomain "github.com/draughtlab/kegmon/internal/keg/domain"
	"github.com/draughtlab/kegmon/internal/observability/metrics"
	sessiondomain "github.com/draughtlab/kegmon/internal/session/domain"
	"github.com/draughtlab/kegmon/internal/sitecontext"
	statsdomain "github.com/draughtlab/kegmon/internal/stats/domain"
	"github.com/draughtlab/kegmon/pkg/db/option"
	"github.com/draughtlab/kegmon/pkg/db/pagination"
	"github.com/draughtlab/kegmon/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Store    repository.Repository[domain.Drink]
	Kegs     kegdomain.Repository
	Sessions sessiondomain.Assembler
	Stats    statsdomain.Service
	Events   eventsdomain.Recorder
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	store    repository.Repository[domain.Drink]
	kegs     kegdomain.Repository
	sessions sessiondomain.Assembler
	stats    statsdomain.Service
	events   eventsdomain.Recorder
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("drink.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		store:    p.Store,
		kegs:     p.Kegs,
		sessions: p.Sessions,
		stats:    p.Stats,
		events:   p.Events,
		metrics:  p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordPourRequest) (*domain.Drink, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return nil, domain.ErrInvalidSite
	}

	kegID, err := snowflake.ParseString(strings.TrimSpace(req.KegID))
	if err != nil || kegID == 0 {
		return nil, domain.ErrInvalidKeg
	}
	var userID snowflake.ID
	if raw := strings.TrimSpace(req.UserID); raw != "" {
		userID, err = snowflake.ParseString(raw)
		if err != nil || userID == 0 {
			return nil, domain.ErrInvalidUser
		}
	}
	if req.Ticks <= 0 {
		return nil, domain.ErrInvalidTicks
	}
	if req.VolumeML < 0 {
		return nil, domain.ErrInvalidVolume
	}

	now := s.clock.Now()
	pourTime := req.Time.UTC()
	if req.Time.IsZero() {
		pourTime = now
	}
	if pourTime.After(now.Add(time.Minute)) {
		return nil, domain.ErrInvalidTime
	}

	var out *domain.Drink
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keg, err := s.kegs.FindByID(ctx, tx, siteID, kegID)
		if err != nil {
			return err
		}
		if keg == nil {
			return domain.ErrInvalidKeg
		}
		if !keg.IsActive() {
			return domain.ErrKegNotOnline
		}

		volume := req.VolumeML
		if volume == 0 {
			volume = float64(req.Ticks) * s.mlPerTick(ctx, tx, keg.ID)
		}

		drink := &domain.Drink{
			ID:         s.genID.Generate(),
			SiteID:     siteID,
			Ticks:      req.Ticks,
			VolumeML:   volume,
			Time:       pourTime,
			DurationMS: req.DurationMS,
			UserID:     userID,
			KegID:      keg.ID,
			Status:     domain.StatusValid,
			Shout:      strings.TrimSpace(req.Shout),
		}
		if err := s.repo.Insert(ctx, tx, drink); err != nil {
			return err
		}

		if _, err := s.sessions.Assign(ctx, tx, drink); err != nil {
			return err
		}
		if err := s.stats.ApplyDrink(ctx, tx, drink, false); err != nil {
			return err
		}
		if err := s.events.ProcessDrink(ctx, tx, drink); err != nil {
			return err
		}
		out = drink
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		site := siteID.String()
		s.metrics.PoursTotal.WithLabelValues(site).Inc()
		s.metrics.PourVolumeML.WithLabelValues(site).Add(out.VolumeML)
	}
	s.log.Info("pour recorded",
		zap.String("drink_id", out.ID.String()),
		zap.String("keg_id", out.KegID.String()),
		zap.Float64("volume_ml", out.VolumeML))
	return out, nil
}

// mlPerTick looks up the calibration of the tap the keg is attached to,
// falling back to the stock meter constant when the keg is untapped.
func (s *Service) mlPerTick(ctx context.Context, tx *gorm.DB, kegID snowflake.ID) float64 {
	tap, err := s.kegs.FindTapByCurrentKeg(ctx, tx, kegID)
	if err != nil || tap == nil || tap.MLPerTick <= 0 {
		return kegdomain.DefaultMLPerTick
	}
	return tap.MLPerTick
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Drink, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Drink{}, domain.ErrInvalidSite
	}
	drinkID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || drinkID == 0 {
		return domain.Drink{}, domain.ErrInvalidID
	}
	drink, err := s.repo.FindByID(ctx, s.db, siteID, drinkID)
	if err != nil {
		return domain.Drink{}, err
	}
	if drink == nil {
		return domain.Drink{}, domain.ErrDrinkNotFound
	}
	return *drink, nil
}

func (s *Service) List(ctx context.Context, req domain.ListDrinksRequest) (domain.ListDrinksResponse, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ListDrinksResponse{}, domain.ErrInvalidSite
	}

	query := domain.Drink{SiteID: siteID}
	if raw := strings.TrimSpace(req.KegID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListDrinksResponse{}, domain.ErrInvalidKeg
		}
		query.KegID = id
	}
	if raw := strings.TrimSpace(req.UserID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListDrinksResponse{}, domain.ErrInvalidUser
		}
		query.UserID = id
	}
	if raw := strings.TrimSpace(req.SessionID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListDrinksResponse{}, domain.ErrInvalidID
		}
		query.SessionID = id
	}

	size := req.PageSize
	if size <= 0 || size > 250 {
		size = 50
	}
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: int(size)}

	rows, err := s.store.Find(ctx, &query,
		option.ApplyPagination(page),
		option.WithOrder("created_at", "desc"),
	)
	if err != nil {
		return domain.ListDrinksResponse{}, err
	}

	info := pagination.BuildCursorPageInfo(rows, size, func(d *domain.Drink) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        d.ID.String(),
			CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		return token
	})

	if len(rows) > int(size) {
		rows = rows[:size]
	}
	drinks := make([]domain.Drink, 0, len(rows))
	for _, d := range rows {
		drinks = append(drinks, *d)
	}
	return domain.ListDrinksResponse{PageInfo: *info, Drinks: drinks}, nil
}

func (s *Service) SetStatus(ctx context.Context, id string, status domain.Status) (domain.Drink, error) {
	switch status {
	case domain.StatusValid, domain.StatusInvalid, domain.StatusDeleted:
	default:
		return domain.Drink{}, domain.ErrInvalidStatus
	}
	return s.correct(ctx, id, func(drink *domain.Drink) {
		drink.Status = status
	})
}

func (s *Service) AdjustVolume(ctx context.Context, id string, volumeML float64) (domain.Drink, error) {
	if volumeML < 0 {
		return domain.Drink{}, domain.ErrInvalidVolume
	}
	return s.correct(ctx, id, func(drink *domain.Drink) {
		drink.VolumeML = volumeML
	})
}

// correct applies a mutation to a drink and repairs everything derived
// from it: the session is rebuilt and each touched stats scope is
// recomputed by replay, all in one transaction.
func (s *Service) correct(ctx context.Context, id string, mutate func(*domain.Drink)) (domain.Drink, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Drink{}, domain.ErrInvalidSite
	}
	drinkID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || drinkID == 0 {
		return domain.Drink{}, domain.ErrInvalidID
	}

	var out domain.Drink
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		drink, err := s.repo.FindByID(ctx, tx, siteID, drinkID)
		if err != nil {
			return err
		}
		if drink == nil {
			return domain.ErrDrinkNotFound
		}

		mutate(drink)
		if err := s.repo.Save(ctx, tx, drink); err != nil {
			return err
		}

		if drink.SessionID != 0 {
			if err := s.sessions.Rebuild(ctx, tx, drink.SessionID); err != nil {
				return err
			}
			if err := s.stats.RecomputeSession(ctx, tx, drink.SessionID); err != nil {
				return err
			}
		}
		if drink.KegID != 0 {
			if err := s.stats.RecomputeKeg(ctx, tx, drink.KegID); err != nil {
				return err
			}
		}
		if drink.UserID != 0 {
			if err := s.stats.RecomputeUser(ctx, tx, drink.UserID); err != nil {
				return err
			}
		}
		if err := s.stats.RecomputeSystem(ctx, tx); err != nil {
			return err
		}
		out = *drink
		return nil
	})
	if err != nil {
		return domain.Drink{}, err
	}

	s.log.Info("drink corrected",
		zap.String("drink_id", out.ID.String()),
		zap.String("status", string(out.Status)),
		zap.Float64("volume_ml", out.VolumeML))
	return out, nil
}
