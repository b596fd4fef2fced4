package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/clock"
	eventsdomain "github.com/draughtlab/kegmon/internal/events/domain"
	"github.com/draughtlab/kegmon/internal/keg/domain"
	"github.com/draughtlab/kegmon/internal/observability/metrics"
	"github.com/draughtlab/kegmon/internal/sitecontext"
	statsdomain "github.com/draughtlab/kegmon/internal/stats/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Stats   statsdomain.Service
	Events  eventsdomain.Recorder
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	stats   statsdomain.Service
	events  eventsdomain.Recorder
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("keg.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		stats:   p.Stats,
		events:  p.Events,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateKegRequest) (domain.Keg, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Keg{}, domain.ErrInvalidSite
	}
	if req.SizeML <= 0 {
		return domain.Keg{}, domain.ErrInvalidSize
	}
	if req.SpilledML < 0 {
		return domain.Keg{}, domain.ErrInvalidKeg
	}

	now := s.clock.Now()
	keg := domain.Keg{
		ID:          s.genID.Generate(),
		SiteID:      siteID,
		SizeName:    strings.TrimSpace(req.SizeName),
		SizeML:      req.SizeML,
		StartTime:   now,
		EndTime:     now,
		Status:      domain.StatusComingSoon,
		SpilledML:   req.SpilledML,
		OrigCost:    req.OrigCost,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.repo.Insert(ctx, s.db, &keg); err != nil {
		return domain.Keg{}, err
	}
	return keg, nil
}

func (s *Service) CreateTap(ctx context.Context, req domain.CreateTapRequest) (domain.Tap, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Tap{}, domain.ErrInvalidSite
	}
	name := strings.TrimSpace(req.Name)
	meterName := strings.TrimSpace(req.MeterName)
	if name == "" || meterName == "" {
		return domain.Tap{}, domain.ErrInvalidTap
	}
	if req.MLPerTick < 0 {
		return domain.Tap{}, domain.ErrInvalidTap
	}
	if req.MLPerTick == 0 {
		req.MLPerTick = domain.DefaultMLPerTick
	}
	if req.MaxTickDelta == 0 {
		req.MaxTickDelta = 100
	}

	tap := domain.Tap{
		ID:           s.genID.Generate(),
		SiteID:       siteID,
		Name:         name,
		MeterName:    meterName,
		MLPerTick:    req.MLPerTick,
		MaxTickDelta: req.MaxTickDelta,
		Description:  strings.TrimSpace(req.Description),
	}
	if err := s.repo.InsertTap(ctx, s.db, &tap); err != nil {
		return domain.Tap{}, err
	}
	return tap, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Keg, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Keg{}, domain.ErrInvalidSite
	}
	kegID, err := parseID(id)
	if err != nil {
		return domain.Keg{}, domain.ErrInvalidKeg
	}
	keg, err := s.repo.FindByID(ctx, s.db, siteID, kegID)
	if err != nil {
		return domain.Keg{}, err
	}
	if keg == nil {
		return domain.Keg{}, domain.ErrKegNotFound
	}
	return *keg, nil
}

func (s *Service) AttachToTap(ctx context.Context, req domain.TapKegRequest) (domain.Keg, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Keg{}, domain.ErrInvalidSite
	}
	kegID, err := parseID(req.KegID)
	if err != nil {
		return domain.Keg{}, domain.ErrInvalidKeg
	}
	tapID, err := parseID(req.TapID)
	if err != nil {
		return domain.Keg{}, domain.ErrInvalidTap
	}

	var out domain.Keg
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tap, err := s.repo.FindTapByID(ctx, tx, siteID, tapID)
		if err != nil {
			return err
		}
		if tap == nil {
			return domain.ErrTapNotFound
		}
		if tap.CurrentKegID != 0 && tap.CurrentKegID != kegID {
			return domain.ErrTapOccupied
		}

		keg, err := s.repo.FindByID(ctx, tx, siteID, kegID)
		if err != nil {
			return err
		}
		if keg == nil {
			return domain.ErrKegNotFound
		}
		if !keg.CanTransition(domain.StatusOnline) {
			return domain.ErrInvalidTransition
		}

		now := s.clock.Now()
		keg.Status = domain.StatusOnline
		keg.StartTime = now
		keg.EndTime = now
		if err := s.repo.Save(ctx, tx, keg); err != nil {
			return err
		}

		tap.CurrentKegID = keg.ID
		if err := s.repo.SaveTap(ctx, tx, tap); err != nil {
			return err
		}

		if err := s.events.ProcessKeg(ctx, tx, keg); err != nil {
			return err
		}
		out = *keg
		return nil
	})
	if err != nil {
		return domain.Keg{}, err
	}
	s.log.Info("keg tapped",
		zap.String("keg_id", out.ID.String()),
		zap.String("tap_id", req.TapID))
	return out, nil
}

func (s *Service) End(ctx context.Context, id string) (domain.Keg, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Keg{}, domain.ErrInvalidSite
	}
	kegID, err := parseID(id)
	if err != nil {
		return domain.Keg{}, domain.ErrInvalidKeg
	}

	var out domain.Keg
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keg, err := s.repo.FindByID(ctx, tx, siteID, kegID)
		if err != nil {
			return err
		}
		if keg == nil {
			return domain.ErrKegNotFound
		}
		if !keg.CanTransition(domain.StatusOffline) {
			return domain.ErrInvalidTransition
		}

		keg.Status = domain.StatusOffline
		keg.EndTime = s.clock.Now()

		// Widen the lifetime to bound every valid drink so no pour falls
		// outside [start_time, end_time].
		bounds, err := s.repo.ValidDrinkBounds(ctx, tx, keg.ID)
		if err != nil {
			return err
		}
		if !bounds.Empty {
			if keg.StartTime.After(bounds.First) {
				keg.StartTime = bounds.First
			}
			if keg.EndTime.Before(bounds.Last) {
				keg.EndTime = bounds.Last
			}
		}
		if err := s.repo.Save(ctx, tx, keg); err != nil {
			return err
		}

		tap, err := s.repo.FindTapByCurrentKeg(ctx, tx, keg.ID)
		if err != nil {
			return err
		}
		if tap != nil {
			tap.CurrentKegID = 0
			if err := s.repo.SaveTap(ctx, tx, tap); err != nil {
				return err
			}
		}

		if err := s.stats.MarkKegCompleted(ctx, tx, keg.ID); err != nil {
			return err
		}
		if err := s.events.ProcessKeg(ctx, tx, keg); err != nil {
			return err
		}
		out = *keg
		return nil
	})
	if err != nil {
		return domain.Keg{}, err
	}

	if s.metrics != nil {
		s.metrics.KegsEnded.WithLabelValues(siteID.String()).Inc()
	}
	s.log.Info("keg ended", zap.String("keg_id", out.ID.String()))
	return out, nil
}

func (s *Service) VolumeState(ctx context.Context, id string) (domain.Volume, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Volume{}, domain.ErrInvalidSite
	}
	kegID, err := parseID(id)
	if err != nil {
		return domain.Volume{}, domain.ErrInvalidKeg
	}
	keg, err := s.repo.FindByID(ctx, s.db, siteID, kegID)
	if err != nil {
		return domain.Volume{}, err
	}
	if keg == nil {
		return domain.Volume{}, domain.ErrKegNotFound
	}
	served, err := s.repo.ServedVolume(ctx, s.db, keg.ID)
	if err != nil {
		return domain.Volume{}, err
	}
	return domain.Volume{
		FullML:      keg.FullVolume(),
		ServedML:    served,
		SpilledML:   keg.SpilledML,
		RemainingML: keg.RemainingVolume(served),
		PercentFull: keg.PercentFull(served),
	}, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, domain.ErrInvalidKeg
	}
	return id, nil
}
