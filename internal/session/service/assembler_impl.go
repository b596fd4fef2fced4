package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	drinkdomain "github.com/draughtlab/kegmon/internal/drink/domain"
	"github.com/draughtlab/kegmon/internal/observability/metrics"
	"github.com/draughtlab/kegmon/internal/session/domain"
	sitedomain "github.com/draughtlab/kegmon/internal/site/domain"
	"github.com/draughtlab/kegmon/internal/sitecontext"
	statsdomain "github.com/draughtlab/kegmon/internal/stats/domain"
	pkgdb "github.com/draughtlab/kegmon/pkg/db"
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
	Drinks  drinkdomain.Repository
	Sites   sitedomain.Service
	Stats   statsdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	drinks  drinkdomain.Repository
	sites   sitedomain.Service
	stats   statsdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) domain.Assembler {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("session.assembler"),
		genID:   p.GenID,
		repo:    p.Repo,
		drinks:  p.Drinks,
		sites:   p.Sites,
		stats:   p.Stats,
		metrics: p.Metrics,
	}
}

func (s *Service) Assign(ctx context.Context, tx *gorm.DB, drink *drinkdomain.Drink) (*domain.Session, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return nil, domain.ErrInvalidSite
	}

	// Already assigned: return as-is.
	if drink.SessionID != 0 {
		session, err := s.repo.FindByID(ctx, tx, siteID, drink.SessionID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, domain.ErrSessionNotFound
		}
		return session, nil
	}

	// The timeout is read from site settings at call time, never cached on
	// the session; changing it only affects future assembly decisions.
	timeout, err := s.sites.SessionTimeout(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.FindLatestByEndTime(ctx, tx, siteID)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.IsActive(drink.Time) {
		// The predecessor lapsed for good: no future pour can reach it,
		// so its stats freeze now.
		if session != nil {
			if err := s.stats.MarkSessionCompleted(ctx, tx, session.ID); err != nil {
				return nil, err
			}
		}
		session = &domain.Session{
			ID:     s.genID.Generate(),
			SiteID: siteID,
			Window: domain.Window{
				StartTime: drink.Time,
				EndTime:   drink.Time,
			},
		}
		if err := s.repo.Insert(ctx, tx, session); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.SessionsStarted.WithLabelValues(siteID.String()).Inc()
		}
	}

	if err := s.attach(ctx, tx, session, drink, timeout); err != nil {
		return nil, err
	}

	drink.SessionID = session.ID
	if err := tx.WithContext(ctx).
		Model(&drinkdomain.Drink{}).
		Where("id = ?", drink.ID).
		Update("session_id", session.ID).Error; err != nil {
		return nil, err
	}

	return session, nil
}

// attach extends the session window and upserts the three chunk kinds.
func (s *Service) attach(ctx context.Context, tx *gorm.DB, session *domain.Session, drink *drinkdomain.Drink, timeout time.Duration) error {
	session.Absorb(drink.Time, drink.VolumeML, timeout)
	if err := s.repo.Save(ctx, tx, session); err != nil {
		return err
	}

	if err := s.upsertChunk(ctx, tx, session, drink, timeout); err != nil {
		return err
	}
	if err := s.upsertUserChunk(ctx, tx, session, drink, timeout); err != nil {
		return err
	}
	return s.upsertKegChunk(ctx, tx, session, drink, timeout)
}

func (s *Service) upsertChunk(ctx context.Context, tx *gorm.DB, session *domain.Session, drink *drinkdomain.Drink, timeout time.Duration) error {
	chunk, err := s.repo.FindChunk(ctx, tx, session.ID, drink.UserID, drink.KegID)
	if err != nil {
		return err
	}
	if chunk == nil {
		chunk = &domain.Chunk{
			ID:        s.genID.Generate(),
			SessionID: session.ID,
			UserID:    drink.UserID,
			KegID:     drink.KegID,
			Window:    newChunkWindow(drink.Time, timeout),
		}
		if err := s.repo.InsertChunk(ctx, tx, chunk); err != nil {
			if !pkgdb.IsDuplicateKeyErr(err) {
				return err
			}
			// Lost the insert race: fetch the winner and accumulate.
			chunk, err = s.repo.FindChunk(ctx, tx, session.ID, drink.UserID, drink.KegID)
			if err != nil {
				return err
			}
			if chunk == nil {
				return domain.ErrInvalidSession
			}
		}
	}
	chunk.Absorb(drink.Time, drink.VolumeML, timeout)
	return s.repo.SaveChunk(ctx, tx, chunk)
}

func (s *Service) upsertUserChunk(ctx context.Context, tx *gorm.DB, session *domain.Session, drink *drinkdomain.Drink, timeout time.Duration) error {
	chunk, err := s.repo.FindUserChunk(ctx, tx, session.ID, drink.UserID)
	if err != nil {
		return err
	}
	if chunk == nil {
		chunk = &domain.UserChunk{
			ID:        s.genID.Generate(),
			SiteID:    session.SiteID,
			SessionID: session.ID,
			UserID:    drink.UserID,
			Window:    newChunkWindow(drink.Time, timeout),
		}
		if err := s.repo.InsertUserChunk(ctx, tx, chunk); err != nil {
			if !pkgdb.IsDuplicateKeyErr(err) {
				return err
			}
			chunk, err = s.repo.FindUserChunk(ctx, tx, session.ID, drink.UserID)
			if err != nil {
				return err
			}
			if chunk == nil {
				return domain.ErrInvalidSession
			}
		}
	}
	chunk.Absorb(drink.Time, drink.VolumeML, timeout)
	return s.repo.SaveUserChunk(ctx, tx, chunk)
}

func (s *Service) upsertKegChunk(ctx context.Context, tx *gorm.DB, session *domain.Session, drink *drinkdomain.Drink, timeout time.Duration) error {
	chunk, err := s.repo.FindKegChunk(ctx, tx, session.ID, drink.KegID)
	if err != nil {
		return err
	}
	if chunk == nil {
		chunk = &domain.KegChunk{
			ID:        s.genID.Generate(),
			SiteID:    session.SiteID,
			SessionID: session.ID,
			KegID:     drink.KegID,
			Window:    newChunkWindow(drink.Time, timeout),
		}
		if err := s.repo.InsertKegChunk(ctx, tx, chunk); err != nil {
			if !pkgdb.IsDuplicateKeyErr(err) {
				return err
			}
			chunk, err = s.repo.FindKegChunk(ctx, tx, session.ID, drink.KegID)
			if err != nil {
				return err
			}
			if chunk == nil {
				return domain.ErrInvalidSession
			}
		}
	}
	chunk.Absorb(drink.Time, drink.VolumeML, timeout)
	return s.repo.SaveKegChunk(ctx, tx, chunk)
}

// newChunkWindow bootstraps a fresh chunk at zero volume; the caller's
// Absorb adds the drink.
func newChunkWindow(t time.Time, timeout time.Duration) domain.Window {
	return domain.Window{
		StartTime: t,
		EndTime:   t.Add(timeout),
	}
}

func (s *Service) Rebuild(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) error {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ErrInvalidSite
	}

	session, err := s.repo.FindByID(ctx, tx, siteID, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return domain.ErrSessionNotFound
	}

	if err := s.repo.DeleteChunks(ctx, tx, sessionID); err != nil {
		return err
	}

	drinks, err := s.drinks.FindValidBySession(ctx, tx, sessionID)
	if err != nil {
		return err
	}
	if len(drinks) == 0 {
		// Kept as an empty placeholder: events may still reference the
		// session, so deletion would orphan them. The window collapses so
		// no later pour can land inside the stale span.
		session.Window = domain.Window{
			StartTime: session.StartTime,
			EndTime:   session.StartTime,
		}
		s.log.Warn("rebuilt session has no valid drinks, keeping placeholder",
			zap.String("session_id", sessionID.String()))
		return s.repo.Save(ctx, tx, session)
	}

	timeout, err := s.sites.SessionTimeout(ctx)
	if err != nil {
		return err
	}

	session.Window = domain.Window{
		StartTime: drinks[0].Time,
		EndTime:   drinks[0].Time,
	}
	for _, d := range drinks {
		session.Absorb(d.Time, d.VolumeML, timeout)
		if err := s.upsertChunk(ctx, tx, session, d, timeout); err != nil {
			return err
		}
		if err := s.upsertUserChunk(ctx, tx, session, d, timeout); err != nil {
			return err
		}
		if err := s.upsertKegChunk(ctx, tx, session, d, timeout); err != nil {
			return err
		}
	}
	return s.repo.Save(ctx, tx, session)
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Session, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Session{}, domain.ErrInvalidSite
	}

	sessionID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || sessionID == 0 {
		return domain.Session{}, domain.ErrInvalidSession
	}

	session, err := s.repo.FindByID(ctx, s.db, siteID, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if session == nil {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return *session, nil
}
