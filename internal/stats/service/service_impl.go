package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	drinkdomain "github.com/draughtlab/kegmon/internal/drink/domain"
	sitedomain "github.com/draughtlab/kegmon/internal/site/domain"
	"github.com/draughtlab/kegmon/internal/sitecontext"
	"github.com/draughtlab/kegmon/internal/stats/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	Drinks drinkdomain.Repository
	Sites  sitedomain.Service
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	drinks drinkdomain.Repository
	sites  sitedomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("stats.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		drinks: p.Drinks,
		sites:  p.Sites,
	}
}

func (s *Service) ApplyDrink(ctx context.Context, tx *gorm.DB, drink *drinkdomain.Drink, force bool) error {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ErrInvalidSite
	}
	if !drink.Counted() {
		return nil
	}

	loc, err := s.sites.Location(ctx)
	if err != nil {
		return err
	}

	if err := s.applySystem(ctx, tx, siteID, drink, loc); err != nil {
		return err
	}
	// Guest pours fold into the other scopes under the guest key; they
	// never get a user stats row of their own.
	if drink.UserID != 0 {
		if err := s.applyUser(ctx, tx, siteID, drink, loc); err != nil {
			return err
		}
	}
	if drink.KegID != 0 {
		if err := s.applyKeg(ctx, tx, siteID, drink, loc, force); err != nil {
			return err
		}
	}
	if drink.SessionID != 0 {
		if err := s.applySession(ctx, tx, siteID, drink, loc, force); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) applySystem(ctx context.Context, tx *gorm.DB, siteID snowflake.ID, drink *drinkdomain.Drink, loc *time.Location) error {
	row, err := s.repo.FindSystem(ctx, tx, siteID)
	if err != nil {
		return err
	}
	if row == nil {
		row = &domain.SystemStats{ID: s.genID.Generate(), SiteID: siteID}
	}
	blob, err := s.fold(ctx, row.Stats, drink, loc, "system", func() ([]*drinkdomain.Drink, error) {
		return s.drinks.FindValidBySite(ctx, tx, siteID)
	})
	if err != nil {
		return err
	}
	row.Stats = blob
	return s.repo.SaveSystem(ctx, tx, row)
}

func (s *Service) applyUser(ctx context.Context, tx *gorm.DB, siteID snowflake.ID, drink *drinkdomain.Drink, loc *time.Location) error {
	row, err := s.repo.FindUser(ctx, tx, siteID, drink.UserID)
	if err != nil {
		return err
	}
	if row == nil {
		row = &domain.UserStats{ID: s.genID.Generate(), SiteID: siteID, UserID: drink.UserID}
	}
	blob, err := s.fold(ctx, row.Stats, drink, loc, "user", func() ([]*drinkdomain.Drink, error) {
		return s.drinks.FindValidByUser(ctx, tx, siteID, drink.UserID)
	})
	if err != nil {
		return err
	}
	row.Stats = blob
	return s.repo.SaveUser(ctx, tx, row)
}

func (s *Service) applyKeg(ctx context.Context, tx *gorm.DB, siteID snowflake.ID, drink *drinkdomain.Drink, loc *time.Location, force bool) error {
	row, err := s.repo.FindKeg(ctx, tx, siteID, drink.KegID)
	if err != nil {
		return err
	}
	if row == nil {
		row = &domain.KegStats{ID: s.genID.Generate(), SiteID: siteID, KegID: drink.KegID}
	}
	if row.Completed && !force {
		return nil
	}
	replay := func() ([]*drinkdomain.Drink, error) {
		return s.drinks.FindValidByKeg(ctx, tx, drink.KegID)
	}
	var blob datatypes.JSON
	if force {
		blob, err = s.rebuild(ctx, loc, replay)
	} else {
		blob, err = s.fold(ctx, row.Stats, drink, loc, "keg", replay)
	}
	if err != nil {
		return err
	}
	row.Stats = blob
	return s.repo.SaveKeg(ctx, tx, row)
}

func (s *Service) applySession(ctx context.Context, tx *gorm.DB, siteID snowflake.ID, drink *drinkdomain.Drink, loc *time.Location, force bool) error {
	row, err := s.repo.FindSession(ctx, tx, siteID, drink.SessionID)
	if err != nil {
		return err
	}
	if row == nil {
		row = &domain.SessionStats{ID: s.genID.Generate(), SiteID: siteID, SessionID: drink.SessionID}
	}
	if row.Completed && !force {
		return nil
	}
	replay := func() ([]*drinkdomain.Drink, error) {
		return s.drinks.FindValidBySession(ctx, tx, drink.SessionID)
	}
	var blob datatypes.JSON
	if force {
		blob, err = s.rebuild(ctx, loc, replay)
	} else {
		blob, err = s.fold(ctx, row.Stats, drink, loc, "session", replay)
	}
	if err != nil {
		return err
	}
	row.Stats = blob
	return s.repo.SaveSession(ctx, tx, row)
}

// fold decodes the previous blob, absorbs the drink, and re-encodes. A
// blob that fails to decode is discarded and the scope is replayed from
// its drinks instead; the replay already contains the current drink, so
// it is not folded twice.
func (s *Service) fold(ctx context.Context, prev datatypes.JSON, drink *drinkdomain.Drink, loc *time.Location, scope string, replay func() ([]*drinkdomain.Drink, error)) (datatypes.JSON, error) {
	var agg domain.Aggregate
	if len(prev) > 0 {
		if err := json.Unmarshal(prev, &agg); err != nil {
			s.log.Warn("discarding malformed stats blob",
				zap.String("scope", scope),
				zap.Error(err))
			return s.rebuild(ctx, loc, replay)
		}
	}
	agg.Fold(drink, loc)
	return json.Marshal(agg)
}

func (s *Service) rebuild(ctx context.Context, loc *time.Location, replay func() ([]*drinkdomain.Drink, error)) (datatypes.JSON, error) {
	drinks, err := replay()
	if err != nil {
		return nil, err
	}
	var agg domain.Aggregate
	for _, d := range drinks {
		agg.Fold(d, loc)
	}
	return json.Marshal(agg)
}

func (s *Service) RecomputeSession(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) error {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ErrInvalidSite
	}
	loc, err := s.sites.Location(ctx)
	if err != nil {
		return err
	}
	row, err := s.repo.FindSession(ctx, tx, siteID, sessionID)
	if err != nil {
		return err
	}
	if row == nil {
		row = &domain.SessionStats{ID: s.genID.Generate(), SiteID: siteID, SessionID: sessionID}
	}
	blob, err := s.rebuild(ctx, loc, func() ([]*drinkdomain.Drink, error) {
		return s.drinks.FindValidBySession(ctx, tx, sessionID)
	})
	if err != nil {
		return err
	}
	row.Stats = blob
	return s.repo.SaveSession(ctx, tx, row)
}

func (s *Service) RecomputeKeg(ctx context.Context, tx *gorm.DB, kegID snowflake.ID) error {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ErrInvalidSite
	}
	loc, err := s.sites.Location(ctx)
	if err != nil {
		return err
	}
	row, err := s.repo.FindKeg(ctx, tx, siteID, kegID)
	if err != nil {
		return err
	}
	if row == nil {
		row = &domain.KegStats{ID: s.genID.Generate(), SiteID: siteID, KegID: kegID}
	}
	blob, err := s.rebuild(ctx, loc, func() ([]*drinkdomain.Drink, error) {
		return s.drinks.FindValidByKeg(ctx, tx, kegID)
	})
	if err != nil {
		return err
	}
	row.Stats = blob
	return s.repo.SaveKeg(ctx, tx, row)
}

func (s *Service) RecomputeUser(ctx context.Context, tx *gorm.DB, userID snowflake.ID) error {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ErrInvalidSite
	}
	loc, err := s.sites.Location(ctx)
	if err != nil {
		return err
	}
	row, err := s.repo.FindUser(ctx, tx, siteID, userID)
	if err != nil {
		return err
	}
	if row == nil {
		row = &domain.UserStats{ID: s.genID.Generate(), SiteID: siteID, UserID: userID}
	}
	blob, err := s.rebuild(ctx, loc, func() ([]*drinkdomain.Drink, error) {
		return s.drinks.FindValidByUser(ctx, tx, siteID, userID)
	})
	if err != nil {
		return err
	}
	row.Stats = blob
	return s.repo.SaveUser(ctx, tx, row)
}

func (s *Service) RecomputeSystem(ctx context.Context, tx *gorm.DB) error {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ErrInvalidSite
	}
	loc, err := s.sites.Location(ctx)
	if err != nil {
		return err
	}
	row, err := s.repo.FindSystem(ctx, tx, siteID)
	if err != nil {
		return err
	}
	if row == nil {
		row = &domain.SystemStats{ID: s.genID.Generate(), SiteID: siteID}
	}
	blob, err := s.rebuild(ctx, loc, func() ([]*drinkdomain.Drink, error) {
		return s.drinks.FindValidBySite(ctx, tx, siteID)
	})
	if err != nil {
		return err
	}
	row.Stats = blob
	return s.repo.SaveSystem(ctx, tx, row)
}

func (s *Service) RecomputeAll(ctx context.Context) error {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ErrInvalidSite
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteAll(ctx, tx, siteID); err != nil {
			return err
		}
		drinks, err := s.drinks.FindValidBySite(ctx, tx, siteID)
		if err != nil {
			return err
		}
		s.log.Info("recomputing stats from drinks",
			zap.String("site_id", siteID.String()),
			zap.Int("drinks", len(drinks)))
		for _, d := range drinks {
			if err := s.ApplyDrink(ctx, tx, d, false); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) MarkKegCompleted(ctx context.Context, tx *gorm.DB, kegID snowflake.ID) error {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ErrInvalidSite
	}
	row, err := s.repo.FindKeg(ctx, tx, siteID, kegID)
	if err != nil {
		return err
	}
	if row == nil {
		row = &domain.KegStats{ID: s.genID.Generate(), SiteID: siteID, KegID: kegID}
	}
	row.Completed = true
	return s.repo.SaveKeg(ctx, tx, row)
}

func (s *Service) MarkSessionCompleted(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) error {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.ErrInvalidSite
	}
	row, err := s.repo.FindSession(ctx, tx, siteID, sessionID)
	if err != nil {
		return err
	}
	if row == nil {
		row = &domain.SessionStats{ID: s.genID.Generate(), SiteID: siteID, SessionID: sessionID}
	}
	row.Completed = true
	return s.repo.SaveSession(ctx, tx, row)
}

func (s *Service) GetSystem(ctx context.Context) (domain.Aggregate, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Aggregate{}, domain.ErrInvalidSite
	}
	row, err := s.repo.FindSystem(ctx, s.db, siteID)
	if err != nil {
		return domain.Aggregate{}, err
	}
	if row == nil {
		return domain.Aggregate{}, domain.ErrStatsNotFound
	}
	return s.decode(row.Stats)
}

func (s *Service) GetUser(ctx context.Context, userID snowflake.ID) (domain.Aggregate, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Aggregate{}, domain.ErrInvalidSite
	}
	row, err := s.repo.FindUser(ctx, s.db, siteID, userID)
	if err != nil {
		return domain.Aggregate{}, err
	}
	if row == nil {
		return domain.Aggregate{}, domain.ErrStatsNotFound
	}
	return s.decode(row.Stats)
}

func (s *Service) GetKeg(ctx context.Context, kegID snowflake.ID) (domain.Aggregate, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Aggregate{}, domain.ErrInvalidSite
	}
	row, err := s.repo.FindKeg(ctx, s.db, siteID, kegID)
	if err != nil {
		return domain.Aggregate{}, err
	}
	if row == nil {
		return domain.Aggregate{}, domain.ErrStatsNotFound
	}
	return s.decode(row.Stats)
}

func (s *Service) GetSession(ctx context.Context, sessionID snowflake.ID) (domain.Aggregate, error) {
	siteID, ok := sitecontext.SiteIDFromContext(ctx)
	if !ok || siteID == 0 {
		return domain.Aggregate{}, domain.ErrInvalidSite
	}
	row, err := s.repo.FindSession(ctx, s.db, siteID, sessionID)
	if err != nil {
		return domain.Aggregate{}, err
	}
	if row == nil {
		return domain.Aggregate{}, domain.ErrStatsNotFound
	}
	return s.decode(row.Stats)
}

func (s *Service) decode(blob datatypes.JSON) (domain.Aggregate, error) {
	var agg domain.Aggregate
	if len(blob) == 0 {
		return agg, nil
	}
	if err := json.Unmarshal(blob, &agg); err != nil {
		s.log.Warn("malformed stats blob on read", zap.Error(err))
		return domain.Aggregate{}, nil
	}
	return agg, nil
}
