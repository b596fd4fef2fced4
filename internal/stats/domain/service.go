package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	drinkdomain "github.com/draughtlab/kegmon/internal/drink/domain"
	"gorm.io/gorm"
)

type Service interface {
	// ApplyDrink folds a counted drink into all four scopes inside the
	// pour transaction. Completed keg and session rows are skipped unless
	// force is set, in which case the scope is recomputed from its drinks.
	ApplyDrink(ctx context.Context, tx *gorm.DB, drink *drinkdomain.Drink, force bool) error

	// RecomputeSession rebuilds one session's aggregate by replaying its
	// valid drinks. Used after corrections.
	RecomputeSession(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) error

	// RecomputeKeg rebuilds one keg's aggregate by replaying its valid
	// drinks.
	RecomputeKeg(ctx context.Context, tx *gorm.DB, kegID snowflake.ID) error

	// RecomputeUser and RecomputeSystem rebuild the remaining scopes a
	// corrected drink touches.
	RecomputeUser(ctx context.Context, tx *gorm.DB, userID snowflake.ID) error
	RecomputeSystem(ctx context.Context, tx *gorm.DB) error

	// RecomputeAll drops every stats row for the site and replays all
	// valid drinks in time order.
	RecomputeAll(ctx context.Context) error

	// MarkKegCompleted freezes a keg's stats row; later pours no longer
	// touch it without force.
	MarkKegCompleted(ctx context.Context, tx *gorm.DB, kegID snowflake.ID) error

	MarkSessionCompleted(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) error

	GetSystem(ctx context.Context) (Aggregate, error)
	GetUser(ctx context.Context, userID snowflake.ID) (Aggregate, error)
	GetKeg(ctx context.Context, kegID snowflake.ID) (Aggregate, error)
	GetSession(ctx context.Context, sessionID snowflake.ID) (Aggregate, error)
}

var (
	ErrInvalidSite   = errors.New("invalid_site")
	ErrStatsNotFound = errors.New("stats_not_found")
)
