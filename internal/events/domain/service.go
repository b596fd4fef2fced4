package domain

import (
	"context"
	"errors"

	drinkdomain "github.com/draughtlab/kegmon/internal/drink/domain"
	kegdomain "github.com/draughtlab/kegmon/internal/keg/domain"
	"gorm.io/gorm"
)

// Recorder turns state changes into feed events. Both entry points are
// idempotent; calling them twice for the same change is a no-op.
type Recorder interface {
	// ProcessDrink emits, in order: keg_tapped for the drink's keg,
	// session_started for its session, session_joined for the drinker,
	// then drink_poured. Earlier kinds are skipped when already present.
	ProcessDrink(ctx context.Context, tx *gorm.DB, drink *drinkdomain.Drink) error

	// ProcessKeg emits keg_tapped or keg_ended depending on the keg's
	// status.
	ProcessKeg(ctx context.Context, tx *gorm.DB, keg *kegdomain.Keg) error

	ListRecent(ctx context.Context, limit int) ([]*SystemEvent, error)
}

var (
	ErrInvalidSite  = errors.New("invalid_site")
	ErrInvalidEvent = errors.New("invalid_event")
)
