package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	drinkdomain "github.com/draughtlab/kegmon/internal/drink/domain"
	"gorm.io/gorm"
)

// Assembler decides which session absorbs a drink. All mutating calls take
// the pour transaction so session, chunk and drink rows commit atomically
// with the rest of the pipeline.
type Assembler interface {
	// Assign attaches the drink to the site's still-active session, or
	// creates a new one bootstrapped at the drink's time. Idempotent: a
	// drink that already references a session is returned unchanged.
	Assign(ctx context.Context, tx *gorm.DB, drink *drinkdomain.Drink) (*Session, error)

	// Rebuild recomputes a session's bounds, volume and chunks from
	// scratch by replaying its valid drinks in time order. Used for
	// repair after corrections, not on the steady-state path.
	Rebuild(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) error

	GetByID(ctx context.Context, id string) (Session, error)
}

var (
	ErrInvalidSite     = errors.New("invalid_site")
	ErrInvalidSession  = errors.New("invalid_session")
	ErrSessionNotFound = errors.New("session_not_found")
)
