package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// DrinkBounds is the min/max time of a keg's valid drinks; Empty when the
// keg has none.
type DrinkBounds struct {
	First time.Time
	Last  time.Time
	Empty bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, keg *Keg) error
	FindByID(ctx context.Context, db *gorm.DB, siteID, id snowflake.ID) (*Keg, error)
	Save(ctx context.Context, db *gorm.DB, keg *Keg) error

	InsertTap(ctx context.Context, db *gorm.DB, tap *Tap) error
	FindTapByID(ctx context.Context, db *gorm.DB, siteID, id snowflake.ID) (*Tap, error)
	FindTapByMeterName(ctx context.Context, db *gorm.DB, siteID snowflake.ID, meterName string) (*Tap, error)
	FindTapByCurrentKeg(ctx context.Context, db *gorm.DB, kegID snowflake.ID) (*Tap, error)
	SaveTap(ctx context.Context, db *gorm.DB, tap *Tap) error

	// ServedVolume sums the keg's valid drink volumes.
	ServedVolume(ctx context.Context, db *gorm.DB, kegID snowflake.ID) (float64, error)

	// ValidDrinkBounds returns the first and last valid drink times on the keg.
	ValidDrinkBounds(ctx context.Context, db *gorm.DB, kegID snowflake.ID) (DrinkBounds, error)
}
