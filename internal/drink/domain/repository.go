package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, drink *Drink) error
	FindByID(ctx context.Context, db *gorm.DB, siteID, id snowflake.ID) (*Drink, error)
	Save(ctx context.Context, db *gorm.DB, drink *Drink) error

	// Valid drinks in ascending time order, for replay.
	FindValidBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]*Drink, error)
	FindValidByKeg(ctx context.Context, db *gorm.DB, kegID snowflake.ID) ([]*Drink, error)
	FindValidByUser(ctx context.Context, db *gorm.DB, siteID, userID snowflake.ID) ([]*Drink, error)
	FindValidBySite(ctx context.Context, db *gorm.DB, siteID snowflake.ID) ([]*Drink, error)
}
