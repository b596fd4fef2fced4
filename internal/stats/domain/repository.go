package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindSystem(ctx context.Context, db *gorm.DB, siteID snowflake.ID) (*SystemStats, error)
	SaveSystem(ctx context.Context, db *gorm.DB, row *SystemStats) error

	FindUser(ctx context.Context, db *gorm.DB, siteID, userID snowflake.ID) (*UserStats, error)
	SaveUser(ctx context.Context, db *gorm.DB, row *UserStats) error

	FindKeg(ctx context.Context, db *gorm.DB, siteID, kegID snowflake.ID) (*KegStats, error)
	SaveKeg(ctx context.Context, db *gorm.DB, row *KegStats) error

	FindSession(ctx context.Context, db *gorm.DB, siteID, sessionID snowflake.ID) (*SessionStats, error)
	SaveSession(ctx context.Context, db *gorm.DB, row *SessionStats) error

	// DeleteAll clears every stats row for a site ahead of a full recompute.
	DeleteAll(ctx context.Context, db *gorm.DB, siteID snowflake.ID) error
}
