package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, site *Site) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Site, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Site, error)
	InsertSettings(ctx context.Context, db *gorm.DB, settings *Settings) error
	FindSettings(ctx context.Context, db *gorm.DB, siteID snowflake.ID) (*Settings, error)
}
