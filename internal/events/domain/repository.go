package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Insert writes the event unless one with the same dedupe key already
	// exists. Reports whether a row was actually created.
	Insert(ctx context.Context, db *gorm.DB, event *SystemEvent) (bool, error)

	// FindRecent returns the site's newest events, newest first.
	FindRecent(ctx context.Context, db *gorm.DB, siteID snowflake.ID, limit int) ([]*SystemEvent, error)

	FindBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]*SystemEvent, error)
}
