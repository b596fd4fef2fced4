package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, session *Session) error
	FindByID(ctx context.Context, db *gorm.DB, siteID, id snowflake.ID) (*Session, error)
	Save(ctx context.Context, db *gorm.DB, session *Session) error

	// FindLatestByEndTime returns the site's most-recently-ending session,
	// or nil when the site has none.
	FindLatestByEndTime(ctx context.Context, db *gorm.DB, siteID snowflake.ID) (*Session, error)

	FindChunk(ctx context.Context, db *gorm.DB, sessionID, userID, kegID snowflake.ID) (*Chunk, error)
	InsertChunk(ctx context.Context, db *gorm.DB, chunk *Chunk) error
	SaveChunk(ctx context.Context, db *gorm.DB, chunk *Chunk) error
	FindChunksBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]*Chunk, error)

	FindUserChunk(ctx context.Context, db *gorm.DB, sessionID, userID snowflake.ID) (*UserChunk, error)
	InsertUserChunk(ctx context.Context, db *gorm.DB, chunk *UserChunk) error
	SaveUserChunk(ctx context.Context, db *gorm.DB, chunk *UserChunk) error
	FindUserChunksBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]*UserChunk, error)

	FindKegChunk(ctx context.Context, db *gorm.DB, sessionID, kegID snowflake.ID) (*KegChunk, error)
	InsertKegChunk(ctx context.Context, db *gorm.DB, chunk *KegChunk) error
	SaveKegChunk(ctx context.Context, db *gorm.DB, chunk *KegChunk) error

	// DeleteChunks removes all three chunk kinds for a session, ahead of a
	// rebuild.
	DeleteChunks(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) error
}
