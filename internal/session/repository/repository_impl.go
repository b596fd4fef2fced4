package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/session/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, session *domain.Session) error {
	return db.WithContext(ctx).Create(session).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, siteID, id snowflake.ID) (*domain.Session, error) {
	var session domain.Session
	err := db.WithContext(ctx).Where("site_id = ? AND id = ?", siteID, id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, session *domain.Session) error {
	return db.WithContext(ctx).Save(session).Error
}

func (r *repo) FindLatestByEndTime(ctx context.Context, db *gorm.DB, siteID snowflake.ID) (*domain.Session, error) {
	var session domain.Session
	err := db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("end_time desc").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repo) FindChunk(ctx context.Context, db *gorm.DB, sessionID, userID, kegID snowflake.ID) (*domain.Chunk, error) {
	var chunk domain.Chunk
	err := db.WithContext(ctx).
		Where("session_id = ? AND user_id = ? AND keg_id = ?", sessionID, userID, kegID).
		First(&chunk).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chunk, nil
}

func (r *repo) InsertChunk(ctx context.Context, db *gorm.DB, chunk *domain.Chunk) error {
	return db.WithContext(ctx).Create(chunk).Error
}

func (r *repo) SaveChunk(ctx context.Context, db *gorm.DB, chunk *domain.Chunk) error {
	return db.WithContext(ctx).Save(chunk).Error
}

func (r *repo) FindChunksBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]*domain.Chunk, error) {
	var chunks []*domain.Chunk
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("start_time asc").
		Find(&chunks).Error
	return chunks, err
}

func (r *repo) FindUserChunk(ctx context.Context, db *gorm.DB, sessionID, userID snowflake.ID) (*domain.UserChunk, error) {
	var chunk domain.UserChunk
	err := db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&chunk).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chunk, nil
}

func (r *repo) InsertUserChunk(ctx context.Context, db *gorm.DB, chunk *domain.UserChunk) error {
	return db.WithContext(ctx).Create(chunk).Error
}

func (r *repo) SaveUserChunk(ctx context.Context, db *gorm.DB, chunk *domain.UserChunk) error {
	return db.WithContext(ctx).Save(chunk).Error
}

func (r *repo) FindUserChunksBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]*domain.UserChunk, error) {
	var chunks []*domain.UserChunk
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("volume_ml desc").
		Find(&chunks).Error
	return chunks, err
}

func (r *repo) FindKegChunk(ctx context.Context, db *gorm.DB, sessionID, kegID snowflake.ID) (*domain.KegChunk, error) {
	var chunk domain.KegChunk
	err := db.WithContext(ctx).
		Where("session_id = ? AND keg_id = ?", sessionID, kegID).
		First(&chunk).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chunk, nil
}

func (r *repo) InsertKegChunk(ctx context.Context, db *gorm.DB, chunk *domain.KegChunk) error {
	return db.WithContext(ctx).Create(chunk).Error
}

func (r *repo) SaveKegChunk(ctx context.Context, db *gorm.DB, chunk *domain.KegChunk) error {
	return db.WithContext(ctx).Save(chunk).Error
}

func (r *repo) DeleteChunks(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) error {
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&domain.Chunk{}).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&domain.UserChunk{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&domain.KegChunk{}).Error
}
