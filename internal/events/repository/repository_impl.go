package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/events/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *domain.SystemEvent) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindRecent(ctx context.Context, db *gorm.DB, siteID snowflake.ID, limit int) ([]*domain.SystemEvent, error) {
	var events []*domain.SystemEvent
	err := db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("time desc").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *repo) FindBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]*domain.SystemEvent, error) {
	var events []*domain.SystemEvent
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("time asc").
		Find(&events).Error
	return events, err
}
