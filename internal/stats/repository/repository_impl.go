package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/stats/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindSystem(ctx context.Context, db *gorm.DB, siteID snowflake.ID) (*domain.SystemStats, error) {
	var row domain.SystemStats
	err := db.WithContext(ctx).Where("site_id = ?", siteID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) SaveSystem(ctx context.Context, db *gorm.DB, row *domain.SystemStats) error {
	return db.WithContext(ctx).Save(row).Error
}

func (r *repo) FindUser(ctx context.Context, db *gorm.DB, siteID, userID snowflake.ID) (*domain.UserStats, error) {
	var row domain.UserStats
	err := db.WithContext(ctx).Where("site_id = ? AND user_id = ?", siteID, userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) SaveUser(ctx context.Context, db *gorm.DB, row *domain.UserStats) error {
	return db.WithContext(ctx).Save(row).Error
}

func (r *repo) FindKeg(ctx context.Context, db *gorm.DB, siteID, kegID snowflake.ID) (*domain.KegStats, error) {
	var row domain.KegStats
	err := db.WithContext(ctx).Where("site_id = ? AND keg_id = ?", siteID, kegID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) SaveKeg(ctx context.Context, db *gorm.DB, row *domain.KegStats) error {
	return db.WithContext(ctx).Save(row).Error
}

func (r *repo) FindSession(ctx context.Context, db *gorm.DB, siteID, sessionID snowflake.ID) (*domain.SessionStats, error) {
	var row domain.SessionStats
	err := db.WithContext(ctx).Where("site_id = ? AND session_id = ?", siteID, sessionID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) SaveSession(ctx context.Context, db *gorm.DB, row *domain.SessionStats) error {
	return db.WithContext(ctx).Save(row).Error
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB, siteID snowflake.ID) error {
	if err := db.WithContext(ctx).Where("site_id = ?", siteID).Delete(&domain.SystemStats{}).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Where("site_id = ?", siteID).Delete(&domain.UserStats{}).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Where("site_id = ?", siteID).Delete(&domain.KegStats{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Where("site_id = ?", siteID).Delete(&domain.SessionStats{}).Error
}
