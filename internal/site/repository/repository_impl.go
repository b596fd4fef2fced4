package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/site/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, site *domain.Site) error {
	return db.WithContext(ctx).Create(site).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Site, error) {
	var site domain.Site
	err := db.WithContext(ctx).Where("id = ?", id).First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Site, error) {
	var site domain.Site
	err := db.WithContext(ctx).Where("name = ?", name).First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}

func (r *repo) InsertSettings(ctx context.Context, db *gorm.DB, settings *domain.Settings) error {
	return db.WithContext(ctx).Create(settings).Error
}

func (r *repo) FindSettings(ctx context.Context, db *gorm.DB, siteID snowflake.ID) (*domain.Settings, error) {
	var settings domain.Settings
	err := db.WithContext(ctx).Where("site_id = ?", siteID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}
