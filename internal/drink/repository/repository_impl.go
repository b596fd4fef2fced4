package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/drink/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, drink *domain.Drink) error {
	return db.WithContext(ctx).Create(drink).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, siteID, id snowflake.ID) (*domain.Drink, error) {
	var drink domain.Drink
	err := db.WithContext(ctx).Where("site_id = ? AND id = ?", siteID, id).First(&drink).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &drink, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, drink *domain.Drink) error {
	return db.WithContext(ctx).Save(drink).Error
}

func (r *repo) FindValidBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]*domain.Drink, error) {
	var drinks []*domain.Drink
	err := db.WithContext(ctx).
		Where("session_id = ? AND status = ?", sessionID, domain.StatusValid).
		Order("time asc").
		Find(&drinks).Error
	return drinks, err
}

func (r *repo) FindValidByKeg(ctx context.Context, db *gorm.DB, kegID snowflake.ID) ([]*domain.Drink, error) {
	var drinks []*domain.Drink
	err := db.WithContext(ctx).
		Where("keg_id = ? AND status = ?", kegID, domain.StatusValid).
		Order("time asc").
		Find(&drinks).Error
	return drinks, err
}

func (r *repo) FindValidByUser(ctx context.Context, db *gorm.DB, siteID, userID snowflake.ID) ([]*domain.Drink, error) {
	var drinks []*domain.Drink
	err := db.WithContext(ctx).
		Where("site_id = ? AND user_id = ? AND status = ?", siteID, userID, domain.StatusValid).
		Order("time asc").
		Find(&drinks).Error
	return drinks, err
}

func (r *repo) FindValidBySite(ctx context.Context, db *gorm.DB, siteID snowflake.ID) ([]*domain.Drink, error) {
	var drinks []*domain.Drink
	err := db.WithContext(ctx).
		Where("site_id = ? AND status = ?", siteID, domain.StatusValid).
		Order("time asc").
		Find(&drinks).Error
	return drinks, err
}
