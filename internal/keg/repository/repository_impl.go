package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/keg/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, keg *domain.Keg) error {
	return db.WithContext(ctx).Create(keg).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, siteID, id snowflake.ID) (*domain.Keg, error) {
	var keg domain.Keg
	err := db.WithContext(ctx).Where("site_id = ? AND id = ?", siteID, id).First(&keg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &keg, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, keg *domain.Keg) error {
	return db.WithContext(ctx).Save(keg).Error
}

func (r *repo) InsertTap(ctx context.Context, db *gorm.DB, tap *domain.Tap) error {
	return db.WithContext(ctx).Create(tap).Error
}

func (r *repo) FindTapByID(ctx context.Context, db *gorm.DB, siteID, id snowflake.ID) (*domain.Tap, error) {
	var tap domain.Tap
	err := db.WithContext(ctx).Where("site_id = ? AND id = ?", siteID, id).First(&tap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tap, nil
}

func (r *repo) FindTapByMeterName(ctx context.Context, db *gorm.DB, siteID snowflake.ID, meterName string) (*domain.Tap, error) {
	var tap domain.Tap
	err := db.WithContext(ctx).Where("site_id = ? AND meter_name = ?", siteID, meterName).First(&tap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tap, nil
}

func (r *repo) FindTapByCurrentKeg(ctx context.Context, db *gorm.DB, kegID snowflake.ID) (*domain.Tap, error) {
	var tap domain.Tap
	err := db.WithContext(ctx).Where("current_keg_id = ?", kegID).First(&tap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tap, nil
}

func (r *repo) SaveTap(ctx context.Context, db *gorm.DB, tap *domain.Tap) error {
	return db.WithContext(ctx).Save(tap).Error
}

func (r *repo) ServedVolume(ctx context.Context, db *gorm.DB, kegID snowflake.ID) (float64, error) {
	var total float64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(volume_ml), 0) FROM drinks WHERE keg_id = ? AND status = 'valid'`,
		kegID,
	).Scan(&total).Error
	return total, err
}

func (r *repo) ValidDrinkBounds(ctx context.Context, db *gorm.DB, kegID snowflake.ID) (domain.DrinkBounds, error) {
	type timeRow struct {
		Time time.Time
	}

	var first, last []timeRow
	base := db.WithContext(ctx).Table("drinks").
		Select("time").
		Where("keg_id = ? AND status = 'valid'", kegID)

	if err := base.Session(&gorm.Session{}).Order("time asc").Limit(1).Find(&first).Error; err != nil {
		return domain.DrinkBounds{}, err
	}
	if len(first) == 0 {
		return domain.DrinkBounds{Empty: true}, nil
	}
	if err := base.Session(&gorm.Session{}).Order("time desc").Limit(1).Find(&last).Error; err != nil {
		return domain.DrinkBounds{}, err
	}

	return domain.DrinkBounds{
		First: first[0].Time,
		Last:  last[0].Time,
	}, nil
}
