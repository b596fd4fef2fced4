package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/thermo/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindSensorByName(ctx context.Context, db *gorm.DB, siteID snowflake.ID, name string) (*domain.Sensor, error) {
	var sensor domain.Sensor
	err := db.WithContext(ctx).Where("site_id = ? AND name = ?", siteID, name).First(&sensor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sensor, nil
}

func (r *repo) InsertSensor(ctx context.Context, db *gorm.DB, sensor *domain.Sensor) error {
	return db.WithContext(ctx).Create(sensor).Error
}

func (r *repo) InsertLog(ctx context.Context, db *gorm.DB, entry *domain.TempLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) FindLastLog(ctx context.Context, db *gorm.DB, sensorID snowflake.ID) (*domain.TempLog, error) {
	var entry domain.TempLog
	err := db.WithContext(ctx).
		Where("sensor_id = ?", sensorID).
		Order("time desc").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) PruneLogs(ctx context.Context, db *gorm.DB, sensorID snowflake.ID, keep int) error {
	if keep <= 0 {
		return nil
	}
	sub := db.Session(&gorm.Session{NewDB: true}).
		Model(&domain.TempLog{}).
		Select("id").
		Where("sensor_id = ?", sensorID).
		Order("time desc").
		Limit(keep)
	return db.WithContext(ctx).
		Where("sensor_id = ? AND id NOT IN (?)", sensorID, sub).
		Delete(&domain.TempLog{}).Error
}
