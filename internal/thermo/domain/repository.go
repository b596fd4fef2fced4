package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindSensorByName(ctx context.Context, db *gorm.DB, siteID snowflake.ID, name string) (*Sensor, error)
	InsertSensor(ctx context.Context, db *gorm.DB, sensor *Sensor) error

	InsertLog(ctx context.Context, db *gorm.DB, entry *TempLog) error
	FindLastLog(ctx context.Context, db *gorm.DB, sensorID snowflake.ID) (*TempLog, error)

	// PruneLogs deletes readings older than the cutoff, keeping the table
	// bounded on long-lived installs.
	PruneLogs(ctx context.Context, db *gorm.DB, sensorID snowflake.ID, keep int) error
}
