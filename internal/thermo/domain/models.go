// Package domain contains temperature sensors and their readings.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Sensor struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteID    snowflake.ID `gorm:"not null;uniqueIndex:uq_sensor_name" json:"site_id"`
	Name      string       `gorm:"not null;uniqueIndex:uq_sensor_name" json:"name"`
	Nice      string       `gorm:"type:text" json:"nice_name,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Sensor) TableName() string { return "thermo_sensors" }

type TempLog struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	SensorID snowflake.ID `gorm:"not null;index" json:"sensor_id"`
	TempC    float64      `gorm:"not null" json:"temp_c"`
	Time     time.Time    `gorm:"not null;index" json:"time"`
}

func (TempLog) TableName() string { return "thermo_logs" }
