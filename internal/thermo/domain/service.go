package domain

import (
	"context"
	"errors"
	"time"
)

type RecordReadingRequest struct {
	SensorName string    `json:"sensor_name"`
	TempC      float64   `json:"temp_c"`
	Time       time.Time `json:"time,omitempty"`
}

type Service interface {
	// Record stores one reading, creating the sensor on first sight.
	// Readings outside the plausible range are rejected.
	Record(ctx context.Context, req RecordReadingRequest) (*TempLog, error)

	// LastReading returns a sensor's most recent log entry.
	LastReading(ctx context.Context, sensorName string) (*TempLog, error)
}

var (
	ErrInvalidSite    = errors.New("invalid_site")
	ErrInvalidSensor  = errors.New("invalid_sensor")
	ErrSensorNotFound = errors.New("sensor_not_found")
	ErrInvalidReading = errors.New("invalid_reading")
)
