// Package domain contains the keg and tap models and the keg volume
// bookkeeping rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusComingSoon Status = "coming_soon"
	StatusOnline     Status = "online"
	StatusOffline    Status = "offline"
)

// DefaultMLPerTick matches a Vision 2000 flow meter.
const DefaultMLPerTick = 1000.0 / 2200.0

// Tap is a physical faucet a keg can be attached to. Its flow meter reports
// pours in ticks; MLPerTick calibrates tick-to-volume conversion.
type Tap struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteID       snowflake.ID `gorm:"not null;index" json:"site_id"`
	Name         string       `gorm:"not null" json:"name"`
	MeterName    string       `gorm:"not null;index" json:"meter_name"`
	MLPerTick    float64      `gorm:"not null" json:"ml_per_tick"`
	MaxTickDelta uint         `gorm:"not null;default:100" json:"max_tick_delta"`
	CurrentKegID snowflake.ID `gorm:"index" json:"current_keg_id,omitempty"`
	Description  string       `gorm:"type:text" json:"description,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Tap) TableName() string { return "taps" }

type Keg struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteID      snowflake.ID `gorm:"not null;index" json:"site_id"`
	SizeName    string       `gorm:"type:text" json:"size_name,omitempty"`
	SizeML      float64      `gorm:"not null" json:"size_ml"`
	StartTime   time.Time    `gorm:"not null" json:"start_time"`
	EndTime     time.Time    `gorm:"not null" json:"end_time"`
	Status      Status       `gorm:"type:text;not null" json:"status"`
	SpilledML   float64      `gorm:"not null;default:0" json:"spilled_ml"`
	OrigCost    float64      `json:"orig_cost,omitempty"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	Notes       string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Keg) TableName() string { return "kegs" }

func (k Keg) FullVolume() float64 { return k.SizeML }

func (k Keg) IsActive() bool { return k.Status == StatusOnline }

// RemainingVolume subtracts served and spilled volume from the nominal size.
// servedML is the sum of the keg's valid drink volumes.
func (k Keg) RemainingVolume(servedML float64) float64 {
	return k.FullVolume() - servedML - k.SpilledML
}

// PercentFull clamps to [0,100] to tolerate over-pour past the nominal size.
func (k Keg) PercentFull(servedML float64) float64 {
	if k.FullVolume() <= 0 {
		return 0
	}
	pct := k.RemainingVolume(servedML) / k.FullVolume() * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// CanTransition encodes the one-way status machine
// coming_soon -> online -> offline.
func (k Keg) CanTransition(next Status) bool {
	switch k.Status {
	case StatusComingSoon:
		return next == StatusOnline
	case StatusOnline:
		return next == StatusOffline
	default:
		return false
	}
}
