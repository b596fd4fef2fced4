// Package domain contains the drink model. A drink is the unit of truth:
// every aggregate in the system is derived from, and regenerable from, the
// set of valid drinks.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusDeleted Status = "deleted"
)

type Drink struct {
	ID     snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteID snowflake.ID `gorm:"not null;index" json:"site_id"`

	// Ticks is the raw meter reading. Never changed once recorded.
	Ticks int64 `gorm:"not null" json:"ticks"`

	// VolumeML starts as a function of Ticks but may be corrected later,
	// e.g. after recalibrating the tap's flow meter.
	VolumeML float64 `gorm:"not null" json:"volume_ml"`

	Time       time.Time    `gorm:"not null;index" json:"time"`
	DurationMS int64        `gorm:"not null;default:0" json:"duration_ms"`
	UserID     snowflake.ID `gorm:"index" json:"user_id,omitempty"`
	KegID      snowflake.ID `gorm:"index" json:"keg_id,omitempty"`
	SessionID  snowflake.ID `gorm:"index" json:"session_id,omitempty"`
	Status     Status       `gorm:"type:text;not null;default:'valid'" json:"status"`
	Shout      string       `gorm:"type:text" json:"shout,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Drink) TableName() string { return "drinks" }

// Counted reports whether the drink participates in aggregates and volume
// math. Deleted and invalid drinks never do.
func (d Drink) Counted() bool { return d.Status == StatusValid }

// IsGuest reports whether the pour had no authenticated user.
func (d Drink) IsGuest() bool { return d.UserID == 0 }
