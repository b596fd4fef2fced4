// Package domain contains the site and site settings models. A site owns
// every keg, drink, session and event recorded under it.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Site struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"uniqueIndex;not null" json:"name"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	SerialNumber string       `gorm:"type:text" json:"serial_number,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Site) TableName() string { return "sites" }

// Settings is the per-site operational configuration. The domain layer only
// ever reads it; writes happen through operator tooling.
type Settings struct {
	ID                      snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteID                  snowflake.ID `gorm:"uniqueIndex;not null" json:"site_id"`
	Title                   string       `gorm:"type:text" json:"title,omitempty"`
	SessionTimeoutMinutes   uint         `gorm:"not null" json:"session_timeout_minutes"`
	Timezone                string       `gorm:"type:text;not null" json:"timezone"`
	VolumeDisplayUnits      string       `gorm:"type:text" json:"volume_display_units"`
	TemperatureDisplayUnits string       `gorm:"type:text" json:"temperature_display_units"`
	Privacy                 string       `gorm:"type:text" json:"privacy"`
	GuestName               string       `gorm:"type:text" json:"guest_name"`
	CreatedAt               time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt               time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Settings) TableName() string { return "site_settings" }

// SessionTimeout converts the configured idle timeout to a duration.
func (s Settings) SessionTimeout() time.Duration {
	return time.Duration(s.SessionTimeoutMinutes) * time.Minute
}
