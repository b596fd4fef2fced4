// Package domain holds derived drinking statistics. Stats rows are pure
// caches: every one can be thrown away and regenerated from the valid
// drinks, so a malformed blob is repaired, never fatal.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SystemStats is the single site-wide aggregate row.
type SystemStats struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	SiteID    snowflake.ID   `gorm:"not null;uniqueIndex" json:"site_id"`
	Stats     datatypes.JSON `gorm:"type:jsonb" json:"stats"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SystemStats) TableName() string { return "stats_system" }

// UserStats aggregates one drinker's pours across all kegs and sessions.
// UserID zero is the guest account.
type UserStats struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	SiteID    snowflake.ID   `gorm:"not null;uniqueIndex:uq_user_stats" json:"site_id"`
	UserID    snowflake.ID   `gorm:"not null;uniqueIndex:uq_user_stats" json:"user_id"`
	Stats     datatypes.JSON `gorm:"type:jsonb" json:"stats"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (UserStats) TableName() string { return "stats_user" }

// KegStats aggregates one keg's lifetime. Completed is set when the keg
// goes offline; after that the row is frozen unless an update is forced.
type KegStats struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	SiteID    snowflake.ID   `gorm:"not null;index" json:"site_id"`
	KegID     snowflake.ID   `gorm:"not null;uniqueIndex" json:"keg_id"`
	Stats     datatypes.JSON `gorm:"type:jsonb" json:"stats"`
	Completed bool           `gorm:"not null;default:false" json:"completed"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (KegStats) TableName() string { return "stats_keg" }

// SessionStats aggregates one session. Completed marks sessions whose idle
// window has lapsed; frozen like KegStats.
type SessionStats struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	SiteID    snowflake.ID   `gorm:"not null;index" json:"site_id"`
	SessionID snowflake.ID   `gorm:"not null;uniqueIndex" json:"session_id"`
	Stats     datatypes.JSON `gorm:"type:jsonb" json:"stats"`
	Completed bool           `gorm:"not null;default:false" json:"completed"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SessionStats) TableName() string { return "stats_session" }
