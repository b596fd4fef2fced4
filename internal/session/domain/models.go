// Package domain contains drinking sessions and their chunk breakdowns.
// A session is a contiguous run of drinks separated by no more than the
// site's idle timeout.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Window is the shared accumulation state of sessions and chunks: a time
// span plus the volume poured inside it.
type Window struct {
	StartTime time.Time `gorm:"not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`
	VolumeML  float64   `gorm:"not null;default:0" json:"volume_ml"`
}

// Absorb folds one drink into the window: start_time = min(start_time, t),
// end_time = max(end_time, t+timeout), volume_ml += v.
func (w *Window) Absorb(t time.Time, volumeML float64, timeout time.Duration) {
	end := t.Add(timeout)
	if w.StartTime.After(t) {
		w.StartTime = t
	}
	if w.EndTime.Before(end) {
		w.EndTime = end
	}
	w.VolumeML += volumeML
}

func (w Window) Duration() time.Duration {
	return w.EndTime.Sub(w.StartTime)
}

type Session struct {
	ID     snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteID snowflake.ID `gorm:"not null;index" json:"site_id"`
	Name   string       `gorm:"type:text" json:"name,omitempty"`
	Window `gorm:"embedded"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }

// IsActive reports whether the session can still absorb a drink poured at
// now. The boundary is exclusive: a drink at exactly end_time starts a new
// session.
func (s Session) IsActive(now time.Time) bool {
	return s.EndTime.After(now)
}

// Chunk is one (user, keg) slice of a session. UserID zero means guest.
type Chunk struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	SessionID snowflake.ID `gorm:"not null;uniqueIndex:uq_session_chunk" json:"session_id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:uq_session_chunk" json:"user_id"`
	KegID     snowflake.ID `gorm:"not null;uniqueIndex:uq_session_chunk" json:"keg_id"`
	Window    `gorm:"embedded"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Chunk) TableName() string { return "session_chunks" }

// UserChunk is one user's slice of a session, spanning all kegs.
type UserChunk struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteID    snowflake.ID `gorm:"not null;index" json:"site_id"`
	SessionID snowflake.ID `gorm:"not null;uniqueIndex:uq_user_chunk" json:"session_id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:uq_user_chunk" json:"user_id"`
	Window    `gorm:"embedded"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (UserChunk) TableName() string { return "session_user_chunks" }

// KegChunk is one keg's slice of a session, spanning all users.
type KegChunk struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteID    snowflake.ID `gorm:"not null;index" json:"site_id"`
	SessionID snowflake.ID `gorm:"not null;uniqueIndex:uq_keg_chunk" json:"session_id"`
	KegID     snowflake.ID `gorm:"not null;uniqueIndex:uq_keg_chunk" json:"keg_id"`
	Window    `gorm:"embedded"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (KegChunk) TableName() string { return "session_keg_chunks" }
