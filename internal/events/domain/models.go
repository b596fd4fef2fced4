// Package domain holds the site activity feed. Events are append-only and
// deduplicated by a natural key, so replaying a pour pipeline never
// produces duplicate feed entries.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Kind string

const (
	KindDrinkPoured    Kind = "drink_poured"
	KindSessionStarted Kind = "session_started"
	KindSessionJoined  Kind = "session_joined"
	KindKegTapped      Kind = "keg_tapped"
	KindKegEnded       Kind = "keg_ended"
)

type SystemEvent struct {
	ID     snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteID snowflake.ID `gorm:"not null;index" json:"site_id"`
	Kind   Kind         `gorm:"type:text;not null;index" json:"kind"`
	Time   time.Time    `gorm:"not null;index" json:"time"`

	DrinkID   snowflake.ID `gorm:"index" json:"drink_id,omitempty"`
	UserID    snowflake.ID `gorm:"index" json:"user_id,omitempty"`
	KegID     snowflake.ID `gorm:"index" json:"keg_id,omitempty"`
	SessionID snowflake.ID `gorm:"index" json:"session_id,omitempty"`

	// DedupeKey is the event's natural identity. The unique index plus an
	// insert that ignores conflicts makes recording idempotent without a
	// read-before-write.
	DedupeKey string `gorm:"type:text;not null;uniqueIndex" json:"dedupe_key"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (SystemEvent) TableName() string { return "system_events" }

func DrinkPouredKey(drinkID snowflake.ID) string {
	return fmt.Sprintf("%s:%s", KindDrinkPoured, drinkID)
}

func SessionStartedKey(sessionID snowflake.ID) string {
	return fmt.Sprintf("%s:%s", KindSessionStarted, sessionID)
}

func SessionJoinedKey(sessionID, userID snowflake.ID) string {
	return fmt.Sprintf("%s:%s:%s", KindSessionJoined, sessionID, userID)
}

func KegTappedKey(kegID snowflake.ID) string {
	return fmt.Sprintf("%s:%s", KindKegTapped, kegID)
}

func KegEndedKey(kegID snowflake.ID) string {
	return fmt.Sprintf("%s:%s", KindKegEnded, kegID)
}
