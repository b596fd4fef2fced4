package domain

import (
	"context"
	"errors"
	"time"

	"github.com/draughtlab/kegmon/pkg/db/pagination"
)

// RecordPourRequest is the ingestion input produced by the flow-metering
// collaborator.
type RecordPourRequest struct {
	KegID      string    `json:"keg_id"`
	UserID     string    `json:"user_id,omitempty"`
	Ticks      int64     `json:"ticks"`
	VolumeML   float64   `json:"volume_ml"`
	Time       time.Time `json:"time"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Shout      string    `json:"shout,omitempty"`
}

type ListDrinksRequest struct {
	KegID     string `json:"keg_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	PageToken string `json:"page_token,omitempty"`
	PageSize  int32  `json:"page_size,omitempty"`
}

type ListDrinksResponse struct {
	pagination.PageInfo
	Drinks []Drink `json:"drinks"`
}

type Service interface {
	// Record runs the whole pour pipeline as one transaction: insert the
	// drink, attach it to a session, fold it into every stats scope, and
	// record lifecycle events. All-or-nothing.
	Record(ctx context.Context, req RecordPourRequest) (*Drink, error)

	GetByID(ctx context.Context, id string) (Drink, error)
	List(ctx context.Context, req ListDrinksRequest) (ListDrinksResponse, error)

	// SetStatus invalidates or deletes a drink, then rebuilds its session
	// and recomputes the affected stats scopes by replay.
	SetStatus(ctx context.Context, id string, status Status) (Drink, error)

	// AdjustVolume corrects a drink's volume (ticks stay immutable) with
	// the same rebuild semantics as SetStatus.
	AdjustVolume(ctx context.Context, id string, volumeML float64) (Drink, error)
}

var (
	ErrInvalidSite   = errors.New("invalid_site")
	ErrInvalidKeg    = errors.New("invalid_keg")
	ErrKegNotOnline  = errors.New("keg_not_online")
	ErrInvalidUser   = errors.New("invalid_user")
	ErrInvalidTicks  = errors.New("invalid_ticks")
	ErrInvalidVolume = errors.New("invalid_volume")
	ErrInvalidTime   = errors.New("invalid_time")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrInvalidID     = errors.New("invalid_id")
	ErrDrinkNotFound = errors.New("drink_not_found")
)
