package domain

import (
	"context"
	"errors"
)

type CreateKegRequest struct {
	SizeName    string  `json:"size_name"`
	SizeML      float64 `json:"size_ml"`
	Description string  `json:"description"`
	OrigCost    float64 `json:"orig_cost"`
	SpilledML   float64 `json:"spilled_ml"`
}

type TapKegRequest struct {
	KegID string `json:"keg_id"`
	TapID string `json:"tap_id"`
}

type CreateTapRequest struct {
	Name         string  `json:"name"`
	MeterName    string  `json:"meter_name"`
	MLPerTick    float64 `json:"ml_per_tick"`
	MaxTickDelta uint    `json:"max_tick_delta"`
	Description  string  `json:"description"`
}

// Volume is the derived volume state of one keg.
type Volume struct {
	FullML      float64 `json:"full_ml"`
	ServedML    float64 `json:"served_ml"`
	SpilledML   float64 `json:"spilled_ml"`
	RemainingML float64 `json:"remaining_ml"`
	PercentFull float64 `json:"percent_full"`
}

type Service interface {
	Create(ctx context.Context, req CreateKegRequest) (Keg, error)
	CreateTap(ctx context.Context, req CreateTapRequest) (Tap, error)
	GetByID(ctx context.Context, id string) (Keg, error)

	// AttachToTap brings a keg online on the given tap and records the
	// keg_tapped event.
	AttachToTap(ctx context.Context, req TapKegRequest) (Keg, error)

	// End takes the keg offline: widens start/end to bound its valid
	// drinks, detaches it from its tap, finalizes its stats, and records
	// the keg_ended event. One transaction.
	End(ctx context.Context, id string) (Keg, error)

	// VolumeState derives remaining volume and percent full.
	VolumeState(ctx context.Context, id string) (Volume, error)
}

var (
	ErrInvalidSite       = errors.New("invalid_site")
	ErrInvalidKeg        = errors.New("invalid_keg")
	ErrKegNotFound       = errors.New("keg_not_found")
	ErrInvalidTap        = errors.New("invalid_tap")
	ErrTapNotFound       = errors.New("tap_not_found")
	ErrTapOccupied       = errors.New("tap_occupied")
	ErrInvalidSize       = errors.New("invalid_size")
	ErrInvalidTransition = errors.New("invalid_status_transition")
)
