package domain

import (
	"sort"
	"time"

	drinkdomain "github.com/draughtlab/kegmon/internal/drink/domain"
)

// GuestKey is the drinker key used for unauthenticated pours.
const GuestKey = "guest"

// Aggregate is the incremental stats blob shared by all four scopes. It is
// a pure fold over drinks: Fold(prev, drink) never consults the database,
// so the same function serves the hot path and full recomputes.
type Aggregate struct {
	TotalVolumeML   float64            `json:"total_volume_ml"`
	TotalPours      int64              `json:"total_pours"`
	AverageVolumeML float64            `json:"average_volume_ml"`
	LargestPourML   float64            `json:"largest_pour_ml"`
	LargestPourID   string             `json:"largest_pour_id,omitempty"`
	FirstPourTime   *time.Time         `json:"first_pour_time,omitempty"`
	LastPourTime    *time.Time         `json:"last_pour_time,omitempty"`
	GuestVolumeML   float64            `json:"guest_volume_ml"`
	GuestPours      int64              `json:"guest_pours"`
	VolumeByDrinker map[string]float64 `json:"volume_by_drinker,omitempty"`
	VolumeByWeekday map[string]float64 `json:"volume_by_weekday,omitempty"`
}

// Fold absorbs one counted drink. Weekday bucketing uses the site's local
// zone so the breakdown matches what drinkers saw on the wall clock.
func (a *Aggregate) Fold(d *drinkdomain.Drink, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}

	a.TotalVolumeML += d.VolumeML
	a.TotalPours++
	a.AverageVolumeML = a.TotalVolumeML / float64(a.TotalPours)

	if a.LargestPourID == "" || d.VolumeML > a.LargestPourML {
		a.LargestPourML = d.VolumeML
		a.LargestPourID = d.ID.String()
	}

	t := d.Time
	if a.FirstPourTime == nil || t.Before(*a.FirstPourTime) {
		first := t
		a.FirstPourTime = &first
	}
	if a.LastPourTime == nil || t.After(*a.LastPourTime) {
		last := t
		a.LastPourTime = &last
	}

	key := GuestKey
	if d.IsGuest() {
		a.GuestVolumeML += d.VolumeML
		a.GuestPours++
	} else {
		key = d.UserID.String()
	}
	if a.VolumeByDrinker == nil {
		a.VolumeByDrinker = make(map[string]float64)
	}
	a.VolumeByDrinker[key] += d.VolumeML

	if a.VolumeByWeekday == nil {
		a.VolumeByWeekday = make(map[string]float64)
	}
	a.VolumeByWeekday[t.In(loc).Weekday().String()] += d.VolumeML
}

// DrinkerVolume is one leaderboard entry.
type DrinkerVolume struct {
	Drinker  string  `json:"drinker"`
	VolumeML float64 `json:"volume_ml"`
}

// TopDrinkers ranks drinkers by volume, largest first, ties broken by key
// for a stable order. n <= 0 returns everyone.
func (a Aggregate) TopDrinkers(n int) []DrinkerVolume {
	ranked := make([]DrinkerVolume, 0, len(a.VolumeByDrinker))
	for drinker, vol := range a.VolumeByDrinker {
		ranked = append(ranked, DrinkerVolume{Drinker: drinker, VolumeML: vol})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].VolumeML != ranked[j].VolumeML {
			return ranked[i].VolumeML > ranked[j].VolumeML
		}
		return ranked[i].Drinker < ranked[j].Drinker
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
