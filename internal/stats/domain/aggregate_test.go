package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	drinkdomain "github.com/draughtlab/kegmon/internal/drink/domain"
)

func drink(id, user snowflake.ID, at time.Time, vol float64) *drinkdomain.Drink {
	return &drinkdomain.Drink{
		ID:       id,
		UserID:   user,
		Time:     at,
		VolumeML: vol,
		Status:   drinkdomain.StatusValid,
	}
}

func TestAggregateFold(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	alice := node.Generate()
	base := time.Date(2026, 8, 3, 19, 0, 0, 0, time.UTC) // a Monday

	var agg Aggregate
	d1 := drink(node.Generate(), alice, base, 500)
	d2 := drink(node.Generate(), 0, base.Add(time.Minute), 700)
	d3 := drink(node.Generate(), alice, base.Add(2*time.Minute), 300)
	agg.Fold(d1, time.UTC)
	agg.Fold(d2, time.UTC)
	agg.Fold(d3, time.UTC)

	if agg.TotalPours != 3 {
		t.Errorf("total_pours = %d, want 3", agg.TotalPours)
	}
	if agg.TotalVolumeML != 1500 {
		t.Errorf("total_volume_ml = %v, want 1500", agg.TotalVolumeML)
	}
	if agg.AverageVolumeML != 500 {
		t.Errorf("average_volume_ml = %v, want 500", agg.AverageVolumeML)
	}
	if agg.LargestPourML != 700 || agg.LargestPourID != d2.ID.String() {
		t.Errorf("largest pour = %v (%s), want 700 (%s)", agg.LargestPourML, agg.LargestPourID, d2.ID)
	}
	if agg.FirstPourTime == nil || !agg.FirstPourTime.Equal(base) {
		t.Errorf("first_pour_time = %v, want %v", agg.FirstPourTime, base)
	}
	if agg.LastPourTime == nil || !agg.LastPourTime.Equal(d3.Time) {
		t.Errorf("last_pour_time = %v, want %v", agg.LastPourTime, d3.Time)
	}
	if agg.GuestVolumeML != 700 || agg.GuestPours != 1 {
		t.Errorf("guest volume/pours = %v/%d, want 700/1", agg.GuestVolumeML, agg.GuestPours)
	}
	if agg.VolumeByWeekday["Monday"] != 1500 {
		t.Errorf("monday volume = %v, want 1500", agg.VolumeByWeekday["Monday"])
	}
}

func TestAggregateWeekdayUsesLocalZone(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("zone database unavailable: %v", err)
	}

	// 02:00 UTC Saturday is still Friday evening on the west coast.
	at := time.Date(2026, 8, 8, 2, 0, 0, 0, time.UTC)

	var agg Aggregate
	agg.Fold(drink(node.Generate(), 0, at, 100), la)
	if agg.VolumeByWeekday["Friday"] != 100 {
		t.Errorf("weekday buckets = %v, want Friday=100", agg.VolumeByWeekday)
	}
}

func TestTopDrinkersRanking(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	alice := node.Generate()
	bob := node.Generate()
	base := time.Date(2026, 8, 3, 19, 0, 0, 0, time.UTC)

	var agg Aggregate
	agg.Fold(drink(node.Generate(), alice, base, 300), time.UTC)
	agg.Fold(drink(node.Generate(), bob, base, 900), time.UTC)
	agg.Fold(drink(node.Generate(), 0, base, 100), time.UTC)

	ranked := agg.TopDrinkers(0)
	if len(ranked) != 3 {
		t.Fatalf("got %d entries, want 3", len(ranked))
	}
	if ranked[0].Drinker != bob.String() || ranked[0].VolumeML != 900 {
		t.Errorf("first = %+v, want bob at 900", ranked[0])
	}
	if ranked[2].Drinker != GuestKey {
		t.Errorf("last = %+v, want guest", ranked[2])
	}

	top := agg.TopDrinkers(1)
	if len(top) != 1 || top[0].Drinker != bob.String() {
		t.Errorf("top 1 = %+v, want bob", top)
	}
}
