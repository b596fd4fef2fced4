package domain

import "testing"

func TestKegVolumeBookkeeping(t *testing.T) {
	keg := Keg{SizeML: 5000, SpilledML: 200}

	if got := keg.RemainingVolume(1500); got != 3300 {
		t.Errorf("remaining = %v, want 3300", got)
	}
	if got := keg.PercentFull(1500); got != 66 {
		t.Errorf("percent full = %v, want 66", got)
	}
}

func TestPercentFullClamps(t *testing.T) {
	keg := Keg{SizeML: 5000}

	// Over-pour beyond the nominal size floors at zero.
	if got := keg.PercentFull(9000); got != 0 {
		t.Errorf("over-poured percent = %v, want 0", got)
	}
	// Negative served volume cannot report above full.
	if got := keg.PercentFull(-100); got != 100 {
		t.Errorf("percent = %v, want 100", got)
	}
	// Degenerate size never divides by zero.
	zero := Keg{SizeML: 0}
	if got := zero.PercentFull(0); got != 0 {
		t.Errorf("zero-size percent = %v, want 0", got)
	}
}

func TestStatusMachineIsOneWay(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusComingSoon, StatusOnline, true},
		{StatusOnline, StatusOffline, true},
		{StatusComingSoon, StatusOffline, false},
		{StatusOnline, StatusComingSoon, false},
		{StatusOffline, StatusOnline, false},
		{StatusOffline, StatusComingSoon, false},
	}
	for _, c := range cases {
		keg := Keg{Status: c.from}
		if got := keg.CanTransition(c.to); got != c.ok {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}
