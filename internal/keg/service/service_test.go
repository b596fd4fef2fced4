package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/clock"
	drinkdomain "github.com/draughtlab/kegmon/internal/drink/domain"
	eventsdomain "github.com/draughtlab/kegmon/internal/events/domain"
	eventsrepository "github.com/draughtlab/kegmon/internal/events/repository"
	eventsservice "github.com/draughtlab/kegmon/internal/events/service"
	"github.com/draughtlab/kegmon/internal/keg/domain"
	"github.com/draughtlab/kegmon/internal/keg/repository"
	"github.com/draughtlab/kegmon/internal/sitecontext"
	statsdomain "github.com/draughtlab/kegmon/internal/stats/domain"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeStats records completion calls; the real folding logic is covered in
// the stats package.
type fakeStats struct {
	completedKegs []snowflake.ID
}

func (f *fakeStats) ApplyDrink(ctx context.Context, tx *gorm.DB, drink *drinkdomain.Drink, force bool) error {
	return nil
}

func (f *fakeStats) RecomputeSession(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) error {
	return nil
}

func (f *fakeStats) RecomputeKeg(ctx context.Context, tx *gorm.DB, kegID snowflake.ID) error {
	return nil
}

func (f *fakeStats) RecomputeUser(ctx context.Context, tx *gorm.DB, userID snowflake.ID) error {
	return nil
}

func (f *fakeStats) RecomputeSystem(ctx context.Context, tx *gorm.DB) error { return nil }

func (f *fakeStats) RecomputeAll(ctx context.Context) error { return nil }

func (f *fakeStats) MarkKegCompleted(ctx context.Context, tx *gorm.DB, kegID snowflake.ID) error {
	f.completedKegs = append(f.completedKegs, kegID)
	return nil
}

func (f *fakeStats) MarkSessionCompleted(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) error {
	return nil
}

func (f *fakeStats) GetSystem(ctx context.Context) (statsdomain.Aggregate, error) {
	return statsdomain.Aggregate{}, nil
}

func (f *fakeStats) GetUser(ctx context.Context, userID snowflake.ID) (statsdomain.Aggregate, error) {
	return statsdomain.Aggregate{}, nil
}

func (f *fakeStats) GetKeg(ctx context.Context, kegID snowflake.ID) (statsdomain.Aggregate, error) {
	return statsdomain.Aggregate{}, nil
}

func (f *fakeStats) GetSession(ctx context.Context, sessionID snowflake.ID) (statsdomain.Aggregate, error) {
	return statsdomain.Aggregate{}, nil
}

func setup(t *testing.T) (*gorm.DB, *Service, *fakeStats, *snowflake.Node, *clock.FakeClock) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Keg{},
		&domain.Tap{},
		&drinkdomain.Drink{},
		&eventsdomain.SystemEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	fc := clock.NewFakeClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	stats := &fakeStats{}
	recorder := eventsservice.New(eventsservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  eventsrepository.Provide(),
	})
	svc := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fc,
		Repo:   repository.Provide(),
		Stats:  stats,
		Events: recorder,
	})
	return db, svc.(*Service), stats, node, fc
}

func TestTapAndEndLifecycle(t *testing.T) {
	db, svc, stats, node, fc := setup(t)
	siteID := node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)

	keg, err := svc.Create(ctx, domain.CreateKegRequest{SizeML: 5000, SpilledML: 200})
	if err != nil {
		t.Fatalf("create keg: %v", err)
	}
	if keg.Status != domain.StatusComingSoon {
		t.Errorf("new keg status = %s, want coming_soon", keg.Status)
	}

	tap, err := svc.CreateTap(ctx, domain.CreateTapRequest{Name: "main", MeterName: "flow0"})
	if err != nil {
		t.Fatalf("create tap: %v", err)
	}
	if tap.MLPerTick != domain.DefaultMLPerTick {
		t.Errorf("ml_per_tick = %v, want meter default", tap.MLPerTick)
	}

	keg, err = svc.AttachToTap(ctx, domain.TapKegRequest{KegID: keg.ID.String(), TapID: tap.ID.String()})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if keg.Status != domain.StatusOnline {
		t.Errorf("tapped keg status = %s, want online", keg.Status)
	}

	// Drinks before the recorded start and after the current clock; End
	// must widen the keg lifetime around both.
	early := keg.StartTime.Add(-time.Hour)
	late := keg.StartTime.Add(3 * time.Hour)
	for _, pour := range []struct {
		at  time.Time
		vol float64
	}{{early, 500}, {late, 1000}} {
		d := drinkdomain.Drink{
			ID: node.Generate(), SiteID: siteID, KegID: keg.ID,
			Time: pour.at, VolumeML: pour.vol, Ticks: 1, Status: drinkdomain.StatusValid,
		}
		if err := db.Create(&d).Error; err != nil {
			t.Fatalf("insert drink: %v", err)
		}
	}
	fc.Advance(time.Hour)

	ended, err := svc.End(ctx, keg.ID.String())
	if err != nil {
		t.Fatalf("end keg: %v", err)
	}
	if ended.Status != domain.StatusOffline {
		t.Errorf("ended status = %s, want offline", ended.Status)
	}
	if !ended.StartTime.Equal(early) {
		t.Errorf("start_time = %v, want widened to %v", ended.StartTime, early)
	}
	if !ended.EndTime.Equal(late) {
		t.Errorf("end_time = %v, want widened to %v", ended.EndTime, late)
	}

	var freedTap domain.Tap
	if err := db.First(&freedTap, "id = ?", tap.ID).Error; err != nil {
		t.Fatalf("reload tap: %v", err)
	}
	if freedTap.CurrentKegID != 0 {
		t.Errorf("tap still holds keg %v", freedTap.CurrentKegID)
	}

	if len(stats.completedKegs) != 1 || stats.completedKegs[0] != keg.ID {
		t.Errorf("stats completion calls = %v, want [%v]", stats.completedKegs, keg.ID)
	}

	var n int64
	db.Model(&eventsdomain.SystemEvent{}).Where("kind = ?", eventsdomain.KindKegEnded).Count(&n)
	if n != 1 {
		t.Errorf("keg_ended events = %d, want 1", n)
	}
}

func TestAttachRejectsOccupiedTap(t *testing.T) {
	_, svc, _, node, _ := setup(t)
	siteID := node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)

	tap, err := svc.CreateTap(ctx, domain.CreateTapRequest{Name: "main", MeterName: "flow0"})
	if err != nil {
		t.Fatalf("create tap: %v", err)
	}
	first, err := svc.Create(ctx, domain.CreateKegRequest{SizeML: 5000})
	if err != nil {
		t.Fatalf("create keg: %v", err)
	}
	if _, err := svc.AttachToTap(ctx, domain.TapKegRequest{KegID: first.ID.String(), TapID: tap.ID.String()}); err != nil {
		t.Fatalf("attach first keg: %v", err)
	}

	second, err := svc.Create(ctx, domain.CreateKegRequest{SizeML: 5000})
	if err != nil {
		t.Fatalf("create keg: %v", err)
	}
	_, err = svc.AttachToTap(ctx, domain.TapKegRequest{KegID: second.ID.String(), TapID: tap.ID.String()})
	if !errors.Is(err, domain.ErrTapOccupied) {
		t.Errorf("err = %v, want ErrTapOccupied", err)
	}
}

func TestEndRequiresOnlineKeg(t *testing.T) {
	_, svc, _, node, _ := setup(t)
	siteID := node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)

	keg, err := svc.Create(ctx, domain.CreateKegRequest{SizeML: 5000})
	if err != nil {
		t.Fatalf("create keg: %v", err)
	}
	_, err = svc.End(ctx, keg.ID.String())
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestVolumeState(t *testing.T) {
	db, svc, _, node, _ := setup(t)
	siteID := node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)

	keg, err := svc.Create(ctx, domain.CreateKegRequest{SizeML: 5000, SpilledML: 200})
	if err != nil {
		t.Fatalf("create keg: %v", err)
	}

	// One valid pour and one invalidated pour; only the valid one counts.
	for _, pour := range []struct {
		vol    float64
		status drinkdomain.Status
	}{{1500, drinkdomain.StatusValid}, {9999, drinkdomain.StatusInvalid}} {
		d := drinkdomain.Drink{
			ID: node.Generate(), SiteID: siteID, KegID: keg.ID,
			Time: time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC),
			VolumeML: pour.vol, Ticks: 1, Status: pour.status,
		}
		if err := db.Create(&d).Error; err != nil {
			t.Fatalf("insert drink: %v", err)
		}
	}

	vol, err := svc.VolumeState(ctx, keg.ID.String())
	if err != nil {
		t.Fatalf("volume state: %v", err)
	}
	if vol.ServedML != 1500 {
		t.Errorf("served = %v, want 1500", vol.ServedML)
	}
	if vol.RemainingML != 3300 {
		t.Errorf("remaining = %v, want 3300", vol.RemainingML)
	}
	if vol.PercentFull != 66 {
		t.Errorf("percent full = %v, want 66", vol.PercentFull)
	}
}
