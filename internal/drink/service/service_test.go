package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/clock"
	"github.com/draughtlab/kegmon/internal/drink/domain"
	drinkrepository "github.com/draughtlab/kegmon/internal/drink/repository"
	eventsdomain "github.com/draughtlab/kegmon/internal/events/domain"
	eventsrepository "github.com/draughtlab/kegmon/internal/events/repository"
	eventsservice "github.com/draughtlab/kegmon/internal/events/service"
	kegdomain "github.com/draughtlab/kegmon/internal/keg/domain"
	kegrepository "github.com/draughtlab/kegmon/internal/keg/repository"
	sessiondomain "github.com/draughtlab/kegmon/internal/session/domain"
	sessionrepository "github.com/draughtlab/kegmon/internal/session/repository"
	sessionservice "github.com/draughtlab/kegmon/internal/session/service"
	sitedomain "github.com/draughtlab/kegmon/internal/site/domain"
	"github.com/draughtlab/kegmon/internal/sitecontext"
	statsdomain "github.com/draughtlab/kegmon/internal/stats/domain"
	statsrepository "github.com/draughtlab/kegmon/internal/stats/repository"
	statsservice "github.com/draughtlab/kegmon/internal/stats/service"
	pkgrepository "github.com/draughtlab/kegmon/pkg/repository"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeSiteService struct {
	timeout time.Duration
}

func (f fakeSiteService) Get(ctx context.Context) (sitedomain.Site, error) {
	return sitedomain.Site{}, nil
}

func (f fakeSiteService) GetSettings(ctx context.Context) (sitedomain.Settings, error) {
	return sitedomain.Settings{}, nil
}

func (f fakeSiteService) SessionTimeout(ctx context.Context) (time.Duration, error) {
	return f.timeout, nil
}

func (f fakeSiteService) Location(ctx context.Context) (*time.Location, error) {
	return time.UTC, nil
}

type harness struct {
	db    *gorm.DB
	svc   domain.Service
	kegs  kegdomain.Repository
	stats statsdomain.Service
	node  *snowflake.Node
	fc    *clock.FakeClock
}

// newHarness wires the full pour pipeline over in-memory sqlite: real
// assembler, real stats, real events.
func newHarness(t *testing.T) *harness {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Drink{},
		&kegdomain.Keg{},
		&kegdomain.Tap{},
		&sessiondomain.Session{},
		&sessiondomain.Chunk{},
		&sessiondomain.UserChunk{},
		&sessiondomain.KegChunk{},
		&statsdomain.SystemStats{},
		&statsdomain.UserStats{},
		&statsdomain.KegStats{},
		&statsdomain.SessionStats{},
		&eventsdomain.SystemEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()
	fc := clock.NewFakeClock(time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC))
	sites := fakeSiteService{timeout: time.Hour}
	drinkRepo := drinkrepository.Provide()

	stats := statsservice.New(statsservice.Params{
		DB:     db,
		Log:    log,
		GenID:  node,
		Repo:   statsrepository.Provide(),
		Drinks: drinkRepo,
		Sites:  sites,
	})
	assembler := sessionservice.New(sessionservice.Params{
		DB:     db,
		Log:    log,
		GenID:  node,
		Repo:   sessionrepository.Provide(),
		Drinks: drinkRepo,
		Sites:  sites,
		Stats:  stats,
	})
	recorder := eventsservice.New(eventsservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  eventsrepository.Provide(),
	})
	kegs := kegrepository.Provide()
	svc := New(Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fc,
		Repo:     drinkRepo,
		Store:    pkgrepository.ProvideStore[domain.Drink](db),
		Kegs:     kegs,
		Sessions: assembler,
		Stats:    stats,
		Events:   recorder,
	})
	return &harness{db: db, svc: svc, kegs: kegs, stats: stats, node: node, fc: fc}
}

func (h *harness) onlineKeg(t *testing.T, siteID snowflake.ID) *kegdomain.Keg {
	t.Helper()
	now := h.fc.Now()
	keg := &kegdomain.Keg{
		ID:        h.node.Generate(),
		SiteID:    siteID,
		SizeML:    19000,
		StartTime: now,
		EndTime:   now,
		Status:    kegdomain.StatusOnline,
	}
	if err := h.db.Create(keg).Error; err != nil {
		t.Fatalf("insert keg: %v", err)
	}
	return keg
}

func TestRecordRunsFullPipeline(t *testing.T) {
	h := newHarness(t)
	siteID := h.node.Generate()
	userID := h.node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)
	keg := h.onlineKeg(t, siteID)

	drink, err := h.svc.Record(ctx, domain.RecordPourRequest{
		KegID:    keg.ID.String(),
		UserID:   userID.String(),
		Ticks:    1200,
		VolumeML: 550,
		Time:     h.fc.Now(),
	})
	if err != nil {
		t.Fatalf("record pour: %v", err)
	}
	if drink.SessionID == 0 {
		t.Fatalf("drink was not assigned a session")
	}
	if drink.VolumeML != 550 {
		t.Errorf("volume_ml = %v, want 550", drink.VolumeML)
	}

	var session sessiondomain.Session
	if err := h.db.First(&session, "id = ?", drink.SessionID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.VolumeML != 550 {
		t.Errorf("session volume = %v, want 550", session.VolumeML)
	}

	system, err := h.stats.GetSystem(ctx)
	if err != nil {
		t.Fatalf("system stats: %v", err)
	}
	if system.TotalPours != 1 || system.TotalVolumeML != 550 {
		t.Errorf("system stats = %d / %v, want 1 / 550", system.TotalPours, system.TotalVolumeML)
	}

	var kinds []string
	h.db.Model(&eventsdomain.SystemEvent{}).Order("id asc").Pluck("kind", &kinds)
	if len(kinds) != 4 {
		t.Fatalf("events = %v, want keg_tapped, session_started, session_joined, drink_poured", kinds)
	}
}

func TestRecordDerivesVolumeFromTicks(t *testing.T) {
	h := newHarness(t)
	siteID := h.node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)
	keg := h.onlineKeg(t, siteID)

	tap := &kegdomain.Tap{
		ID:           h.node.Generate(),
		SiteID:       siteID,
		Name:         "main",
		MeterName:    "flow0",
		MLPerTick:    0.5,
		CurrentKegID: keg.ID,
	}
	if err := h.db.Create(tap).Error; err != nil {
		t.Fatalf("insert tap: %v", err)
	}

	drink, err := h.svc.Record(ctx, domain.RecordPourRequest{
		KegID: keg.ID.String(),
		Ticks: 1000,
		Time:  h.fc.Now(),
	})
	if err != nil {
		t.Fatalf("record pour: %v", err)
	}
	if drink.VolumeML != 500 {
		t.Errorf("derived volume = %v, want 500 (1000 ticks at 0.5 ml)", drink.VolumeML)
	}
}

func TestRecordRejectsOfflineKeg(t *testing.T) {
	h := newHarness(t)
	siteID := h.node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)

	keg := h.onlineKeg(t, siteID)
	if err := h.db.Model(keg).Update("status", kegdomain.StatusOffline).Error; err != nil {
		t.Fatalf("take keg offline: %v", err)
	}

	_, err := h.svc.Record(ctx, domain.RecordPourRequest{
		KegID: keg.ID.String(),
		Ticks: 100,
		Time:  h.fc.Now(),
	})
	if !errors.Is(err, domain.ErrKegNotOnline) {
		t.Errorf("err = %v, want ErrKegNotOnline", err)
	}

	// A failed pipeline leaves nothing behind.
	var drinks int64
	h.db.Model(&domain.Drink{}).Count(&drinks)
	if drinks != 0 {
		t.Errorf("rejected pour left %d drink rows", drinks)
	}
}

func TestSetStatusRepairsDerivedState(t *testing.T) {
	h := newHarness(t)
	siteID := h.node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)
	keg := h.onlineKeg(t, siteID)

	first, err := h.svc.Record(ctx, domain.RecordPourRequest{
		KegID: keg.ID.String(), Ticks: 1, VolumeML: 600, Time: h.fc.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	h.fc.Advance(5 * time.Minute)
	second, err := h.svc.Record(ctx, domain.RecordPourRequest{
		KegID: keg.ID.String(), Ticks: 1, VolumeML: 400, Time: h.fc.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("pours landed in different sessions")
	}

	corrected, err := h.svc.SetStatus(ctx, second.ID.String(), domain.StatusInvalid)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if corrected.Status != domain.StatusInvalid {
		t.Errorf("status = %s, want invalid", corrected.Status)
	}

	var session sessiondomain.Session
	if err := h.db.First(&session, "id = ?", first.SessionID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.VolumeML != 600 {
		t.Errorf("session volume after invalidation = %v, want 600", session.VolumeML)
	}

	system, err := h.stats.GetSystem(ctx)
	if err != nil {
		t.Fatalf("system stats: %v", err)
	}
	if system.TotalPours != 1 || system.TotalVolumeML != 600 {
		t.Errorf("system stats = %d / %v, want 1 / 600", system.TotalPours, system.TotalVolumeML)
	}

	served, err := h.kegs.ServedVolume(ctx, h.db, keg.ID)
	if err != nil {
		t.Fatalf("served volume: %v", err)
	}
	if served != 600 {
		t.Errorf("served = %v, want 600", served)
	}
}

func TestAdjustVolumeConservesTicks(t *testing.T) {
	h := newHarness(t)
	siteID := h.node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)
	keg := h.onlineKeg(t, siteID)

	drink, err := h.svc.Record(ctx, domain.RecordPourRequest{
		KegID: keg.ID.String(), Ticks: 1234, VolumeML: 600, Time: h.fc.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	adjusted, err := h.svc.AdjustVolume(ctx, drink.ID.String(), 450)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if adjusted.VolumeML != 450 {
		t.Errorf("volume = %v, want 450", adjusted.VolumeML)
	}
	if adjusted.Ticks != 1234 {
		t.Errorf("ticks changed to %d; raw meter data is immutable", adjusted.Ticks)
	}

	var session sessiondomain.Session
	if err := h.db.First(&session, "id = ?", drink.SessionID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.VolumeML != 450 {
		t.Errorf("session volume = %v, want 450", session.VolumeML)
	}
}

func TestGuestPipelineSkipsUserStats(t *testing.T) {
	h := newHarness(t)
	siteID := h.node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)
	keg := h.onlineKeg(t, siteID)

	drink, err := h.svc.Record(ctx, domain.RecordPourRequest{
		KegID: keg.ID.String(), Ticks: 1, VolumeML: 500, Time: h.fc.Now(),
	})
	if err != nil {
		t.Fatalf("record guest pour: %v", err)
	}

	// A correction replays stats through the same guards.
	if _, err := h.svc.AdjustVolume(ctx, drink.ID.String(), 300); err != nil {
		t.Fatalf("adjust guest pour: %v", err)
	}

	var rows int64
	h.db.Model(&statsdomain.UserStats{}).Count(&rows)
	if rows != 0 {
		t.Errorf("guest pipeline created %d user stats row(s)", rows)
	}

	system, err := h.stats.GetSystem(ctx)
	if err != nil {
		t.Fatalf("system stats: %v", err)
	}
	if system.GuestVolumeML != 300 {
		t.Errorf("guest volume = %v, want 300", system.GuestVolumeML)
	}
}
