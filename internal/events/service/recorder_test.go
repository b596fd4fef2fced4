package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	drinkdomain "github.com/draughtlab/kegmon/internal/drink/domain"
	"github.com/draughtlab/kegmon/internal/events/domain"
	"github.com/draughtlab/kegmon/internal/events/repository"
	kegdomain "github.com/draughtlab/kegmon/internal/keg/domain"
	"github.com/draughtlab/kegmon/internal/sitecontext"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *Service, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.SystemEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return db, svc.(*Service), node
}

func countEvents(t *testing.T, db *gorm.DB, kind domain.Kind) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.SystemEvent{}).Where("kind = ?", kind).Count(&n).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return n
}

func TestProcessDrinkEmitsLifecycleEvents(t *testing.T) {
	db, svc, node := setup(t)
	siteID := node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)

	drink := &drinkdomain.Drink{
		ID:        node.Generate(),
		SiteID:    siteID,
		UserID:    node.Generate(),
		KegID:     node.Generate(),
		SessionID: node.Generate(),
		Time:      time.Date(2026, 8, 3, 19, 0, 0, 0, time.UTC),
		VolumeML:  500,
		Status:    drinkdomain.StatusValid,
	}
	if err := svc.ProcessDrink(ctx, db, drink); err != nil {
		t.Fatalf("process drink: %v", err)
	}

	for _, kind := range []domain.Kind{
		domain.KindKegTapped,
		domain.KindSessionStarted,
		domain.KindSessionJoined,
		domain.KindDrinkPoured,
	} {
		if n := countEvents(t, db, kind); n != 1 {
			t.Errorf("%s events = %d, want 1", kind, n)
		}
	}
}

func TestProcessDrinkIsIdempotent(t *testing.T) {
	db, svc, node := setup(t)
	siteID := node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)

	drink := &drinkdomain.Drink{
		ID:        node.Generate(),
		SiteID:    siteID,
		KegID:     node.Generate(),
		SessionID: node.Generate(),
		Time:      time.Date(2026, 8, 3, 19, 0, 0, 0, time.UTC),
		Status:    drinkdomain.StatusValid,
	}
	for i := 0; i < 3; i++ {
		if err := svc.ProcessDrink(ctx, db, drink); err != nil {
			t.Fatalf("process drink pass %d: %v", i, err)
		}
	}

	var total int64
	db.Model(&domain.SystemEvent{}).Count(&total)
	if total != 3 { // keg_tapped + session_started + drink_poured, once each
		t.Errorf("total events = %d, want 3", total)
	}
}

func TestSecondDrinkOnlyAddsNewKinds(t *testing.T) {
	db, svc, node := setup(t)
	siteID := node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)

	kegID := node.Generate()
	sessionID := node.Generate()
	base := time.Date(2026, 8, 3, 19, 0, 0, 0, time.UTC)

	first := &drinkdomain.Drink{
		ID: node.Generate(), SiteID: siteID, KegID: kegID, SessionID: sessionID,
		Time: base, Status: drinkdomain.StatusValid,
	}
	second := &drinkdomain.Drink{
		ID: node.Generate(), SiteID: siteID, KegID: kegID, SessionID: sessionID,
		UserID: node.Generate(), Time: base.Add(time.Minute), Status: drinkdomain.StatusValid,
	}
	if err := svc.ProcessDrink(ctx, db, first); err != nil {
		t.Fatalf("process first: %v", err)
	}
	if err := svc.ProcessDrink(ctx, db, second); err != nil {
		t.Fatalf("process second: %v", err)
	}

	if n := countEvents(t, db, domain.KindKegTapped); n != 1 {
		t.Errorf("keg_tapped = %d, want 1", n)
	}
	if n := countEvents(t, db, domain.KindSessionStarted); n != 1 {
		t.Errorf("session_started = %d, want 1", n)
	}
	if n := countEvents(t, db, domain.KindSessionJoined); n != 1 {
		t.Errorf("session_joined = %d, want 1", n)
	}
	if n := countEvents(t, db, domain.KindDrinkPoured); n != 2 {
		t.Errorf("drink_poured = %d, want 2", n)
	}
}

func TestProcessKegByStatus(t *testing.T) {
	db, svc, node := setup(t)
	siteID := node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)
	now := time.Date(2026, 8, 3, 19, 0, 0, 0, time.UTC)

	keg := &kegdomain.Keg{
		ID:        node.Generate(),
		SiteID:    siteID,
		Status:    kegdomain.StatusOnline,
		StartTime: now,
		EndTime:   now,
	}
	if err := svc.ProcessKeg(ctx, db, keg); err != nil {
		t.Fatalf("process online keg: %v", err)
	}
	if n := countEvents(t, db, domain.KindKegTapped); n != 1 {
		t.Errorf("keg_tapped = %d, want 1", n)
	}

	keg.Status = kegdomain.StatusOffline
	keg.EndTime = now.Add(time.Hour)
	if err := svc.ProcessKeg(ctx, db, keg); err != nil {
		t.Fatalf("process offline keg: %v", err)
	}
	if err := svc.ProcessKeg(ctx, db, keg); err != nil {
		t.Fatalf("repeat offline keg: %v", err)
	}
	if n := countEvents(t, db, domain.KindKegEnded); n != 1 {
		t.Errorf("keg_ended = %d, want 1", n)
	}
}
