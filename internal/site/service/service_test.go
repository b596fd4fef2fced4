package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/config"
	"github.com/draughtlab/kegmon/internal/site/domain"
	"github.com/draughtlab/kegmon/internal/site/repository"
	"github.com/draughtlab/kegmon/internal/sitecontext"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, domain.Service, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Site{}, &domain.Settings{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	holder, err := config.NewSiteDefaultsHolder()
	if err != nil {
		t.Fatalf("defaults holder: %v", err)
	}
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Repo:     repository.Provide(),
		Defaults: holder,
	})
	return db, svc, node
}

func TestGetSettingsFallsBackToDefaults(t *testing.T) {
	db, svc, node := setup(t)
	siteID := node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)

	site := domain.Site{ID: siteID, Name: "taproom", IsActive: true}
	if err := db.Create(&site).Error; err != nil {
		t.Fatalf("insert site: %v", err)
	}

	// No settings row at all: every field comes from the defaults.
	settings, err := svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	want := config.DefaultSiteDefaults()
	if settings.SessionTimeoutMinutes != want.SessionTimeoutMinutes {
		t.Errorf("timeout = %d, want %d", settings.SessionTimeoutMinutes, want.SessionTimeoutMinutes)
	}
	if settings.Timezone != want.Timezone {
		t.Errorf("timezone = %q, want %q", settings.Timezone, want.Timezone)
	}

	timeout, err := svc.SessionTimeout(ctx)
	if err != nil {
		t.Fatalf("session timeout: %v", err)
	}
	if timeout != time.Duration(want.SessionTimeoutMinutes)*time.Minute {
		t.Errorf("timeout duration = %v", timeout)
	}
}

func TestGetSettingsMergesPartialRow(t *testing.T) {
	db, svc, node := setup(t)
	siteID := node.Generate()
	ctx := sitecontext.WithSiteID(context.Background(), siteID)

	row := domain.Settings{
		ID:       node.Generate(),
		SiteID:   siteID,
		Timezone: "Europe/Berlin",
		// timeout left zero on purpose
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("insert settings: %v", err)
	}

	settings, err := svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q, want override", settings.Timezone)
	}
	if settings.SessionTimeoutMinutes != config.DefaultSiteDefaults().SessionTimeoutMinutes {
		t.Errorf("timeout = %d, want default", settings.SessionTimeoutMinutes)
	}

	loc, err := svc.Location(ctx)
	if err != nil {
		t.Skipf("zone database unavailable: %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Errorf("location = %v, want Europe/Berlin", loc)
	}
}

func TestGetRequiresSiteInContext(t *testing.T) {
	_, svc, _ := setup(t)
	if _, err := svc.Get(context.Background()); err != domain.ErrInvalidSite {
		t.Errorf("err = %v, want ErrInvalidSite", err)
	}
}
