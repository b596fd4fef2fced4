package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/draughtlab/kegmon/internal/config"
	sitedomain "github.com/draughtlab/kegmon/internal/site/domain"
	"gorm.io/gorm"
)

// EnsureDefaultSite seeds the named site and its settings row so a fresh
// install is usable without any manual setup. Safe to run on every boot.
func EnsureDefaultSite(db *gorm.DB, name string, defaults config.SiteDefaults) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "default"
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		site, err := ensureSiteTx(ctx, tx, node, name)
		if err != nil {
			return err
		}
		return ensureSettingsTx(ctx, tx, node, site.ID, defaults)
	})
}

func ensureSiteTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string) (sitedomain.Site, error) {
	var site sitedomain.Site
	err := tx.WithContext(ctx).Where("name = ?", name).First(&site).Error
	if err == nil {
		return site, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return site, err
	}
	now := time.Now().UTC()
	site = sitedomain.Site{
		ID:        node.Generate(),
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&site).Error; err != nil {
		return site, err
	}
	return site, nil
}

func ensureSettingsTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, siteID snowflake.ID, defaults config.SiteDefaults) error {
	var settings sitedomain.Settings
	err := tx.WithContext(ctx).Where("site_id = ?", siteID).First(&settings).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	now := time.Now().UTC()
	settings = sitedomain.Settings{
		ID:                      node.Generate(),
		SiteID:                  siteID,
		SessionTimeoutMinutes:   defaults.SessionTimeoutMinutes,
		Timezone:                defaults.Timezone,
		VolumeDisplayUnits:      defaults.VolumeDisplayUnits,
		TemperatureDisplayUnits: defaults.TemperatureDisplayUnits,
		Privacy:                 defaults.Privacy,
		GuestName:               defaults.GuestName,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	return tx.WithContext(ctx).Create(&settings).Error
}
