package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SiteDefaults are the operational defaults applied to any site whose
// settings row does not override them.
type SiteDefaults struct {
	SessionTimeoutMinutes   uint   `mapstructure:"sessionTimeoutMinutes"`
	Timezone                string `mapstructure:"timezone"`
	VolumeDisplayUnits      string `mapstructure:"volumeDisplayUnits"`
	TemperatureDisplayUnits string `mapstructure:"temperatureDisplayUnits"`
	GuestName               string `mapstructure:"guestName"`
	Privacy                 string `mapstructure:"privacy"`
}

func DefaultSiteDefaults() SiteDefaults {
	return SiteDefaults{
		SessionTimeoutMinutes:   180,
		Timezone:                "UTC",
		VolumeDisplayUnits:      "imperial",
		TemperatureDisplayUnits: "f",
		GuestName:               "guest",
		Privacy:                 "public",
	}
}

// SiteDefaultsHolder serves the current defaults and hot-reloads them when
// the config file changes on disk.
type SiteDefaultsHolder struct {
	current atomic.Value // holds SiteDefaults
}

func NewSiteDefaultsHolder() (*SiteDefaultsHolder, error) {
	v := viper.New()

	v.SetConfigName("site")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/kegmon/config")
	v.AddConfigPath("/etc/kegmon")
	v.AddConfigPath(".")

	v.SetEnvPrefix("KEGMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSiteDefaults()
	v.SetDefault("site.sessionTimeoutMinutes", defaults.SessionTimeoutMinutes)
	v.SetDefault("site.timezone", defaults.Timezone)
	v.SetDefault("site.volumeDisplayUnits", defaults.VolumeDisplayUnits)
	v.SetDefault("site.temperatureDisplayUnits", defaults.TemperatureDisplayUnits)
	v.SetDefault("site.guestName", defaults.GuestName)
	v.SetDefault("site.privacy", defaults.Privacy)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg SiteDefaults
	if err := v.UnmarshalKey("site", &cfg); err != nil {
		return nil, err
	}
	if err := validateSiteDefaults(cfg); err != nil {
		return nil, err
	}

	holder := &SiteDefaultsHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SiteDefaults
		if err := v.UnmarshalKey("site", &updated); err != nil {
			log.Printf("[site-config] reload failed: %v", err)
			return
		}
		if err := validateSiteDefaults(updated); err != nil {
			log.Printf("[site-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[site-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *SiteDefaultsHolder) Get() SiteDefaults {
	return h.current.Load().(SiteDefaults)
}

// SessionTimeout returns the default idle timeout as a duration.
func (h *SiteDefaultsHolder) SessionTimeout() time.Duration {
	return time.Duration(h.Get().SessionTimeoutMinutes) * time.Minute
}

func validateSiteDefaults(cfg SiteDefaults) error {
	if cfg.SessionTimeoutMinutes == 0 {
		return errors.New("site.sessionTimeoutMinutes must be positive")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return errors.New("site.timezone is not a valid IANA zone")
	}
	return nil
}
