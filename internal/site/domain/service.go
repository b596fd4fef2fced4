package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Get(ctx context.Context) (Site, error)
	GetSettings(ctx context.Context) (Settings, error)

	// SessionTimeout reads the idle timeout from site settings at call
	// time; it is never cached on a session.
	SessionTimeout(ctx context.Context) (time.Duration, error)

	// Location resolves the site's configured IANA time zone.
	Location(ctx context.Context) (*time.Location, error)
}

var (
	ErrInvalidSite  = errors.New("invalid_site")
	ErrSiteNotFound = errors.New("site_not_found")
)
