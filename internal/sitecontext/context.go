package sitecontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// SiteContextKey is the context key for the active site ID. Every domain
// call is scoped to exactly one site; there is no process-wide default.
type SiteContextKey struct{}

// WithSiteID stores the site ID in the context.
func WithSiteID(ctx context.Context, siteID snowflake.ID) context.Context {
	return context.WithValue(ctx, SiteContextKey{}, siteID)
}

// SiteIDFromContext returns the site ID from context, if set.
func SiteIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	switch typed := ctx.Value(SiteContextKey{}).(type) {
	case snowflake.ID:
		return typed, true
	case int64:
		return snowflake.ID(typed), true
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}
