// Package timemigrate repairs timestamps that were stamped UTC while
// actually holding local wall-clock readings. Conversion reinterprets the
// stored wall clock in the correct zone; it never shifts an already
// correct instant.
package timemigrate

import (
	"errors"
	"fmt"
	"time"
)

// ErrNonexistentTime marks a wall clock that never occurred in the target
// zone, i.e. it falls inside a daylight-saving gap.
var ErrNonexistentTime = errors.New("nonexistent_time")

// Converter reinterprets wall-clock fields from one zone into another.
type Converter struct {
	from *time.Location
	to   *time.Location
}

func NewConverter(from, to string) (*Converter, error) {
	fromLoc, err := time.LoadLocation(from)
	if err != nil {
		return nil, fmt.Errorf("load source zone %q: %w", from, err)
	}
	toLoc, err := time.LoadLocation(to)
	if err != nil {
		return nil, fmt.Errorf("load target zone %q: %w", to, err)
	}
	return &Converter{from: fromLoc, to: toLoc}, nil
}

// Inverse swaps source and target, undoing a prior conversion.
func (c *Converter) Inverse() *Converter {
	return &Converter{from: c.to, to: c.from}
}

// Convert takes t's wall clock as seen in the source zone and builds the
// same wall clock in the target zone, returning the result in UTC.
// time.Date silently normalizes clocks inside a DST gap, so the result is
// round-tripped against the input; a mismatch means the wall clock never
// existed and ErrNonexistentTime is returned.
func (c *Converter) Convert(t time.Time) (time.Time, error) {
	wall := t.In(c.from)
	y, mo, d := wall.Date()
	h, mi, s := wall.Clock()
	out := time.Date(y, mo, d, h, mi, s, wall.Nanosecond(), c.to)

	check := out.In(c.to)
	cy, cmo, cd := check.Date()
	ch, cmi, cs := check.Clock()
	if cy != y || cmo != mo || cd != d || ch != h || cmi != mi || cs != s {
		return time.Time{}, ErrNonexistentTime
	}
	return out.UTC(), nil
}
