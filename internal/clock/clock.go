package clock

import "time"

// Clock abstracts time.Now so the session assembler and tests can share a
// deterministic source.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func NewSystemClock() Clock { return systemClock{} }
