package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock reports the current time. Billing code takes it as a dependency so
// due dates and schedules can be exercised deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func New() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(New),
)
