package janitor

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// New создаёт janitor. interval <= 0 - Start ничего не запускает.
func New(target Checkpointer, interval time.Duration, opts ...Option) *Janitor {
	j := &Janitor{
		target:   target,
		interval: interval,
		clock:    clock.New(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

type Option func(*Janitor)

func WithClock(c clock.Clock) Option {
	return func(j *Janitor) {
		if c != nil {
			j.clock = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(j *Janitor) {
		if l != nil {
			j.log = l
		}
	}
}
