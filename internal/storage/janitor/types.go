package janitor

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Checkpointer сохраняет кеш на диск.
type Checkpointer interface {
	Checkpoint() error
}

// CheckpointFunc позволяет передать функцию как Checkpointer.
type CheckpointFunc func() error

func (f CheckpointFunc) Checkpoint() error { return f() }

// Janitor - фоновое автосохранение кеша с заданным периодом.
type Janitor struct {
	target   Checkpointer
	interval time.Duration
	clock    clock.Clock
	log      *zap.Logger

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}
