package server

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"resolvd/internal/metrics"
	"resolvd/internal/resolver"
	storage "resolvd/internal/storage/cache"
)

// Server - TCP-сервер резолвинга: одна строка с доменом на соединение,
// в ответ строка с IP.
type Server struct {
	addr     string
	cache    *storage.Cache
	resolver resolver.Resolver
	log      *zap.Logger
	clock    clock.Clock
	metrics  *metrics.Metrics

	delay        time.Duration
	acceptPoll   time.Duration
	maxLineLen   int
	readTimeout  time.Duration
	writeTimeout time.Duration
	errorReplies bool

	sem     *semaphore.Weighted // nil - без ограничения
	limiter *rate.Limiter       // nil - без ограничения
	group   singleflight.Group

	mu       sync.Mutex
	listener *net.TCPListener
	done     chan struct{} // закрывается, когда цикл accept и все обработчики завершились
	serveErr error

	running  atomic.Bool
	handlers sync.WaitGroup
}
