package server

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"resolvd/internal/metrics"
	"resolvd/internal/resolver"
	storage "resolvd/internal/storage/cache"
)

const (
	DefaultLookupDelay   = 5 * time.Second
	DefaultAcceptPoll    = time.Second
	DefaultMaxLineLength = 1024
	DefaultReadTimeout   = 300 * time.Second
	DefaultWriteTimeout  = 10 * time.Second
)

// New создаёт сервер. Слушать он начинает только в Start.
func New(addr string, cache *storage.Cache, r resolver.Resolver, opts ...Option) *Server {
	s := &Server{
		addr:         addr,
		cache:        cache,
		resolver:     r,
		log:          zap.NewNop(),
		clock:        clock.New(),
		delay:        DefaultLookupDelay,
		acceptPoll:   DefaultAcceptPoll,
		maxLineLen:   DefaultMaxLineLength,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option - функциональная опция сервера.
type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock подменяет часы, по которым отсчитывается задержка ответа.
func WithClock(c clock.Clock) Option {
	return func(s *Server) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLookupDelay задаёт паузу после обращения к кешу. 0 - без паузы.
func WithLookupDelay(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithAcceptPoll задаёт, как часто цикл accept проверяет флаг работы.
func WithAcceptPoll(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.acceptPoll = d
		}
	}
}

func WithMaxLineLength(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLineLen = n
		}
	}
}

// WithReadTimeout ограничивает ожидание строки запроса. 0 - ждать сколько угодно.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.readTimeout = d
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.writeTimeout = d
		}
	}
}

// WithMaxConnections ограничивает число одновременно работающих обработчиков.
// Лишние соединения принимаются и ждут слота.
func WithMaxConnections(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithAcceptRate ограничивает темп приёма соединений; сверх лимита
// соединение сразу закрывается.
func WithAcceptRate(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithErrorReplies включает ответ "ERR <причина>" при неудачном резолвинге.
func WithErrorReplies(on bool) Option {
	return func(s *Server) {
		s.errorReplies = on
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}
