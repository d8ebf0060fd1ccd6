package resolver

import (
	"context"
	"net"
	"time"
)

// SystemOption настраивает System.
type SystemOption func(*System)

// WithNetResolver подменяет net.Resolver (по умолчанию net.DefaultResolver).
func WithNetResolver(r *net.Resolver) SystemOption {
	return func(s *System) {
		s.r = r
	}
}

// WithSystemTimeout ограничивает время одного запроса. 0 - без ограничения.
func WithSystemTimeout(timeout time.Duration) SystemOption {
	return func(s *System) {
		s.timeout = timeout
	}
}

// System - резолвер операционной системы. Возвращает первый IPv4-адрес,
// как gethostbyname.
type System struct {
	r       *net.Resolver
	timeout time.Duration
}

// NewSystem создаёт системный резолвер.
func NewSystem(opts ...SystemOption) *System {
	s := &System{r: net.DefaultResolver}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve разрешает domain через системный резолвер.
func (s *System) Resolve(ctx context.Context, domain string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ips, err := s.r.LookupIP(ctx, "ip4", domain)
	if err != nil {
		return "", resolutionError(domain, err)
	}
	if len(ips) == 0 {
		return "", resolutionError(domain, ErrNoAddress)
	}
	return ips[0].String(), nil
}
