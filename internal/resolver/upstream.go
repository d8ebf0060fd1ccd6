package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

const defaultUpstreamTimeout = 3 * time.Second

// ErrNoUpstreams - Upstream создан без серверов.
var ErrNoUpstreams = errors.New("no upstream servers configured")

// UpstreamOption настраивает Upstream.
type UpstreamOption func(*Upstream)

// WithUpstreamTimeout задаёт таймаут запроса к одному серверу.
func WithUpstreamTimeout(timeout time.Duration) UpstreamOption {
	return func(u *Upstream) {
		u.client.Timeout = timeout
	}
}

// WithNet выбирает транспорт: "udp" (по умолчанию), "tcp" или "tcp-tls".
func WithNet(network string) UpstreamOption {
	return func(u *Upstream) {
		u.client.Net = network
	}
}

// Upstream спрашивает A-запись напрямую у DNS-серверов, по очереди,
// пока один не ответит.
type Upstream struct {
	client  *dns.Client
	servers []string
}

// NewUpstream создаёт резолвер. Сервер без порта получает :53.
func NewUpstream(servers []string, opts ...UpstreamOption) *Upstream {
	u := &Upstream{
		client: &dns.Client{
			Net:     "udp",
			Timeout: defaultUpstreamTimeout,
		},
	}

	for _, s := range servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		u.servers = append(u.servers, s)
	}

	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Resolve разрешает domain. IP-литерал возвращается как есть.
func (u *Upstream) Resolve(ctx context.Context, domain string) (string, error) {
	if ip := net.ParseIP(domain); ip != nil {
		return ip.String(), nil
	}

	if len(u.servers) == 0 {
		return "", resolutionError(domain, ErrNoUpstreams)
	}

	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	req.RecursionDesired = true

	var lastErr error
	for _, server := range u.servers {
		resp, _, err := u.client.ExchangeContext(ctx, req, server)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", server, err)
			continue
		}

		switch resp.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			// NXDOMAIN другой сервер не исправит
			return "", resolutionError(domain, fmt.Errorf("%s: %s", server, dns.RcodeToString[resp.Rcode]))
		default:
			lastErr = fmt.Errorf("%s: %s", server, dns.RcodeToString[resp.Rcode])
			continue
		}

		for _, rr := range resp.Answer {
			if a, ok := rr.(*dns.A); ok {
				return a.A.String(), nil
			}
		}
		return "", resolutionError(domain, ErrNoAddress)
	}

	return "", resolutionError(domain, lastErr)
}
