// Package resolver превращает доменное имя в IP-адрес. Вызывается только
// на промахе кеша.
package resolver

import (
	"context"
	"errors"
	"fmt"
)

// Resolver разрешает домен в строковый IP.
type Resolver interface {
	Resolve(ctx context.Context, domain string) (string, error)
}

// Func позволяет использовать обычную функцию как Resolver.
type Func func(ctx context.Context, domain string) (string, error)

// Resolve вызывает f.
func (f Func) Resolve(ctx context.Context, domain string) (string, error) {
	return f(ctx, domain)
}

// ErrNoAddress - имя существует, но IPv4-адреса у него нет.
var ErrNoAddress = errors.New("no IPv4 address")

// ResolutionError - домен не разрешился: неизвестное имя, сбой сети, таймаут.
type ResolutionError struct {
	Domain string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Domain, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func resolutionError(domain string, err error) error {
	var re *ResolutionError
	if errors.As(err, &re) {
		return err
	}
	return &ResolutionError{Domain: domain, Err: err}
}
