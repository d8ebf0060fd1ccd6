package resolvd

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"resolvd/internal/config"
	"resolvd/internal/resolver"
)

// Module подключает демон к fx-приложению: ожидает config.Config
// (и, опционально, *zap.Logger и resolver.Resolver) и привязывает
// Start/Stop к жизненному циклу.
var Module = fx.Module("resolvd",
	fx.Provide(ProvideDaemon),
	fx.Invoke(registerLifecycle),
)

// ModuleInput - зависимости демона в fx.
type ModuleInput struct {
	fx.In
	Config   config.Config
	Logger   *zap.Logger       `optional:"true"`
	Resolver resolver.Resolver `optional:"true"` // иначе по resolver.mode из конфига
}

// ProvideDaemon создаёт демон из зависимостей fx.
func ProvideDaemon(input ModuleInput) (*Daemon, error) {
	opts := []Option{WithLogger(input.Logger)}
	if input.Resolver != nil {
		opts = append(opts, WithResolver(input.Resolver))
	}
	return New(input.Config, opts...)
}

func registerLifecycle(lc fx.Lifecycle, d *Daemon) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return d.Start()
		},
		OnStop: func(context.Context) error {
			return d.Stop()
		},
	})
}
