package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"resolvd"
	"resolvd/internal/config"
)

const (
	lifecycleTimeout = 30 * time.Second
	stopMargin       = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the server without the menu until SIGINT or SIGTERM.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		return serve(cfg, log)
	},
}

func serve(cfg config.Config, log *zap.Logger) error {
	var d *resolvd.Daemon
	budget := stopBudget(cfg)
	app := newApp(cfg, log, fx.StopTimeout(budget), fx.Populate(&d))

	startCtx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	sig := <-app.Wait()
	log.Info("shutting down", zap.Any("signal", sig.Signal), zap.Int("exit_code", sig.ExitCode))

	if err := stopApp(app, d, budget, log); err != nil {
		return err
	}

	if sig.ExitCode != 0 {
		return fmt.Errorf("listener failed, exit code %d", sig.ExitCode)
	}
	return nil
}

func newApp(cfg config.Config, log *zap.Logger, opts ...fx.Option) *fx.App {
	return fx.New(append([]fx.Option{
		fx.Supply(cfg),
		fx.Supply(log),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		resolvd.Module,
		fx.Invoke(watchListener),
	}, opts...)...)
}

// stopBudget - сколько может занять остановка: самый медленный обработчик
// ждёт строку, задержку, резолвер и запись ответа.
func stopBudget(cfg config.Config) time.Duration {
	budget := cfg.AcceptPoll + cfg.LookupDelay + cfg.Resolver.Timeout + cfg.WriteTimeout + stopMargin
	budget += cfg.ReadTimeout
	if budget < lifecycleTimeout {
		budget = lifecycleTimeout
	}
	return budget
}

// stopApp останавливает приложение. Если fx не дождался хука (например,
// ReadTimeout выключен и клиент молчит), всё равно ждёт, пока демон
// дождётся обработчиков и сохранит кеш.
func stopApp(app *fx.App, d *resolvd.Daemon, timeout time.Duration, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := app.Stop(ctx)
	if err == nil || ctx.Err() == nil {
		return err
	}

	log.Warn("stop timed out, waiting for connections to drain before saving the cache",
		zap.Duration("timeout", timeout), zap.Error(err))
	return d.WaitStopped()
}

// watchListener завершает приложение, если цикл accept упал.
func watchListener(lc fx.Lifecycle, d *resolvd.Daemon, sd fx.Shutdowner, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := d.Wait(); err != nil {
					log.Error("listener stopped", zap.Error(err))
					sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
	})
}
