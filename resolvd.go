// Package resolvd - кеширующий TCP-резолвер доменных имён.
//
// Клиент присылает строку с доменом, сервер отвечает IP-адресом и закрывает
// соединение. Ответы кешируются в памяти, кеш сохраняется в JSON-файл при
// остановке и загружается при запуске.
//
//	d, err := resolvd.New(config.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := d.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Stop()
package resolvd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"resolvd/internal/config"
	"resolvd/internal/logger"
	"resolvd/internal/metrics"
	"resolvd/internal/persistence/AOF"
	"resolvd/internal/resolver"
	"resolvd/internal/server"
	storage "resolvd/internal/storage/cache"
	"resolvd/internal/storage/janitor"
)

const metricsShutdownTimeout = 5 * time.Second

// Daemon владеет кешем, сервером и всем, что сохраняет кеш на диск.
type Daemon struct {
	cfg      config.Config
	log      *zap.Logger
	clock    clock.Clock
	resolver resolver.Resolver

	cache   *storage.Cache
	metrics *metrics.Metrics
	srv     *server.Server
	janitor *janitor.Janitor

	mu          sync.Mutex // Start/Stop
	running     bool
	metricsSrv  *http.Server
	metricsAddr net.Addr

	saveMu  sync.Mutex // сохранение и журнал
	journal *AOF.AOFPersister

	smu     sync.Mutex    // stopped, stopErr
	stopped chan struct{} // закрывается, когда Stop сохранил кеш
	stopErr error
}

// Option - функциональная опция демона.
type Option func(*Daemon)

func WithLogger(l *zap.Logger) Option {
	return func(d *Daemon) {
		if l != nil {
			d.log = l
		}
	}
}

// WithResolver подменяет резолвер, выбранный по конфигу.
func WithResolver(r resolver.Resolver) Option {
	return func(d *Daemon) {
		d.resolver = r
	}
}

// WithClock подменяет часы для задержки ответа и автосохранения.
func WithClock(c clock.Clock) Option {
	return func(d *Daemon) {
		if c != nil {
			d.clock = c
		}
	}
}

// New собирает демон по конфигу. Ничего не открывает и не слушает.
func New(cfg config.Config, opts ...Option) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	d := &Daemon{
		cfg:   cfg,
		log:   zap.NewNop(),
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.resolver == nil {
		d.resolver = newResolver(cfg.Resolver)
	}

	d.cache = storage.New(nil)
	d.metrics = metrics.New(func() float64 { return float64(d.cache.Len()) })

	d.srv = server.New(cfg.Listen, d.cache, d.resolver,
		server.WithLogger(logger.Named(d.log, "server")),
		server.WithClock(d.clock),
		server.WithLookupDelay(cfg.LookupDelay),
		server.WithAcceptPoll(cfg.AcceptPoll),
		server.WithMaxLineLength(cfg.MaxLineLength),
		server.WithReadTimeout(cfg.ReadTimeout),
		server.WithWriteTimeout(cfg.WriteTimeout),
		server.WithMaxConnections(cfg.MaxConnections),
		server.WithAcceptRate(cfg.AcceptRate, cfg.AcceptBurst),
		server.WithErrorReplies(cfg.ErrorReplies),
		server.WithMetrics(d.metrics),
	)

	d.janitor = janitor.New(janitor.CheckpointFunc(d.checkpoint), cfg.SaveInterval,
		janitor.WithClock(d.clock),
		janitor.WithLogger(logger.Named(d.log, "janitor")),
	)

	d.log = logger.Named(d.log, "daemon")
	return d, nil
}

func newResolver(rc config.ResolverConfig) resolver.Resolver {
	switch rc.Mode {
	case config.ResolverUpstream:
		return resolver.NewUpstream(rc.Upstreams, resolver.WithUpstreamTimeout(rc.Timeout))
	default:
		return resolver.NewSystem(resolver.WithSystemTimeout(rc.Timeout))
	}
}

// Start загружает кеш с диска, докатывает журнал и начинает принимать
// соединения. Битый файл кеша или занятый адрес - ошибка, демон остаётся
// остановленным.
func (d *Daemon) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return ErrAlreadyRunning
	}

	if err := d.cache.LoadFromFile(d.cfg.CacheFile); err != nil {
		return fmt.Errorf("load cache: %w", err)
	}
	d.log.Info("cache loaded", zap.String("file", d.cfg.CacheFile), zap.Int64("entries", d.cache.Len()))

	if err := d.openJournal(); err != nil {
		return err
	}

	if err := d.srv.Start(); err != nil {
		return multierr.Append(err, d.closeJournal())
	}

	if err := d.startMetrics(); err != nil {
		d.srv.Shutdown()
		return multierr.Append(err, d.closeJournal())
	}

	d.smu.Lock()
	d.stopped = make(chan struct{})
	d.stopErr = nil
	d.smu.Unlock()

	d.janitor.Start()
	d.running = true

	d.log.Info("server started", zap.Stringer("addr", d.srv.Addr()))
	return nil
}

// openJournal докатывает записи, сделанные после последнего снапшота,
// и подключает журнал к кешу.
func (d *Daemon) openJournal() error {
	if d.cfg.JournalDir == "" {
		return nil
	}

	journal, err := AOF.NewPersister(d.cfg.JournalDir)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	result, err := journal.Read(func(cmd, key, value string) {
		if cmd == "SET" {
			d.cache.Insert(key, value)
		}
	})
	if err != nil {
		journal.Close()
		return fmt.Errorf("replay journal: %w", err)
	}

	fields := []zap.Field{
		zap.String("path", journal.Path()),
		zap.Int("entries", result.ValidEntries),
	}
	if result.Truncated {
		fields = append(fields,
			zap.Int("corrupt", result.CorruptEntries),
			zap.Int64("truncated_at", result.TruncatedAt),
			zap.String("reason", result.Reason),
		)
		d.log.Warn("journal tail was corrupt and has been truncated", fields...)
	} else {
		d.log.Info("journal replayed", fields...)
	}

	d.saveMu.Lock()
	d.journal = journal
	d.saveMu.Unlock()
	d.cache.SetPersistence(journal)
	return nil
}

func (d *Daemon) closeJournal() error {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	if d.journal == nil {
		return nil
	}
	d.cache.SetPersistence(nil)
	err := d.journal.Close()
	d.journal = nil
	return err
}

func (d *Daemon) startMetrics() error {
	if d.cfg.MetricsAddr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", d.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", d.metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	d.metricsSrv = srv
	d.metricsAddr = ln.Addr()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.log.Error("metrics server failed", zap.Error(err))
		}
	}()
	d.log.Info("metrics listening", zap.Stringer("addr", ln.Addr()))
	return nil
}

// Stop останавливает приём соединений, дожидается всех начатых
// обработчиков и только потом сохраняет кеш. На остановленном демоне
// ничего не делает и ничего не пишет на диск.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.janitor.Stop()
	d.srv.Shutdown()
	d.log.Info("connections drained")

	var err error
	err = multierr.Append(err, d.checkpoint())
	err = multierr.Append(err, d.closeJournal())

	if d.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		err = multierr.Append(err, d.metricsSrv.Shutdown(ctx))
		cancel()
		d.metricsSrv = nil
		d.metricsAddr = nil
	}

	d.running = false

	d.smu.Lock()
	d.stopErr = err
	close(d.stopped)
	d.smu.Unlock()

	if err != nil {
		d.log.Error("server stopped with errors", zap.Error(err))
		return err
	}
	d.log.Info("server stopped", zap.String("file", d.cfg.CacheFile), zap.Int64("entries", d.cache.Len()))
	return nil
}

// Checkpoint сохраняет снапшот кеша и, если включён журнал, обрезает его.
// Работает только на запущенном демоне, иначе ErrNotRunning: до Start
// кеш в памяти пуст, после Stop он уже сохранён.
func (d *Daemon) Checkpoint() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return ErrNotRunning
	}
	return d.checkpoint()
}

// WaitStopped ждёт, пока начатый Stop дождётся обработчиков и сохранит
// кеш, и возвращает его ошибку. Если демон ни разу не запускался, сразу
// возвращает nil.
func (d *Daemon) WaitStopped() error {
	d.smu.Lock()
	stopped := d.stopped
	d.smu.Unlock()

	if stopped == nil {
		return nil
	}
	<-stopped

	d.smu.Lock()
	defer d.smu.Unlock()
	return d.stopErr
}

// checkpoint вызывается из Stop и janitor, d.mu не берёт.
func (d *Daemon) checkpoint() error {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	save := func() error {
		if err := d.cache.SaveToFile(d.cfg.CacheFile); err != nil {
			return fmt.Errorf("save cache: %w", err)
		}
		return nil
	}

	if d.journal == nil {
		return save()
	}
	if err := d.journal.Checkpoint(save); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// Wait блокируется, пока текущий запуск сервера не завершится, и
// возвращает фатальную ошибку цикла accept.
func (d *Daemon) Wait() error {
	return d.srv.Wait()
}

// Running сообщает, запущен ли демон.
func (d *Daemon) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Addr - адрес, на котором слушает сервер, или nil.
func (d *Daemon) Addr() net.Addr {
	return d.srv.Addr()
}

// MetricsAddr - адрес HTTP-эндпоинта метрик, или nil если он выключен.
func (d *Daemon) MetricsAddr() net.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metricsAddr
}

func (d *Daemon) Lookup(domain string) (string, bool) {
	return d.cache.Lookup(domain)
}

func (d *Daemon) Len() int64 {
	return d.cache.Len()
}

// Config возвращает конфиг, с которым создан демон.
func (d *Daemon) Config() config.Config {
	return d.cfg
}
