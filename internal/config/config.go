// Package config - настройки resolvd: значения по умолчанию, YAML-файл,
// проверка.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	ResolverSystem   = "system"
	ResolverUpstream = "upstream"
)

// Config - все настройки сервера.
type Config struct {
	// Listen - адрес TCP-сервера.
	Listen string `yaml:"listen"`

	// CacheFile - JSON-снапшот кеша (domain → IP).
	CacheFile string `yaml:"cache_file"`

	// JournalDir - каталог журнала вставок. Пусто - журнал выключен.
	JournalDir string `yaml:"journal_dir"`

	// LookupDelay - искусственная пауза после поиска в кеше (hit и miss).
	LookupDelay time.Duration `yaml:"lookup_delay"`

	// AcceptPoll - таймаут accept, с которым цикл проверяет флаг работы.
	AcceptPoll time.Duration `yaml:"accept_poll"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 0 - без ограничения
	WriteTimeout time.Duration `yaml:"write_timeout"` // 0 - без ограничения

	// MaxLineLength - максимальная длина строки запроса без \n.
	MaxLineLength int `yaml:"max_line_length"`

	// MaxConnections - сколько обработчиков работают одновременно (0 = без лимита).
	// Остальные соединения ждут в очереди.
	MaxConnections int `yaml:"max_connections"`

	// AcceptRate - соединений в секунду (0 = без лимита), AcceptBurst - всплеск.
	AcceptRate  float64 `yaml:"accept_rate"`
	AcceptBurst int     `yaml:"accept_burst"`

	// ErrorReplies - при ошибке резолва отвечать "ERR <причина>\n"
	// вместо молчаливого закрытия.
	ErrorReplies bool `yaml:"error_replies"`

	// SaveInterval - период автосохранения кеша (0 = только при остановке).
	SaveInterval time.Duration `yaml:"save_interval"`

	// MetricsAddr - адрес HTTP /metrics. Пусто - метрики не публикуются.
	MetricsAddr string `yaml:"metrics_addr"`

	Resolver ResolverConfig `yaml:"resolver"`
	Log      LogConfig      `yaml:"log"`
}

// ResolverConfig - откуда брать адреса на промахе.
type ResolverConfig struct {
	Mode      string        `yaml:"mode"` // system | upstream
	Upstreams []string      `yaml:"upstreams"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LogConfig - уровень и формат логов.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
}

// Default возвращает настройки, совпадающие с поведением оригинального сервера.
func Default() Config {
	return Config{
		Listen:        ":12345",
		CacheFile:     "cache.txt",
		LookupDelay:   5 * time.Second,
		AcceptPoll:    time.Second,
		ReadTimeout:   300 * time.Second,
		WriteTimeout:  10 * time.Second,
		MaxLineLength: 1024,
		Resolver: ResolverConfig{
			Mode:    ResolverSystem,
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load читает YAML поверх Default(). Пустой path - только значения по умолчанию.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var err error

	if c.Listen == "" {
		err = multierr.Append(err, errors.New("listen is empty"))
	}
	if c.CacheFile == "" {
		err = multierr.Append(err, errors.New("cache_file is empty"))
	}
	if c.LookupDelay < 0 {
		err = multierr.Append(err, errors.New("lookup_delay is negative"))
	}
	if c.AcceptPoll <= 0 {
		err = multierr.Append(err, errors.New("accept_poll must be positive"))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		err = multierr.Append(err, errors.New("timeouts must not be negative"))
	}
	if c.MaxLineLength <= 0 {
		err = multierr.Append(err, errors.New("max_line_length must be positive"))
	}
	if c.MaxConnections < 0 {
		err = multierr.Append(err, errors.New("max_connections is negative"))
	}
	if c.AcceptRate < 0 || c.AcceptBurst < 0 {
		err = multierr.Append(err, errors.New("accept_rate and accept_burst must not be negative"))
	}
	if c.AcceptRate > 0 && c.AcceptBurst == 0 {
		err = multierr.Append(err, errors.New("accept_burst must be set together with accept_rate"))
	}
	if c.SaveInterval < 0 {
		err = multierr.Append(err, errors.New("save_interval is negative"))
	}

	switch c.Resolver.Mode {
	case ResolverSystem:
	case ResolverUpstream:
		if len(c.Resolver.Upstreams) == 0 {
			err = multierr.Append(err, errors.New("resolver.upstreams is empty in upstream mode"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown resolver.mode %q", c.Resolver.Mode))
	}

	return err
}
