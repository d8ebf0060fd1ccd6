package resolvd

import (
	"errors"

	"resolvd/internal/persistence/snapshot"
	"resolvd/internal/resolver"
	"resolvd/internal/server"
)

var (
	// ErrAlreadyRunning - Start на уже запущенном демоне.
	ErrAlreadyRunning = errors.New("resolvd: already running")

	// ErrNotRunning - Checkpoint на остановленном демоне: в памяти нет
	// ничего новее файла, перезаписывать его нечем.
	ErrNotRunning = errors.New("resolvd: not running")
)

// Типы ошибок компонентов, чтобы вызывающий код мог делать errors.As,
// не импортируя internal-пакеты.
type (
	CacheLoadError    = snapshot.CacheLoadError
	ResolutionError   = resolver.ResolutionError
	ListenerBindError = server.ListenerBindError
	ConnectionError   = server.ConnectionError
)
