package storage

import (
	"sync"
	"sync/atomic"
)

// Persistence - приёмник записей кеша (журнал).
// Insert вызывает Write("SET", domain, ip) после записи в шард.
type Persistence interface {
	Write(cmd, key, value string) error
}

// shard - один шард кеша.
type shard struct {
	sync.RWMutex
	items map[string]string // domain → IP
}

// Cache - шардированное in-memory хранилище domain → IP.
// Один экземпляр на процесс, передаётся обработчикам по указателю.
type Cache struct {
	shards    [shardCount]*shard
	totalKeys atomic.Int64

	pmu       sync.RWMutex
	persister Persistence
}
