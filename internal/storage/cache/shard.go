package storage

import "hash/fnv"

const shardCount = 64

func newShard() *shard {
	return &shard{
		items: make(map[string]string),
	}
}

// getShard возвращает шард для данного ключа по FNV-хешу.
func (c *Cache) getShard(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()&(shardCount-1)]
}

// set записывает значение в шард. Возвращает true, если ключ новый.
func (s *shard) set(key, value string) bool {
	s.Lock()
	defer s.Unlock()

	_, exists := s.items[key]
	s.items[key] = value
	return !exists
}

// get возвращает значение из шарда.
func (s *shard) get(key string) (string, bool) {
	s.RLock()
	value, ok := s.items[key]
	s.RUnlock()
	return value, ok
}

// lockAll захватывает все шарды на запись строго по порядку индексов,
// чтобы два lockAll не взаимоблокировались.
func (c *Cache) lockAll() {
	for i := 0; i < shardCount; i++ {
		c.shards[i].Lock()
	}
}

func (c *Cache) unlockAll() {
	for i := shardCount - 1; i >= 0; i-- {
		c.shards[i].Unlock()
	}
}

func (c *Cache) rlockAll() {
	for i := 0; i < shardCount; i++ {
		c.shards[i].RLock()
	}
}

func (c *Cache) runlockAll() {
	for i := shardCount - 1; i >= 0; i-- {
		c.shards[i].RUnlock()
	}
}
