package storage

// New создаёт пустой шардированный кеш.
// p может быть nil - тогда вставки никуда не журналируются.
func New(p Persistence) *Cache {
	c := &Cache{persister: p}

	for i := 0; i < shardCount; i++ {
		c.shards[i] = newShard()
	}

	return c
}

// SetPersistence меняет приёмник журнала. nil отключает журнал.
func (c *Cache) SetPersistence(p Persistence) {
	c.pmu.Lock()
	c.persister = p
	c.pmu.Unlock()
}

// Lookup возвращает IP для домена. Никогда не ходит в сеть.
func (c *Cache) Lookup(domain string) (string, bool) {
	return c.getShard(domain).get(domain)
}

// Insert записывает domain → ip. При гонке за один ключ побеждает
// последний писатель.
func (c *Cache) Insert(domain, ip string) {
	if c.getShard(domain).set(domain, ip) {
		c.totalKeys.Add(1)
	}

	c.pmu.RLock()
	p := c.persister
	c.pmu.RUnlock()

	if p != nil {
		p.Write("SET", domain, ip)
	}
}

// Len возвращает количество доменов в кеше.
func (c *Cache) Len() int64 {
	return c.totalKeys.Load()
}

// Snapshot возвращает копию всего кеша. Все шарды удерживаются на чтение
// на время копирования - снимок согласован.
func (c *Cache) Snapshot() map[string]string {
	c.rlockAll()
	defer c.runlockAll()

	out := make(map[string]string, c.totalKeys.Load())
	for _, s := range c.shards {
		for k, v := range s.items {
			out[k] = v
		}
	}
	return out
}

// Replace целиком заменяет содержимое кеша. В журнал не пишет.
func (c *Cache) Replace(entries map[string]string) {
	c.lockAll()
	defer c.unlockAll()

	for _, s := range c.shards {
		s.items = make(map[string]string)
	}

	var n int64
	for k, v := range entries {
		s := c.getShard(k)
		if _, exists := s.items[k]; !exists {
			n++
		}
		s.items[k] = v
	}
	c.totalKeys.Store(n)
}
