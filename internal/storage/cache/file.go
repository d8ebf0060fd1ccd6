package storage

import "resolvd/internal/persistence/snapshot"

// LoadFromFile заменяет содержимое кеша снапшотом с диска.
// Нет файла - кеш становится пустым. Битый файл - *snapshot.CacheLoadError,
// кеш не трогается.
func (c *Cache) LoadFromFile(path string) error {
	entries, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	c.Replace(entries)
	return nil
}

// SaveToFile сохраняет согласованный снимок кеша в JSON.
func (c *Cache) SaveToFile(path string) error {
	return snapshot.Save(path, c.Snapshot())
}
