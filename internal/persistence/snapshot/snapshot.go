// Package snapshot читает и пишет файл кеша целиком: плоский JSON-объект
// domain → IP.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CacheLoadError - файл кеша существует, но не разбирается как JSON-объект
// строк. Сервер с таким файлом не стартует.
type CacheLoadError struct {
	Path string
	Err  error
}

func (e *CacheLoadError) Error() string {
	return fmt.Sprintf("cache file %s: %v", e.Path, e.Err)
}

func (e *CacheLoadError) Unwrap() error { return e.Err }

var (
	errNotObject  = errors.New("top-level value is not a JSON object")
	errEmptyEntry = errors.New("empty domain or IP")
)

// Load читает снапшот.
// Нет файла - пустой map и nil. Битый файл - *CacheLoadError.
func Load(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	// json.Unmarshal молча принимает null для map - это не наш формат
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil, &CacheLoadError{Path: path, Err: errNotObject}
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, &CacheLoadError{Path: path, Err: err}
	}

	// null в значении превращается в "", а пустой IP отдавался бы как hit
	for domain, ip := range entries {
		if domain == "" || ip == "" {
			return nil, &CacheLoadError{Path: path, Err: fmt.Errorf("%w: %q", errEmptyEntry, domain)}
		}
	}
	return entries, nil
}

// Save пишет снапшот через tmp-файл и rename, чтобы краш посреди записи
// не оставил обрезанный файл.
func Save(path string, entries map[string]string) error {
	if entries == nil {
		entries = map[string]string{}
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
