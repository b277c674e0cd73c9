package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"acoustid/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
)

// RateLimits holds per-IP and per-application request rate overrides.
type RateLimits struct {
	IPs          map[string]int
	Applications map[int64]int
}

type rateLimitsFile struct {
	IPs          map[string]int `toml:"ips"`
	Applications map[string]int `toml:"applications"`
}

// ParseRateLimits decodes a TOML document of the form
//
//	[ips]
//	"127.0.0.1" = 100
//	[applications]
//	2 = 10
func ParseRateLimits(data []byte) (*RateLimits, error) {
	var raw rateLimitsFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rate limits: %w", err)
	}
	limits := &RateLimits{
		IPs:          make(map[string]int, len(raw.IPs)),
		Applications: make(map[int64]int, len(raw.Applications)),
	}
	for ip, rate := range raw.IPs {
		limits.IPs[ip] = rate
	}
	for key, rate := range raw.Applications {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid application id %q in rate limits", key)
		}
		limits.Applications[id] = rate
	}
	return limits, nil
}

// RateLimitStore serves the current rate limit overrides. It is safe for
// concurrent use; Reload swaps the whole table at once.
type RateLimitStore struct {
	path        string
	defaultRate int
	current     atomic.Pointer[RateLimits]
}

// NewRateLimitStore loads the overrides file (if any). An empty path yields a
// store with no overrides.
func NewRateLimitStore(path string, defaultRate int) (*RateLimitStore, error) {
	s := &RateLimitStore{path: path, defaultRate: defaultRate}
	s.current.Store(&RateLimits{IPs: map[string]int{}, Applications: map[int64]int{}})
	if path == "" {
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the overrides file.
func (s *RateLimitStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read rate limits file %s: %w", s.path, err)
	}
	limits, err := ParseRateLimits(data)
	if err != nil {
		return err
	}
	s.current.Store(limits)
	return nil
}

// IPRate returns the maximum request rate for ip, falling back to the global default.
func (s *RateLimitStore) IPRate(ip string) int {
	if rate, ok := s.current.Load().IPs[ip]; ok {
		return rate
	}
	return s.defaultRate
}

// ApplicationRate returns the configured override for an application, if any.
func (s *RateLimitStore) ApplicationRate(applicationID int64) (int, bool) {
	rate, ok := s.current.Load().Applications[applicationID]
	return rate, ok
}

// Watch reloads the file whenever it changes until ctx is done. The parent
// directory is watched so that editors which replace the file are handled.
func (s *RateLimitStore) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create rate limits watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}

	target := filepath.Clean(s.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					logger.Warn("[Config] 重新加载限流配置失败", logger.String("path", s.path), logger.ErrorField(err))
					continue
				}
				logger.Info("[Config] 限流配置已重新加载", logger.String("path", s.path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("[Config] 限流配置监听错误", logger.ErrorField(err))
			}
		}
	}()
	return nil
}
