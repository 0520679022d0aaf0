package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Disk keeps one JSON file per document digest under a single directory.
type Disk struct {
	dir    string
	maxAge time.Duration
}

// NewDisk creates the cache directory if needed. maxAge of zero disables
// sweeping.
func NewDisk(dir string, maxAge time.Duration) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Disk{dir: dir, maxAge: maxAge}, nil
}

func (d *Disk) Get(ctx context.Context, key string) (string, bool) {
	data, err := os.ReadFile(d.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
		return "", false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		slog.Warn("cache entry corrupt", "key", key, "error", err)
		return "", false
	}
	return e.Text, true
}

func (d *Disk) Set(ctx context.Context, key, text string) {
	data, err := json.Marshal(entry{Text: text})
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := os.WriteFile(d.path(key), data, 0o644); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}

// Sweep removes entries whose file is older than the configured max age
// and returns how many were removed. It is a no-op when no max age is
// set.
func (d *Disk) Sweep(ctx context.Context) (int, error) {
	if d.maxAge <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	cutoff := time.Now().Add(-d.maxAge)
	removed := 0
	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(d.dir, de.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (d *Disk) path(key string) string {
	return filepath.Join(d.dir, key+".json")
}
