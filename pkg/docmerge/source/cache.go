package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// CachedSource memoizes successful loads from another Source. Failures are
// never cached.
type CachedSource struct {
	src     Source
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]string

	// gens and epoch are bumped by Invalidate and Purge. A load stores its
	// result only if neither moved while it was reading from src.
	gens  map[string]uint64
	epoch uint64
}

// NewCachedSource wraps src. logger may be nil.
func NewCachedSource(src Source, logger *slog.Logger) *CachedSource {
	return &CachedSource{
		src:     src,
		logger:  logger,
		entries: make(map[string]string),
		gens:    make(map[string]uint64),
	}
}

// Name implements Source.
func (c *CachedSource) Name() string { return "cached-" + c.src.Name() }

// Load implements Source.
func (c *CachedSource) Load(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	text, ok := c.entries[key]
	gen, epoch := c.gens[key], c.epoch
	c.mu.RUnlock()
	if ok {
		return text, nil
	}

	text, err := c.src.Load(ctx, key)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.gens[key] == gen && c.epoch == epoch {
		c.entries[key] = text
	}
	c.mu.Unlock()
	return text, nil
}

// Invalidate drops one cached key. A load of key already in flight will
// not repopulate it.
func (c *CachedSource) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(key)
}

func (c *CachedSource) invalidateLocked(key string) {
	delete(c.entries, key)
	c.gens[key]++
}

// invalidateTree drops key and every key below key/.
func (c *CachedSource) invalidateTree(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(key)
	prefix := key + "/"
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			c.invalidateLocked(k)
		}
	}
}

// Purge drops every cached key.
func (c *CachedSource) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
	c.gens = make(map[string]uint64)
	c.epoch++
}

// Len returns the number of cached templates.
func (c *CachedSource) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Watch invalidates cached keys when files under dir, including nested
// directories, change. Directories created later are watched as they
// appear. The watcher is registered before Watch returns and stops when ctx
// is done.
func (c *CachedSource) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(w, dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				c.handleEvent(w, dir, ev)
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				if c.logger != nil {
					c.logger.Warn("template watcher error", slog.String("error", werr.Error()))
				}
			}
		}
	}()
	return nil
}

func (c *CachedSource) handleEvent(w *fsnotify.Watcher, dir string, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	rel, err := filepath.Rel(dir, ev.Name)
	if err != nil {
		return
	}
	key := filepath.ToSlash(rel)

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addTree(w, ev.Name); err != nil && c.logger != nil {
				c.logger.Warn("template watcher cannot follow directory",
					slog.String("dir", ev.Name), slog.String("error", err.Error()))
			}
		}
	}

	// Files written into a new directory before it was added produce no
	// events of their own; dropping the whole subtree covers them.
	c.invalidateTree(key)
	if c.logger != nil {
		c.logger.Debug("template changed, cache entry dropped",
			slog.String("template", key),
			slog.String("op", ev.Op.String()))
	}
}

// addTree adds root and every directory below it to w.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(path)
	})
}
