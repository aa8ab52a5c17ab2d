// Package cache keeps parsed syntax trees across requests so unchanged documents are not
// parsed again.
package cache

import (
	"context"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

// DefaultTTL is how long an entry lives when no TTL is configured.
const DefaultTTL = 10 * time.Minute

// FileSystem is the read side the cache needs.
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

// ParseFunc parses the contents of path.
type ParseFunc func(ctx context.Context, path string, src []byte) (*syntax.CompilationUnit, error)

// Units caches parsed compilation units keyed by path, size and modification time, so an edit
// to the file is a miss even within the TTL. Cached trees are shared, which is safe because
// trees are never modified in place.
type Units struct {
	fs     FileSystem
	store  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// New returns a cache whose entries expire after ttl. A non-positive ttl uses DefaultTTL.
func New(fsys FileSystem, ttl time.Duration) *Units {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Units{fs: fsys, store: gocache.New(ttl, 2*ttl)}
}

// Load returns the unit for path, calling parse only when the file changed since the last
// successful load. Parse failures are not cached.
func (u *Units) Load(ctx context.Context, path string, parse ParseFunc) (*syntax.CompilationUnit, error) {
	info, err := u.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	key := entryKey(path, info)

	if cached, found := u.store.Get(key); found {
		if unit, ok := cached.(*syntax.CompilationUnit); ok {
			u.hits.Add(1)

			return unit, nil
		}
	}

	u.misses.Add(1)

	src, err := u.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	unit, err := parse(ctx, path, src)
	if err != nil {
		return nil, err
	}

	u.store.SetDefault(key, unit)

	return unit, nil
}

// Stats returns hit and miss counts since creation.
func (u *Units) Stats() (hits, misses int64) {
	return u.hits.Load(), u.misses.Load()
}

// Flush drops every entry.
func (u *Units) Flush() {
	u.store.Flush()
}

func entryKey(path string, info fs.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
}
