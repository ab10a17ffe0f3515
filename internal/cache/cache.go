// Package cache implements a best-effort TTL cache for upstream API
// responses, stored as one file per request signature under a cache
// directory. Losing or clearing the directory is always safe: the cache
// only affects upstream call volume, never correctness.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Signature is the normalized representation of an upstream request.
// Identical logical requests must produce identical signatures: the id
// list is treated as order-insensitive so differently-ordered batches
// share one cache entry.
type Signature struct {
	Kind  string
	Query string
	IDs   []string
	Limit int
}

// Key derives the deterministic cache key for the signature.
func (s Signature) Key() string {
	ids := append([]string(nil), s.IDs...)
	sort.Strings(ids)

	h := sha256.New()
	h.Write([]byte(s.Kind))
	h.Write([]byte{0})
	h.Write([]byte(s.Query))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(ids, ",")))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(s.Limit)))
	return hex.EncodeToString(h.Sum(nil))
}

// Disk is a TTL-based byte cache keyed by request signature.
type Disk struct {
	dir string
	ttl time.Duration
}

// New creates the cache directory if needed and returns a Disk cache.
func New(dir string, ttl time.Duration) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Disk{dir: dir, ttl: ttl}, nil
}

// TTL returns the configured entry lifetime.
func (d *Disk) TTL() time.Duration {
	return d.ttl
}

func (d *Disk) path(sig Signature) string {
	return filepath.Join(d.dir, sig.Kind+"_"+sig.Key()+".json")
}

// Get returns the cached payload for the signature if the entry exists
// and its age is strictly below the TTL. Stale and never-cached entries
// are indistinguishable to callers.
func (d *Disk) Get(sig Signature) ([]byte, bool) {
	p := d.path(sig)
	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) >= d.ttl {
		return nil, false
	}
	payload, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Put writes the payload unconditionally, superseding any stale entry
// in place. Write failures are logged and swallowed: the cache is never
// a correctness dependency.
func (d *Disk) Put(sig Signature, payload []byte) {
	p := d.path(sig)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		log.Warn().Err(err).Str("key", sig.Key()).Msg("Cache write failed")
		return
	}
	if err := os.Rename(tmp, p); err != nil {
		log.Warn().Err(err).Str("key", sig.Key()).Msg("Cache rename failed")
		os.Remove(tmp)
	}
}
