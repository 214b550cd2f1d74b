package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rakshak-ai/internal/directory"
)

const (
	// DefaultTTL is how long a station-name snapshot stays fresh.
	DefaultTTL = 5 * time.Minute

	// StationNamesKey is the shared-cache key for the name list.
	StationNamesKey = "police_station_names"
)

// NameSource lists station names of one role table. directory.Store
// satisfies it.
type NameSource interface {
	StationNames(ctx context.Context, role directory.Role) ([]string, error)
}

type snapshot struct {
	names     []string
	expiresAt time.Time
}

// sharedEntry is the JSON stored under StationNamesKey. FetchedAt lets a
// reader in another process keep the original expiry instead of extending
// it.
type sharedEntry struct {
	Names     []string `json:"names"`
	FetchedAt int64    `json:"fetched_at"`
}

// StationNames is the process-wide station directory cache.
//
// Reads never block on each other. A refresh on expiry is not locked: two
// concurrent refreshes both store an equivalent snapshot. On refresh
// failure the last good snapshot is served even when expired.
type StationNames struct {
	source  NameSource
	shared  Shared
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger

	current atomic.Pointer[snapshot]
}

// StationNamesOption configures StationNames.
type StationNamesOption func(*StationNames)

// WithShared enables the cross-process cache.
func WithShared(s Shared) StationNamesOption {
	return func(c *StationNames) { c.shared = s }
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) StationNamesOption {
	return func(c *StationNames) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithQueryTimeout bounds each store or shared-cache round trip.
func WithQueryTimeout(d time.Duration) StationNamesOption {
	return func(c *StationNames) { c.timeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StationNamesOption {
	return func(c *StationNames) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) StationNamesOption {
	return func(c *StationNames) {
		if l != nil {
			c.log = l
		}
	}
}

// NewStationNames creates the cache. Nothing is loaded until the first All.
func NewStationNames(source NameSource, opts ...StationNamesOption) *StationNames {
	c := &StationNames{
		source:  source,
		ttl:     DefaultTTL,
		timeout: 5 * time.Second,
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// All returns every known station name, sorted and deduplicated. It never
// fails; callers must tolerate an empty result.
func (c *StationNames) All(ctx context.Context) []string {
	now := c.now()
	snap := c.current.Load()
	if snap != nil && now.Before(snap.expiresAt) {
		return snap.names
	}

	if names, fetchedAt, ok := c.fromShared(ctx, now); ok {
		c.store(names, fetchedAt)
		return names
	}

	names, err := c.load(ctx)
	if err != nil {
		c.log.Error("station names refresh failed", "err", err)
		if snap != nil {
			return snap.names
		}
		return []string{}
	}

	c.store(names, now)
	c.toShared(ctx, names, now)
	return names
}

// Contains reports whether name is exactly a known station name.
func (c *StationNames) Contains(ctx context.Context, name string) bool {
	names := c.All(ctx)
	i := sort.SearchStrings(names, name)
	return i < len(names) && names[i] == name
}

// Invalidate drops the process snapshot so the next All refreshes.
func (c *StationNames) Invalidate() {
	c.current.Store(nil)
}

func (c *StationNames) store(names []string, fetchedAt time.Time) {
	c.current.Store(&snapshot{names: names, expiresAt: fetchedAt.Add(c.ttl)})
}

// load queries both role tables and merges the names.
func (c *StationNames) load(ctx context.Context) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	seen := make(map[string]struct{})
	for _, role := range []directory.Role{directory.RoleSP, directory.RolePI} {
		names, err := c.source.StationNames(ctx, role)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			if n != "" {
				seen[n] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// fromShared returns a still-fresh name list from the shared cache along
// with the time it was originally fetched.
func (c *StationNames) fromShared(ctx context.Context, now time.Time) ([]string, time.Time, bool) {
	if c.shared == nil {
		return nil, time.Time{}, false
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	raw, ok, err := c.shared.Get(ctx, StationNamesKey)
	if err != nil {
		c.log.Warn("shared cache unavailable", "err", err)
		return nil, time.Time{}, false
	}
	if !ok {
		return nil, time.Time{}, false
	}

	var entry sharedEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.log.Warn("discarding malformed shared station names", "err", err)
		return nil, time.Time{}, false
	}
	fetchedAt := time.UnixMilli(entry.FetchedAt)
	if !now.Before(fetchedAt.Add(c.ttl)) {
		return nil, time.Time{}, false
	}
	sort.Strings(entry.Names)
	return entry.Names, fetchedAt, true
}

func (c *StationNames) toShared(ctx context.Context, names []string, fetchedAt time.Time) {
	if c.shared == nil {
		return
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	raw, err := json.Marshal(sharedEntry{Names: names, FetchedAt: fetchedAt.UnixMilli()})
	if err != nil {
		return
	}
	if err := c.shared.SetWithTTL(ctx, StationNamesKey, string(raw), c.ttl); err != nil {
		c.log.Warn("failed to update shared cache", "err", err)
	}
}

func (c *StationNames) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
