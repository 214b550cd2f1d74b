// Package resolver maps a free-text area name onto a known village and its
// owning police station.
//
// Resolution is exact (case-insensitive) first, then a full scan scoring
// every village with similarity.Ratio. The scan is O(n) per query, which is
// fine for directories in the low thousands; a prefix or phonetic index
// would be needed beyond that.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rakshak-ai/internal/directory"
	"github.com/rakshak-ai/internal/similarity"
)

// DefaultThreshold is the minimum fuzzy score accepted as a match.
const DefaultThreshold = 0.7

// Source tags where a resolution came from.
type Source string

const (
	SourceExact    Source = "exact"
	SourceFuzzy    Source = "fuzzy"
	SourceExternal Source = "external"
	SourceNone     Source = "none"
)

var (
	ErrInputEmpty           = errors.New("input empty")
	ErrDirectoryUnavailable = errors.New("directory unavailable")
	ErrNoInternalMatch      = errors.New("no internal match")
	ErrNoCoordinates        = errors.New("station coordinates not available")
)

// Result is the outcome of one resolution. A Result with SourceExact always
// has Score 1.0. Station may be nil when the matched village points at a
// station that is not on record.
type Result struct {
	Village *directory.Village
	Station *directory.Station
	Score   float64
	Source  Source

	// Hint is the best-scoring village when the score fell below the
	// threshold. It is never a match and carries no station.
	Hint *directory.Village
}

// Matched reports whether a village was resolved.
func (r Result) Matched() bool {
	return r.Village != nil && (r.Source == SourceExact || r.Source == SourceFuzzy)
}

// Resolver resolves area names against a directory store.
type Resolver struct {
	store     directory.Store
	threshold float64
	timeout   time.Duration
	log       *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(t float64) Option {
	return func(r *Resolver) {
		if t > 0 && t <= 1 {
			r.threshold = t
		}
	}
}

// WithTimeout bounds each store round trip.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a Resolver.
func New(store directory.Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:     store,
		threshold: DefaultThreshold,
		timeout:   5 * time.Second,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Threshold returns the acceptance threshold in use.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// ResolveByName resolves name to a village and its station. Empty input
// yields a SourceNone result with score 0 and no error. An error is only
// returned when the directory cannot be read.
func (r *Resolver) ResolveByName(ctx context.Context, name string) (Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{Source: SourceNone}, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	village, err := r.store.FindVillage(ctx, name)
	switch {
	case err == nil:
		station, err := r.stationFor(ctx, village)
		if err != nil {
			return Result{}, err
		}
		return Result{Village: village, Station: station, Score: 1.0, Source: SourceExact}, nil
	case !errors.Is(err, directory.ErrNotFound):
		return Result{}, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	villages, err := r.store.ListVillages(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	best, score := bestMatch(name, villages)
	if best == nil || score < r.threshold {
		r.log.Debug("no village above threshold", "query", name, "best_score", score)
		return Result{Score: score, Source: SourceNone, Hint: best}, nil
	}

	station, err := r.stationFor(ctx, best)
	if err != nil {
		return Result{}, err
	}
	r.log.Debug("fuzzy village match", "query", name, "village", best.Name, "score", score)
	return Result{Village: best, Station: station, Score: score, Source: SourceFuzzy}, nil
}

// StationByName finds a station whose name contains name. The station must
// carry coordinates to be useful for location selection.
func (r *Resolver) StationByName(ctx context.Context, name string) (*directory.Station, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInputEmpty
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	st, err := r.store.FindStationByName(ctx, name)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrNoInternalMatch
		}
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	if !st.HasCoordinates() {
		return st, ErrNoCoordinates
	}
	return st, nil
}

// stationFor resolves the owning station of a village. A dangling station
// reference is not an error.
func (r *Resolver) stationFor(ctx context.Context, v *directory.Village) (*directory.Station, error) {
	if v.StationID == "" {
		return nil, nil
	}
	st, err := r.store.StationByID(ctx, v.StationID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			r.log.Warn("village references unknown station", "village", v.Name, "station_id", v.StationID)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	return st, nil
}

func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// bestMatch scores every village and returns the highest. Ties keep the
// first village in directory order.
func bestMatch(name string, villages []directory.Village) (*directory.Village, float64) {
	var (
		best      *directory.Village
		bestScore float64
	)
	for i := range villages {
		score := similarity.Ratio(name, villages[i].Name)
		if score > bestScore {
			bestScore = score
			best = &villages[i]
		}
	}
	return best, bestScore
}
