package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mozillazg/go-unidecode"

	"github.com/rakshak-ai/internal/cache"
	"github.com/rakshak-ai/internal/directory"
	"github.com/rakshak-ai/internal/resolver"
)

const (
	DefaultRegionHint   = "Nashik"
	DefaultRadiusMeters = 10000
	DefaultTimeout      = 10 * time.Second

	policeKeyword     = "police station"
	nearestKeyPrefix  = "nearest_station:"
	geohashPrecision  = 6
	nearestCacheSize  = 1024
	nearestCacheTTL   = time.Hour
	earthRadiusMeters = 6371000.0
)

var (
	ErrGeocode             = errors.New("geocode failed")
	ErrStationLookupFailed = errors.New("no police station found near location")
	ErrNoAPIKey            = errors.New("geocoding provider not configured")
)

// deniedKeywords mark nearby-search hits that are tagged police but are not
// a station a caller can be routed to.
var deniedKeywords = map[string]struct{}{
	"academy": {}, "training": {}, "school": {}, "college": {}, "shop": {},
	"store": {}, "market": {}, "mall": {}, "restaurant": {}, "hotel": {},
	"resort": {}, "club": {}, "bar": {}, "cafe": {}, "zep": {}, "garud": {},
	"outpost": {}, "checkpost": {},
}

// cleanedWords are dropped from external station names before matching
// them against the directory.
var cleanedWords = map[string]struct{}{
	"police": {}, "station": {}, "ps": {}, "thana": {}, "chowki": {},
}

// Directory is the internal lookup the fallback reconciles external
// results with. *resolver.Resolver satisfies it.
type Directory interface {
	ResolveByName(ctx context.Context, name string) (resolver.Result, error)
	StationByName(ctx context.Context, name string) (*directory.Station, error)
}

// LocationResult is a geocoded location with its station block.
type LocationResult struct {
	DisplayName    string       `json:"name"`
	Lat            float64      `json:"lat"`
	Lon            float64      `json:"long"`
	NearestStation StationBlock `json:"nearest_police_station"`
}

// Fallback geocodes free text through a Provider and reconciles the result
// with the internal directory, which always wins when it knows the place.
type Fallback struct {
	provider Provider
	dir      Directory
	region   string
	radius   uint
	timeout  time.Duration
	shared   cache.Shared
	local    *expirable.LRU[string, StationBlock]
	log      *slog.Logger
}

// Option configures a Fallback.
type Option func(*Fallback)

// WithRegionHint sets the text appended to every place query.
func WithRegionHint(hint string) Option {
	return func(f *Fallback) { f.region = strings.TrimSpace(hint) }
}

// WithRadius sets the nearby-search radius.
func WithRadius(meters uint) Option {
	return func(f *Fallback) {
		if meters > 0 {
			f.radius = meters
		}
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(f *Fallback) { f.timeout = d }
}

// WithShared caches nearest-station blocks across processes.
func WithShared(s cache.Shared) Option {
	return func(f *Fallback) { f.shared = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fallback) {
		if l != nil {
			f.log = l
		}
	}
}

// New creates a Fallback. A nil provider is allowed: Geocode then fails
// with ErrNoAPIKey and NearestStation returns a placeholder.
func New(provider Provider, dir Directory, opts ...Option) *Fallback {
	f := &Fallback{
		provider: provider,
		dir:      dir,
		region:   DefaultRegionHint,
		radius:   DefaultRadiusMeters,
		timeout:  DefaultTimeout,
		local:    expirable.NewLRU[string, StationBlock](nearestCacheSize, nil, nearestCacheTTL),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Enabled reports whether a provider is configured.
func (f *Fallback) Enabled() bool {
	return f.provider != nil
}

// Geocode resolves text to a location. Errors wrap ErrGeocode.
func (f *Fallback) Geocode(ctx context.Context, text string) (LocationResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return LocationResult{}, fmt.Errorf("%w: %w", ErrGeocode, resolver.ErrInputEmpty)
	}
	if f.provider == nil {
		return LocationResult{}, fmt.Errorf("%w: %w", ErrGeocode, ErrNoAPIKey)
	}

	query := text
	if f.region != "" {
		query = text + " " + f.region
	}

	callCtx, cancel := f.withTimeout(ctx)
	places, err := f.provider.FindPlace(callCtx, query)
	cancel()
	if err != nil {
		return LocationResult{}, fmt.Errorf("%w: find place %q: %v", ErrGeocode, query, err)
	}
	if len(places) == 0 {
		return LocationResult{}, fmt.Errorf("%w: no candidates for %q", ErrGeocode, query)
	}

	top := places[0]
	// The maps client leaves a missing geometry at (0, 0).
	if top.Lat == 0 && top.Lng == 0 {
		return LocationResult{}, fmt.Errorf("%w: candidate %q has no coordinates", ErrGeocode, top.Name)
	}
	name := top.Name
	if name == "" {
		name = text
	}

	if st := f.internalStation(ctx, name); st != nil {
		f.log.Info("external result reconciled with directory", "query", text, "external", name, "station", st.StationName)
		block := BlockFromStation(st)
		return LocationResult{
			DisplayName:    st.StationName,
			Lat:            st.Location.Latitude,
			Lon:            st.Location.Longitude,
			NearestStation: block,
		}, nil
	}

	return LocationResult{
		DisplayName:    name,
		Lat:            top.Lat,
		Lon:            top.Lng,
		NearestStation: f.NearestStation(ctx, top.Lat, top.Lng),
	}, nil
}

// NearestStation finds the police station closest to a point. It never
// fails: provider problems yield a placeholder block with Available false.
func (f *Fallback) NearestStation(ctx context.Context, lat, lng float64) StationBlock {
	key := nearestKeyPrefix + geohash.EncodeWithPrecision(lat, lng, geohashPrecision)
	if block, ok := f.cached(ctx, key); ok {
		return withDistance(block, lat, lng)
	}

	block, err := f.nearestStation(ctx, lat, lng)
	if err != nil {
		f.log.Warn("nearest station lookup failed", "lat", lat, "lng", lng, "source", block.Source, "err", err)
		return block
	}
	f.remember(ctx, key, block)
	return withDistance(block, lat, lng)
}

func (f *Fallback) nearestStation(ctx context.Context, lat, lng float64) (StationBlock, error) {
	if f.provider == nil {
		return placeholder("Unknown Police Station", "Location found but police station details unavailable",
			SourceProviderDisabled, lat, lng), ErrNoAPIKey
	}

	callCtx, cancel := f.withTimeout(ctx)
	places, err := f.provider.NearbySearch(callCtx, lat, lng, f.radius, policeKeyword)
	cancel()
	if err != nil {
		return placeholder("Police Station", "Error retrieving police station details", SourceError, lat, lng),
			fmt.Errorf("%w: nearby search: %v", ErrStationLookupFailed, err)
	}
	if len(places) == 0 {
		return placeholder("Nearest Police Station", "Police station details not available", SourceNoStation, lat, lng),
			ErrStationLookupFailed
	}

	var nearest *Place
	for i := range places {
		if IsPoliceStation(places[i]) {
			nearest = &places[i]
			break
		}
	}
	if nearest == nil {
		return placeholder("Police Station", "No police station found nearby", SourceNoValidStation, lat, lng),
			ErrStationLookupFailed
	}

	details := f.details(ctx, nearest.PlaceID)
	name := details.Name
	if name == "" {
		name = nearest.Name
	}
	if name == "" {
		name = "Police Station"
	}

	if st := f.stationByExternalName(ctx, name); st != nil {
		block := BlockFromStation(st)
		if !st.HasCoordinates() {
			block.Latitude, block.Longitude = nearest.Lat, nearest.Lng
		}
		return block, nil
	}

	address := details.FormattedAddress
	if address == "" {
		address = "Address not available"
	}
	phone := details.PhoneNumber
	if phone == "" {
		phone = "Phone not available"
	}
	return StationBlock{
		StationName:      name,
		Address:          address,
		StationMobNumber: phone,
		Website:          details.Website,
		Latitude:         nearest.Lat,
		Longitude:        nearest.Lng,
		Source:           SourceGoogleMaps,
		Available:        true,
	}, nil
}

// details fetches contact fields. Failure degrades to empty details.
func (f *Fallback) details(ctx context.Context, placeID string) Details {
	callCtx, cancel := f.withTimeout(ctx)
	defer cancel()

	d, err := f.provider.PlaceDetails(callCtx, placeID)
	if err != nil || d == nil {
		f.log.Debug("place details unavailable", "place_id", placeID, "err", err)
		return Details{}
	}
	return *d
}

// internalStation reconciles an external display name with the directory:
// a station whose name contains it, then a village that resolves to a
// station with coordinates.
func (f *Fallback) internalStation(ctx context.Context, name string) *directory.Station {
	if f.dir == nil {
		return nil
	}
	if st, err := f.dir.StationByName(ctx, name); err == nil {
		return st
	}
	res, err := f.dir.ResolveByName(ctx, name)
	if err != nil || !res.Matched() || !res.Station.HasCoordinates() {
		return nil
	}
	return res.Station
}

// stationByExternalName matches a provider station name against the
// directory, as given and then cleaned. A station without coordinates is
// still accepted; the caller substitutes the provider's point.
func (f *Fallback) stationByExternalName(ctx context.Context, name string) *directory.Station {
	if f.dir == nil {
		return nil
	}
	for _, candidate := range []string{name, CleanName(name)} {
		st, err := f.dir.StationByName(ctx, candidate)
		if st != nil && (err == nil || errors.Is(err, resolver.ErrNoCoordinates)) {
			return st
		}
	}
	return nil
}

func (f *Fallback) cached(ctx context.Context, key string) (StationBlock, bool) {
	if block, ok := f.local.Get(key); ok {
		return block, true
	}
	if f.shared == nil {
		return StationBlock{}, false
	}

	callCtx, cancel := f.withTimeout(ctx)
	defer cancel()
	raw, ok, err := f.shared.Get(callCtx, key)
	if err != nil || !ok {
		return StationBlock{}, false
	}
	var block StationBlock
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		return StationBlock{}, false
	}
	f.local.Add(key, block)
	return block, true
}

func (f *Fallback) remember(ctx context.Context, key string, block StationBlock) {
	block.DistanceMeters = nil
	f.local.Add(key, block)
	if f.shared == nil {
		return
	}

	raw, err := json.Marshal(block)
	if err != nil {
		return
	}
	callCtx, cancel := f.withTimeout(ctx)
	defer cancel()
	if err := f.shared.SetWithTTL(callCtx, key, string(raw), nearestCacheTTL); err != nil {
		f.log.Warn("failed to cache nearest station", "key", key, "err", err)
	}
}

func (f *Fallback) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.timeout)
}

// IsPoliceStation reports whether a nearby-search hit is a police station
// and not a denylisted establishment. Denylist words are matched as whole
// words, with a trailing plural s.
func IsPoliceStation(p Place) bool {
	words := nameWords(p.Name)
	police := false
	for _, w := range words {
		if w == "police" {
			police = true
		}
		if _, denied := deniedKeywords[w]; denied {
			return false
		}
		if _, denied := deniedKeywords[strings.TrimSuffix(w, "s")]; denied {
			return false
		}
	}
	if police {
		return true
	}
	for _, t := range p.Types {
		if strings.EqualFold(t, "police") {
			return true
		}
	}
	return false
}

// CleanName folds a station name to ASCII lower case and drops the generic
// words police, station, ps, thana and chowki.
func CleanName(name string) string {
	kept := make([]string, 0, 4)
	for _, w := range nameWords(unidecode.Unidecode(name)) {
		if _, drop := cleanedWords[w]; !drop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func nameWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func withDistance(block StationBlock, lat, lng float64) StationBlock {
	if !block.Available {
		return block
	}
	d := DistanceMeters(lat, lng, block.Latitude, block.Longitude)
	block.DistanceMeters = &d
	return block
}

// DistanceMeters is the great-circle distance between two points, rounded
// to the meter.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lng1)
	b := s2.LatLngFromDegrees(lat2, lng2)
	return math.Round(a.Distance(b).Radians() * earthRadiusMeters)
}
