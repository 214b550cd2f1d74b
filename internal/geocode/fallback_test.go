package geocode

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/rakshak-ai/internal/cache"
	"github.com/rakshak-ai/internal/directory/directorytest"
	"github.com/rakshak-ai/internal/resolver"
)

type fakeProvider struct {
	mu        sync.Mutex
	places    []Place
	nearby    []Place
	details   map[string]*Details
	findErr   error
	nearbyErr error

	findCalls   int
	nearbyCalls int
	lastQuery   string
	lastRadius  uint
	lastKeyword string
}

func (p *fakeProvider) FindPlace(_ context.Context, query string) ([]Place, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.findCalls++
	p.lastQuery = query
	return p.places, p.findErr
}

func (p *fakeProvider) NearbySearch(_ context.Context, _, _ float64, radius uint, keyword string) ([]Place, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nearbyCalls++
	p.lastRadius = radius
	p.lastKeyword = keyword
	return p.nearby, p.nearbyErr
}

func (p *fakeProvider) PlaceDetails(_ context.Context, placeID string) (*Details, error) {
	d, ok := p.details[placeID]
	if !ok {
		return nil, errors.New("NOT_FOUND")
	}
	return d, nil
}

func newFallback(t *testing.T, p Provider, opts ...Option) *Fallback {
	t.Helper()
	return New(p, resolver.New(directorytest.OpenDefault(t)), opts...)
}

func TestGeocodeWithoutProvider(t *testing.T) {
	f := newFallback(t, nil)

	_, err := f.Geocode(context.Background(), "Saikheda")
	if !errors.Is(err, ErrGeocode) || !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrGeocode wrapping ErrNoAPIKey", err)
	}
	if f.Enabled() {
		t.Error("Enabled() = true without provider")
	}
}

func TestGeocodeProviderFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
	}{
		{"provider error", &fakeProvider{findErr: errors.New("REQUEST_DENIED")}},
		{"no candidates", &fakeProvider{}},
		{"no coordinates", &fakeProvider{places: []Place{{Name: "Somewhere"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFallback(t, tt.provider)
			_, err := f.Geocode(context.Background(), "Somewhere")
			if !errors.Is(err, ErrGeocode) {
				t.Errorf("err = %v, want ErrGeocode", err)
			}
		})
	}
}

func TestGeocodeZeroMeridian(t *testing.T) {
	p := &fakeProvider{places: []Place{{Name: "Greenwich", Lat: 51.48, Lng: 0}}}
	f := newFallback(t, p, WithRegionHint(""))

	res, err := f.Geocode(context.Background(), "Greenwich")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if res.DisplayName != "Greenwich" || res.Lat != 51.48 || res.Lon != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestGeocodeAppendsRegionHint(t *testing.T) {
	p := &fakeProvider{}
	f := newFallback(t, p)
	f.Geocode(context.Background(), "Saikheda")
	if p.lastQuery != "Saikheda Nashik" {
		t.Errorf("query = %q, want region hint appended", p.lastQuery)
	}

	f = newFallback(t, p, WithRegionHint(""))
	f.Geocode(context.Background(), "Saikheda")
	if p.lastQuery != "Saikheda" {
		t.Errorf("query = %q, want bare text", p.lastQuery)
	}
}

func TestGeocodePrefersInternalStation(t *testing.T) {
	tests := []struct {
		name        string
		external    string
		wantStation string
	}{
		{"station name", "Ozar", "Ozar Police Station"},
		{"village name", "Mohadi", "Dindori Police Station"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{places: []Place{{Name: tt.external, Lat: 20.1, Lng: 73.9}}}
			f := newFallback(t, p)

			res, err := f.Geocode(context.Background(), tt.external)
			if err != nil {
				t.Fatal(err)
			}
			if res.NearestStation.StationName != tt.wantStation || res.NearestStation.Source != SourceDatabase {
				t.Errorf("station = %+v, want %s from database", res.NearestStation, tt.wantStation)
			}
			if res.DisplayName != tt.wantStation {
				t.Errorf("DisplayName = %q", res.DisplayName)
			}
			if p.nearbyCalls != 0 {
				t.Errorf("nearby search called %d times for an internal match", p.nearbyCalls)
			}
		})
	}
}

func TestGeocodeExternalStation(t *testing.T) {
	p := &fakeProvider{
		places: []Place{{Name: "Saikheda", Lat: 20.10, Lng: 74.00}},
		nearby: []Place{
			{PlaceID: "p1", Name: "Saikheda Police Station", Lat: 20.11, Lng: 74.01, Types: []string{"police"}},
		},
		details: map[string]*Details{
			"p1": {Name: "Saikheda Police Station", FormattedAddress: "Saikheda, Niphad", PhoneNumber: "02550 123456"},
		},
	}
	f := newFallback(t, p)

	res, err := f.Geocode(context.Background(), "saikheda")
	if err != nil {
		t.Fatal(err)
	}
	if p.findCalls != 1 {
		t.Errorf("FindPlace called %d times, want 1", p.findCalls)
	}
	if p.lastRadius != DefaultRadiusMeters || p.lastKeyword != "police station" {
		t.Errorf("nearby search radius=%d keyword=%q", p.lastRadius, p.lastKeyword)
	}

	block := res.NearestStation
	if block.Source != SourceGoogleMaps || !block.Available {
		t.Fatalf("block = %+v, want available google_maps block", block)
	}
	if block.Address != "Saikheda, Niphad" || block.StationMobNumber != "02550 123456" {
		t.Errorf("details not applied: %+v", block)
	}
	if block.DistanceMeters == nil || *block.DistanceMeters <= 0 {
		t.Errorf("DistanceMeters = %v, want positive", block.DistanceMeters)
	}
	if res.Lat != 20.10 || res.Lon != 74.00 {
		t.Errorf("location = %v,%v", res.Lat, res.Lon)
	}
}

func TestNearestStationDenylist(t *testing.T) {
	p := &fakeProvider{nearby: []Place{
		{PlaceID: "a", Name: "Maharashtra Police Academy", Types: []string{"police"}},
		{PlaceID: "b", Name: "Police Uniform Shop", Types: []string{"store"}},
		{PlaceID: "c", Name: "Police Training School"},
	}}
	f := newFallback(t, p)

	block := f.NearestStation(context.Background(), 20.0, 73.8)
	if block.Available {
		t.Fatalf("block = %+v, want placeholder", block)
	}
	if block.Source != SourceNoValidStation {
		t.Errorf("Source = %q, want %q", block.Source, SourceNoValidStation)
	}
	if block.Latitude != 20.0 || block.Longitude != 73.8 {
		t.Errorf("placeholder point = %v,%v", block.Latitude, block.Longitude)
	}

	_, err := f.nearestStation(context.Background(), 20.0, 73.8)
	if !errors.Is(err, ErrStationLookupFailed) {
		t.Errorf("err = %v, want ErrStationLookupFailed", err)
	}
}

func TestNearestStationPlaceholders(t *testing.T) {
	tests := []struct {
		name       string
		provider   Provider
		wantSource string
	}{
		{"no provider", nil, SourceProviderDisabled},
		{"provider error", &fakeProvider{nearbyErr: errors.New("OVER_QUERY_LIMIT")}, SourceError},
		{"no results", &fakeProvider{}, SourceNoStation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFallback(t, tt.provider)
			block := f.NearestStation(context.Background(), 20.0, 73.8)
			if block.Available || block.Source != tt.wantSource {
				t.Errorf("block = %+v, want placeholder %s", block, tt.wantSource)
			}
		})
	}
}

func TestNearestStationMatchesCleanedName(t *testing.T) {
	p := &fakeProvider{nearby: []Place{
		{PlaceID: "v", Name: "Vani PS", Lat: 20.33, Lng: 73.88, Types: []string{"police"}},
	}}
	f := newFallback(t, p)

	block := f.NearestStation(context.Background(), 20.3, 73.9)
	if block.ID != "pi-vani" || block.Source != SourceDatabase {
		t.Errorf("block = %+v, want directory station pi-vani", block)
	}
	if block.OfficersMobNumber != "9000000002" {
		t.Errorf("OfficersMobNumber = %q", block.OfficersMobNumber)
	}
}

func TestNearestStationWithoutDirectoryCoordinates(t *testing.T) {
	p := &fakeProvider{nearby: []Place{
		{PlaceID: "peth", Name: "Peth Police Station", Lat: 20.26, Lng: 73.58},
	}}
	f := newFallback(t, p)

	block := f.NearestStation(context.Background(), 20.2, 73.5)
	if block.ID != "pi-peth" {
		t.Fatalf("block = %+v, want pi-peth", block)
	}
	if block.Latitude != 20.26 || block.Longitude != 73.58 {
		t.Errorf("coordinates = %v,%v, want provider point", block.Latitude, block.Longitude)
	}
}

func TestNearestStationCached(t *testing.T) {
	nearby := []Place{{PlaceID: "p1", Name: "Saikheda Police Station", Lat: 20.11, Lng: 74.01}}
	mr := miniredis.RunT(t)
	shared, err := cache.NewRedis(context.Background(), cache.RedisOptions{Addr: mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer shared.Close()

	p := &fakeProvider{nearby: nearby}
	f := newFallback(t, p, WithShared(shared))
	ctx := context.Background()

	first := f.NearestStation(ctx, 20.1000, 74.0000)
	second := f.NearestStation(ctx, 20.1001, 74.0001)
	if p.nearbyCalls != 1 {
		t.Errorf("nearby search called %d times, want 1", p.nearbyCalls)
	}
	if first.StationName != second.StationName {
		t.Errorf("cached block differs: %+v vs %+v", first, second)
	}
	if *first.DistanceMeters == *second.DistanceMeters {
		t.Errorf("distance not recomputed for second point")
	}

	// Another process shares the Redis entry.
	other := &fakeProvider{}
	g := newFallback(t, other, WithShared(shared))
	if got := g.NearestStation(ctx, 20.1000, 74.0000); got.StationName != "Saikheda Police Station" {
		t.Errorf("shared lookup = %+v", got)
	}
	if other.nearbyCalls != 0 {
		t.Errorf("second process searched %d times", other.nearbyCalls)
	}
}

func TestNearestStationPlaceholderNotCached(t *testing.T) {
	p := &fakeProvider{}
	f := newFallback(t, p)
	ctx := context.Background()

	f.NearestStation(ctx, 20.0, 73.8)
	f.NearestStation(ctx, 20.0, 73.8)
	if p.nearbyCalls != 2 {
		t.Errorf("nearby search called %d times, want 2", p.nearbyCalls)
	}
}

func TestIsPoliceStation(t *testing.T) {
	tests := []struct {
		place Place
		want  bool
	}{
		{Place{Name: "Ozar Police Station"}, true},
		{Place{Name: "Niphad Thana", Types: []string{"police", "point_of_interest"}}, true},
		{Place{Name: "Barshi Police Station"}, true},
		{Place{Name: "Police Training Centre"}, false},
		{Place{Name: "Police Shops"}, false},
		{Place{Name: "Garud Police Outpost"}, false},
		{Place{Name: "Highway Checkpost Police"}, false},
		{Place{Name: "Hotel Police Line", Types: []string{"lodging"}}, false},
		{Place{Name: "City Mall"}, false},
	}
	for _, tt := range tests {
		if got := IsPoliceStation(tt.place); got != tt.want {
			t.Errorf("IsPoliceStation(%q) = %v, want %v", tt.place.Name, got, tt.want)
		}
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Vani Police Station", "vani"},
		{"  Ozar  PS ", "ozar"},
		{"Peth Thana", "peth"},
		{"Lasalgaon Police Chowki", "lasalgaon"},
		{"Upsala Station Road", "upsala road"},
	}
	for _, tt := range tests {
		if got := CleanName(tt.in); got != tt.want {
			t.Errorf("CleanName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDistanceMeters(t *testing.T) {
	if d := DistanceMeters(20.0929, 73.9271, 20.0929, 73.9271); d != 0 {
		t.Errorf("same point distance = %v", d)
	}
	// Ozar to Dindori is roughly 15.7 km.
	d := DistanceMeters(20.0929, 73.9271, 20.2029, 73.8327)
	if d < 15000 || d > 16500 {
		t.Errorf("Ozar-Dindori distance = %v m", d)
	}
}
