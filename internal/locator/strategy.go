package locator

import (
	"context"
	"errors"

	"github.com/rakshak-ai/internal/geocode"
	"github.com/rakshak-ai/internal/resolver"
)

// Outcome tags the result of one resolution strategy.
type Outcome int

const (
	NotMatched Outcome = iota
	Matched
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Failed:
		return "error"
	default:
		return "not-matched"
	}
}

// Attempt is what a strategy returns. Location and Match are set only when
// Matched.
type Attempt struct {
	Outcome  Outcome
	Location geocode.LocationResult
	Match    resolver.Source
	Err      error
}

// Strategy is one step of the location fallback chain.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, text string) Attempt
}

// Geocoder is the external fallback. *geocode.Fallback satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, text string) (geocode.LocationResult, error)
}

// stationNameStrategy matches the text against station names.
type stationNameStrategy struct {
	dir geocode.Directory
}

func (stationNameStrategy) Name() string { return "station_name" }

func (s stationNameStrategy) Resolve(ctx context.Context, text string) Attempt {
	st, err := s.dir.StationByName(ctx, text)
	switch {
	case err == nil:
		return Attempt{Outcome: Matched, Match: resolver.SourceExact, Location: geocode.LocationResult{
			DisplayName:    st.StationName,
			Lat:            st.Location.Latitude,
			Lon:            st.Location.Longitude,
			NearestStation: geocode.BlockFromStation(st),
		}}
	case errors.Is(err, resolver.ErrNoInternalMatch), errors.Is(err, resolver.ErrNoCoordinates):
		return Attempt{Outcome: NotMatched, Err: err}
	default:
		return Attempt{Outcome: Failed, Err: err}
	}
}

// villageStrategy resolves the text as a village and uses its station.
type villageStrategy struct {
	dir geocode.Directory
}

func (villageStrategy) Name() string { return "village" }

func (s villageStrategy) Resolve(ctx context.Context, text string) Attempt {
	res, err := s.dir.ResolveByName(ctx, text)
	if err != nil {
		return Attempt{Outcome: Failed, Err: err}
	}
	if !res.Matched() {
		return Attempt{Outcome: NotMatched, Err: resolver.ErrNoInternalMatch}
	}
	if !res.Station.HasCoordinates() {
		return Attempt{Outcome: NotMatched, Err: resolver.ErrNoCoordinates}
	}

	st := res.Station
	return Attempt{Outcome: Matched, Match: res.Source, Location: geocode.LocationResult{
		DisplayName:    res.Village.Name,
		Lat:            st.Location.Latitude,
		Lon:            st.Location.Longitude,
		NearestStation: geocode.BlockFromStation(st),
	}}
}

// geocodeStrategy asks the external provider.
type geocodeStrategy struct {
	geo Geocoder
}

func (geocodeStrategy) Name() string { return "geocode" }

func (s geocodeStrategy) Resolve(ctx context.Context, text string) Attempt {
	loc, err := s.geo.Geocode(ctx, text)
	if err != nil {
		if errors.Is(err, geocode.ErrNoAPIKey) {
			return Attempt{Outcome: NotMatched, Err: err}
		}
		return Attempt{Outcome: Failed, Err: err}
	}
	return Attempt{Outcome: Matched, Match: resolver.SourceExternal, Location: loc}
}
