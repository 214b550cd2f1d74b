// Package geocode resolves spoken place names through an external mapping
// service when the internal directory has no answer, and finds the nearest
// police station around the resulting coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"googlemaps.github.io/maps"
)

// Place is one candidate returned by a place search.
type Place struct {
	PlaceID          string
	Name             string
	FormattedAddress string
	Lat              float64
	Lng              float64
	Types            []string
}

// Details are the contact fields of a place.
type Details struct {
	Name             string
	FormattedAddress string
	PhoneNumber      string
	Website          string
}

// Provider is the external mapping service. Only three query shapes are
// needed.
type Provider interface {
	FindPlace(ctx context.Context, query string) ([]Place, error)
	NearbySearch(ctx context.Context, lat, lng float64, radiusMeters uint, keyword string) ([]Place, error)
	PlaceDetails(ctx context.Context, placeID string) (*Details, error)
}

// GoogleProvider implements Provider on the Google Places API.
type GoogleProvider struct {
	client *maps.Client
}

// GoogleOptions configures NewGoogleProvider.
type GoogleOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewGoogleProvider creates a Places client. An empty key is an error;
// callers treat it as "geocoding not configured".
func NewGoogleProvider(opts GoogleOptions) (*GoogleProvider, error) {
	if opts.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	clientOpts := []maps.ClientOption{maps.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, maps.WithHTTPClient(opts.HTTPClient))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &GoogleProvider{client: client}, nil
}

// FindPlace runs a text query (findplacefromtext).
func (g *GoogleProvider) FindPlace(ctx context.Context, query string) ([]Place, error) {
	resp, err := g.client.FindPlaceFromText(ctx, &maps.FindPlaceFromTextRequest{
		Input:     query,
		InputType: maps.FindPlaceFromTextInputTypeTextQuery,
		Fields: []maps.PlaceSearchFieldMask{
			maps.PlaceSearchFieldMaskName,
			maps.PlaceSearchFieldMaskGeometry,
			maps.PlaceSearchFieldMaskFormattedAddress,
			maps.PlaceSearchFieldMaskTypes,
			maps.PlaceSearchFieldMaskPlaceID,
		},
	})
	if err != nil {
		return nil, err
	}
	return convertResults(resp.Candidates), nil
}

// NearbySearch lists places around a point matching keyword.
func (g *GoogleProvider) NearbySearch(ctx context.Context, lat, lng float64, radiusMeters uint, keyword string) ([]Place, error) {
	resp, err := g.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: lat, Lng: lng},
		Radius:   radiusMeters,
		Keyword:  keyword,
	})
	if err != nil {
		return nil, err
	}
	return convertResults(resp.Results), nil
}

// PlaceDetails fetches contact fields for a place id.
func (g *GoogleProvider) PlaceDetails(ctx context.Context, placeID string) (*Details, error) {
	if placeID == "" {
		return nil, errors.New("empty place id")
	}
	resp, err := g.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskFormattedAddress,
			maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
			maps.PlaceDetailsFieldMaskWebsite,
		},
	})
	if err != nil {
		return nil, err
	}
	return &Details{
		Name:             resp.Name,
		FormattedAddress: resp.FormattedAddress,
		PhoneNumber:      resp.FormattedPhoneNumber,
		Website:          resp.Website,
	}, nil
}

func convertResults(results []maps.PlacesSearchResult) []Place {
	places := make([]Place, 0, len(results))
	for _, r := range results {
		places = append(places, Place{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			FormattedAddress: r.FormattedAddress,
			Lat:              r.Geometry.Location.Lat,
			Lng:              r.Geometry.Location.Lng,
			Types:            r.Types,
		})
	}
	return places
}
