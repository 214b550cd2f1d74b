package locator

import (
	"github.com/rakshak-ai/internal/geocode"
)

// Conversation states the voice agent moves to after a reply.
const (
	NextStateLocation          = "LOCATION"
	NextStateLanguageSelection = "LANGUAGE_SELECTION"
)

// Payload is what SelectLocation hands back to the voice agent. Exactly one
// of Data or Message is set.
type Payload struct {
	Data       *LocationData `json:"data,omitempty"`
	Message    string        `json:"message,omitempty"`
	NextState  string        `json:"next_state,omitempty"`
	IsTemplate string        `json:"is_template,omitempty"`
}

// LocationData is a resolved location and its station.
type LocationData struct {
	Location             Location             `json:"location"`
	NearestPoliceStation geocode.StationBlock `json:"nearest_police_station"`
}

type Location struct {
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
}

type Coordinates struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Resolved reports whether the payload carries a location.
func (p Payload) Resolved() bool {
	return p.Data != nil
}

// LanguageReselection reports whether the caller asked to pick a language
// again.
func (p Payload) LanguageReselection() bool {
	return p.NextState == NextStateLanguageSelection
}

func successPayload(name string, loc geocode.LocationResult) Payload {
	return Payload{Data: &LocationData{
		Location: Location{
			Name:        name,
			Coordinates: Coordinates{Lat: loc.Lat, Long: loc.Lon},
		},
		NearestPoliceStation: loc.NearestStation,
	}}
}

func errorPayload(language string) Payload {
	return Payload{Message: JurisdictionError(language), NextState: NextStateLocation}
}
