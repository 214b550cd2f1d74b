package geocode

import (
	"github.com/rakshak-ai/internal/directory"
)

// Station block sources.
const (
	SourceDatabase         = "database"
	SourceGoogleMaps       = "google_maps"
	SourceNoStation        = "google_maps_no_station"
	SourceNoValidStation   = "google_maps_no_valid_station"
	SourceProviderDisabled = "google_maps_fallback"
	SourceError            = "error"
)

// StationBlock is the station contact block handed to the voice agent.
// Available is false for placeholder blocks that carry only the query point.
type StationBlock struct {
	ID                string   `json:"_id,omitempty"`
	Email             string   `json:"email,omitempty"`
	FullName          string   `json:"fullName,omitempty"`
	StationName       string   `json:"stationName"`
	Address           string   `json:"address"`
	OfficersMobNumber string   `json:"officersmobNumber,omitempty"`
	StationMobNumber  string   `json:"stationMobNumber,omitempty"`
	Website           string   `json:"website,omitempty"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	DistanceMeters    *float64 `json:"distanceMeters,omitempty"`
	Source            string   `json:"source"`
	Available         bool     `json:"available"`
}

// BlockFromStation converts a directory station. The station must have
// coordinates.
func BlockFromStation(st *directory.Station) StationBlock {
	b := StationBlock{
		ID:                st.ID,
		Email:             st.Email,
		FullName:          st.FullName,
		StationName:       st.StationName,
		Address:           st.Address,
		OfficersMobNumber: st.OfficersMobileNumber,
		StationMobNumber:  st.StationMobileNumber,
		Source:            SourceDatabase,
		Available:         true,
	}
	if st.Location != nil {
		b.Latitude = st.Location.Latitude
		b.Longitude = st.Location.Longitude
	}
	return b
}

func placeholder(name, address, source string, lat, lng float64) StationBlock {
	return StationBlock{
		StationName: name,
		Address:     address,
		Latitude:    lat,
		Longitude:   lng,
		Source:      source,
	}
}
