// Package directory holds the read-only police directory: station records
// for the two station-role tables and the village records that point at them.
package directory

import (
	"context"
	"errors"
)

// Role distinguishes the two station-role tables.
type Role string

const (
	RolePI Role = "pi" // police-inspector stations (pi_users)
	RoleSP Role = "sp" // superintendent offices (sp_users)
)

// ErrNotFound is returned by single-record lookups that match nothing.
var ErrNotFound = errors.New("directory: record not found")

// Point is a WGS84 coordinate.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Village is a named locality owned by one station. Identity is the
// case-insensitive name.
type Village struct {
	ID        string `json:"id"`
	Name      string `json:"villageName"`
	StationID string `json:"stationId"`
}

// Station is a police station's identity and contact data.
type Station struct {
	ID                   string `json:"id"`
	Role                 Role   `json:"role"`
	StationName          string `json:"stationName"`
	Address              string `json:"address"`
	Email                string `json:"email"`
	FullName             string `json:"fullName"`
	OfficersMobileNumber string `json:"officersMobileNumber"`
	StationMobileNumber  string `json:"stationMobileNumber"`
	Location             *Point `json:"location,omitempty"`
}

// HasCoordinates reports whether the station carries a usable location.
func (s *Station) HasCoordinates() bool {
	return s != nil && s.Location != nil
}

// Store is read access to the directory. Implementations must be safe for
// concurrent use.
type Store interface {
	// FindVillage returns the village whose name equals name ignoring case,
	// or ErrNotFound.
	FindVillage(ctx context.Context, name string) (*Village, error)
	// ListVillages returns every village record.
	ListVillages(ctx context.Context) ([]Village, error)
	// StationByID returns a PI station by id, or ErrNotFound.
	StationByID(ctx context.Context, id string) (*Station, error)
	// FindStationByName returns the first PI station whose name contains
	// fragment ignoring case, or ErrNotFound.
	FindStationByName(ctx context.Context, fragment string) (*Station, error)
	// StationNames returns the non-empty station names of one role table.
	StationNames(ctx context.Context, role Role) ([]string, error)
}
