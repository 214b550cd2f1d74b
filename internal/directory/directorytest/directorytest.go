// Package directorytest provides SQLite-backed directory fixtures for tests.
package directorytest

import (
	"context"
	"fmt"
	"testing"

	"github.com/rakshak-ai/internal/db"
	"github.com/rakshak-ai/internal/directory"
)

// Stations is a small slice of the Nashik rural directory.
var Stations = []directory.Station{
	{
		ID: "pi-ozar", Role: directory.RolePI, StationName: "Ozar Police Station",
		Address: "Ozar Mig, Niphad, Nashik", Email: "ozar.ps@example.org", FullName: "PI S. Pawar",
		OfficersMobileNumber: "9000000001", StationMobileNumber: "02550-275033",
		Location: &directory.Point{Longitude: 73.9271, Latitude: 20.0929},
	},
	{
		ID: "pi-vani", Role: directory.RolePI, StationName: "Vani Police Station",
		Address: "Vani, Dindori, Nashik", Email: "vani.ps@example.org", FullName: "PI R. Jadhav",
		OfficersMobileNumber: "9000000002", StationMobileNumber: "02557-221233",
		Location: &directory.Point{Longitude: 73.8877, Latitude: 20.3318},
	},
	{
		ID: "pi-dindori", Role: directory.RolePI, StationName: "Dindori Police Station",
		Address: "Dindori, Nashik", Email: "dindori.ps@example.org", FullName: "PI A. Shinde",
		OfficersMobileNumber: "9000000003", StationMobileNumber: "02557-221033",
		Location: &directory.Point{Longitude: 73.8327, Latitude: 20.2029},
	},
	{
		// No coordinates on record.
		ID: "pi-peth", Role: directory.RolePI, StationName: "Peth Police Station",
		Address: "Peth, Nashik", OfficersMobileNumber: "9000000004",
	},
	{
		ID: "sp-nashik", Role: directory.RoleSP, StationName: "Nashik Rural SP Office",
		Address: "Adgaon, Nashik",
	},
	{
		// Same name as a PI station; must be deduplicated.
		ID: "sp-ozar", Role: directory.RoleSP, StationName: "Ozar Police Station",
	},
}

// Villages map localities to the stations above.
var Villages = []directory.Village{
	{ID: "v1", Name: "Ozar", StationID: "pi-ozar"},
	{ID: "v2", Name: "Kurangaonwadi", StationID: "pi-dindori"},
	{ID: "v3", Name: "Mohadi", StationID: "pi-dindori"},
	{ID: "v4", Name: "Karanjvan", StationID: "pi-vani"},
	{ID: "v5", Name: "Kumbhale", StationID: "pi-peth"},
	{ID: "v6", Name: "Ambegaon", StationID: "pi-missing"},
}

// Memory creates an in-memory SQLite directory seeded with the given
// records. The caller closes the connection.
func Memory(ctx context.Context, stations []directory.Station, villages []directory.Village) (*directory.SQLStore, *db.Connection, error) {
	conn, err := db.NewConnection(ctx, db.DriverSQLite, ":memory:", 1)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := directory.EnsureSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("schema: %w", err)
	}
	for _, st := range stations {
		if err := directory.InsertStation(ctx, conn, st); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("seed station %s: %w", st.ID, err)
		}
	}
	for _, v := range villages {
		if err := directory.InsertVillage(ctx, conn, v); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("seed village %s: %w", v.Name, err)
		}
	}
	return directory.NewSQLStore(conn), conn, nil
}

// Open is Memory for tests. The connection is closed when the test ends.
func Open(t testing.TB, stations []directory.Station, villages []directory.Village) (*directory.SQLStore, *db.Connection) {
	t.Helper()
	store, conn, err := Memory(context.Background(), stations, villages)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return store, conn
}

// OpenDefault opens a store seeded with Stations and Villages.
func OpenDefault(t testing.TB) *directory.SQLStore {
	t.Helper()
	store, _ := Open(t, Stations, Villages)
	return store
}
