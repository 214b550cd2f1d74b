package import_pkg

import (
	"context"
	"fmt"

	"github.com/rakshak-ai/internal/directory"
)

// ImportStations imports one role table.
// Columns: _id,stationName,address,email,fullName,officersmobNumber,stationMobNumber,longitude,latitude
func (ci *CSVImporter) ImportStations(ctx context.Context, filename string, role directory.Role) (Stats, error) {
	return ci.importFile(ctx, filename, string(role)+"_stations", ci.stationRow(role))
}

// ImportVillages imports the village table.
// Columns: _id,villagename,policeStationId
func (ci *CSVImporter) ImportVillages(ctx context.Context, filename string) (Stats, error) {
	return ci.importFile(ctx, filename, "villages", ci.villageRow)
}

func (ci *CSVImporter) stationRow(role directory.Role) func(context.Context, []string) error {
	return func(ctx context.Context, record []string) error {
		if len(record) < 2 {
			return fmt.Errorf("insufficient columns: expected at least 2, got %d", len(record))
		}
		st := directory.Station{
			ID:                   field(record, 0),
			Role:                 role,
			StationName:          field(record, 1),
			Address:              field(record, 2),
			Email:                field(record, 3),
			FullName:             field(record, 4),
			OfficersMobileNumber: field(record, 5),
			StationMobileNumber:  field(record, 6),
		}
		if st.ID == "" || st.StationName == "" {
			return fmt.Errorf("station row missing id or name: %v", record)
		}
		// Both coordinates or none.
		lon, lat := parseFloat(field(record, 7)), parseFloat(field(record, 8))
		if lon != nil && lat != nil {
			st.Location = &directory.Point{Longitude: *lon, Latitude: *lat}
		}
		return directory.InsertStation(ctx, ci.conn, st)
	}
}

func (ci *CSVImporter) villageRow(ctx context.Context, record []string) error {
	if len(record) < 3 {
		return fmt.Errorf("insufficient columns: expected 3, got %d", len(record))
	}
	v := directory.Village{
		ID:        field(record, 0),
		Name:      field(record, 1),
		StationID: field(record, 2),
	}
	if v.ID == "" || v.Name == "" {
		return fmt.Errorf("village row missing id or name: %v", record)
	}
	return directory.InsertVillage(ctx, ci.conn, v)
}
