package directory

import (
	"context"
	"fmt"

	"github.com/rakshak-ai/internal/db"
)

// schema is portable between Postgres and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS pi_users (
		id                 TEXT PRIMARY KEY,
		station_name       TEXT NOT NULL,
		address            TEXT,
		email              TEXT,
		full_name          TEXT,
		mob_number         TEXT,
		station_mob_number TEXT,
		longitude          DOUBLE PRECISION,
		latitude           DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS sp_users (
		id                 TEXT PRIMARY KEY,
		station_name       TEXT NOT NULL,
		address            TEXT,
		email              TEXT,
		full_name          TEXT,
		mob_number         TEXT,
		station_mob_number TEXT,
		longitude          DOUBLE PRECISION,
		latitude           DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS villages (
		id           TEXT PRIMARY KEY,
		village_name TEXT NOT NULL,
		station_id   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_villages_name ON villages (LOWER(village_name))`,
	`CREATE TABLE IF NOT EXISTS callers (
		mobile_no  TEXT PRIMARY KEY,
		created_at BIGINT NOT NULL,
		last_used  BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS location_audit (
		id            TEXT PRIMARY KEY,
		input         TEXT NOT NULL,
		normalized    TEXT NOT NULL,
		language      TEXT NOT NULL,
		decision      TEXT NOT NULL,
		strategy      TEXT,
		station_id    TEXT,
		source        TEXT,
		match_source  TEXT,
		attempts_json TEXT,
		duration_ms   BIGINT NOT NULL,
		decided_at    BIGINT NOT NULL
	)`,
}

// EnsureSchema creates the directory, caller and audit tables if missing.
func EnsureSchema(ctx context.Context, conn *db.Connection) error {
	for _, stmt := range schema {
		if _, err := conn.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// InsertStation writes a station row into its role table. Used for seeding.
func InsertStation(ctx context.Context, conn *db.Connection, st Station) error {
	table, err := roleTable(st.Role)
	if err != nil {
		return err
	}

	var lon, lat interface{}
	if st.Location != nil {
		lon, lat = st.Location.Longitude, st.Location.Latitude
	}

	_, err = conn.DB.ExecContext(ctx, conn.Rebind(`
		INSERT INTO `+table+` (id, station_name, address, email, full_name, mob_number, station_mob_number, longitude, latitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), st.ID, st.StationName, st.Address, st.Email, st.FullName,
		st.OfficersMobileNumber, st.StationMobileNumber, lon, lat)
	if err != nil {
		return fmt.Errorf("insert station %s: %w", st.ID, err)
	}
	return nil
}

// InsertVillage writes a village row. Used for seeding.
func InsertVillage(ctx context.Context, conn *db.Connection, v Village) error {
	_, err := conn.DB.ExecContext(ctx, conn.Rebind(`
		INSERT INTO villages (id, village_name, station_id) VALUES (?, ?, ?)
	`), v.ID, v.Name, v.StationID)
	if err != nil {
		return fmt.Errorf("insert village %s: %w", v.ID, err)
	}
	return nil
}
