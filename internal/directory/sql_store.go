package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rakshak-ai/internal/db"
)

// SQLStore reads the directory tables over database/sql. It works against
// Postgres in production and SQLite for local runs and tests.
type SQLStore struct {
	conn *db.Connection
}

// NewSQLStore creates a store on an open connection.
func NewSQLStore(conn *db.Connection) *SQLStore {
	return &SQLStore{conn: conn}
}

const stationColumns = `id, station_name, address, email, full_name, mob_number, station_mob_number, longitude, latitude`

// FindVillage does a case-insensitive exact lookup on village_name.
// SQLite's LOWER folds ASCII only, so non-ASCII names that miss in SQL are
// folded in Go against the full list.
func (s *SQLStore) FindVillage(ctx context.Context, name string) (*Village, error) {
	name = strings.TrimSpace(name)
	row := s.conn.DB.QueryRowContext(ctx, s.conn.Rebind(`
		SELECT id, village_name, COALESCE(station_id, '')
		FROM villages
		WHERE LOWER(village_name) = LOWER(?)
		ORDER BY id
		LIMIT 1
	`), name)

	var v Village
	err := row.Scan(&v.ID, &v.Name, &v.StationID)
	switch {
	case err == nil:
		return &v, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("find village: %w", err)
	case isASCII(name):
		return nil, ErrNotFound
	}

	villages, err := s.ListVillages(ctx)
	if err != nil {
		return nil, err
	}
	for i := range villages {
		if strings.EqualFold(villages[i].Name, name) {
			return &villages[i], nil
		}
	}
	return nil, ErrNotFound
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// ListVillages returns all villages ordered by id.
func (s *SQLStore) ListVillages(ctx context.Context) ([]Village, error) {
	rows, err := s.conn.DB.QueryContext(ctx, `
		SELECT id, village_name, COALESCE(station_id, '')
		FROM villages
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list villages: %w", err)
	}
	defer rows.Close()

	var villages []Village
	for rows.Next() {
		var v Village
		if err := rows.Scan(&v.ID, &v.Name, &v.StationID); err != nil {
			return nil, fmt.Errorf("scan village: %w", err)
		}
		villages = append(villages, v)
	}
	return villages, rows.Err()
}

// StationByID looks up a PI station.
func (s *SQLStore) StationByID(ctx context.Context, id string) (*Station, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	row := s.conn.DB.QueryRowContext(ctx, s.conn.Rebind(`
		SELECT `+stationColumns+`
		FROM pi_users
		WHERE id = ?
	`), id)
	return scanStation(row, RolePI)
}

// FindStationByName matches fragment anywhere in station_name.
func (s *SQLStore) FindStationByName(ctx context.Context, fragment string) (*Station, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, ErrNotFound
	}
	row := s.conn.DB.QueryRowContext(ctx, s.conn.Rebind(`
		SELECT `+stationColumns+`
		FROM pi_users
		WHERE LOWER(station_name) LIKE ? ESCAPE '\'
		ORDER BY id
		LIMIT 1
	`), "%"+escapeLike(strings.ToLower(fragment))+"%")
	return scanStation(row, RolePI)
}

// StationNames lists the station names of one role table.
func (s *SQLStore) StationNames(ctx context.Context, role Role) ([]string, error) {
	table, err := roleTable(role)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.DB.QueryContext(ctx, `
		SELECT station_name
		FROM `+table+`
		WHERE station_name IS NOT NULL AND station_name <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("query %s names: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan %s name: %w", table, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Ping checks that the store is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.conn.DB.PingContext(ctx)
}

// Counts returns the number of rows in each directory table.
func (s *SQLStore) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, 3)
	for _, table := range []string{"pi_users", "sp_users", "villages"} {
		var n int
		if err := s.conn.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func roleTable(role Role) (string, error) {
	switch role {
	case RolePI:
		return "pi_users", nil
	case RoleSP:
		return "sp_users", nil
	}
	return "", fmt.Errorf("unknown station role %q", role)
}

func scanStation(row *sql.Row, role Role) (*Station, error) {
	var (
		st         Station
		address    sql.NullString
		email      sql.NullString
		fullName   sql.NullString
		officerMob sql.NullString
		stationMob sql.NullString
		lon, lat   sql.NullFloat64
	)
	err := row.Scan(&st.ID, &st.StationName, &address, &email, &fullName,
		&officerMob, &stationMob, &lon, &lat)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan station: %w", err)
	}

	st.Role = role
	st.Address = address.String
	st.Email = email.String
	st.FullName = fullName.String
	st.OfficersMobileNumber = officerMob.String
	st.StationMobileNumber = stationMob.String
	if lon.Valid && lat.Valid {
		st.Location = &Point{Longitude: lon.Float64, Latitude: lat.Float64}
	}
	return &st, nil
}

// escapeLike escapes LIKE wildcards so spoken input is matched literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
