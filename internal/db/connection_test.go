package db

import (
	"context"
	"testing"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		query  string
		want   string
	}{
		{
			name:   "postgres positional",
			driver: DriverPostgres,
			query:  "SELECT id FROM villages WHERE LOWER(village_name) = LOWER(?) AND station_id = ?",
			want:   "SELECT id FROM villages WHERE LOWER(village_name) = LOWER($1) AND station_id = $2",
		},
		{
			name:   "postgres literal untouched",
			driver: DriverPostgres,
			query:  "SELECT '?' || station_name FROM pi_users WHERE id = ?",
			want:   "SELECT '?' || station_name FROM pi_users WHERE id = $1",
		},
		{
			name:   "sqlite unchanged",
			driver: DriverSQLite,
			query:  "SELECT id FROM villages WHERE id = ?",
			want:   "SELECT id FROM villages WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rebind(tt.driver, tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewConnectionSQLite(t *testing.T) {
	conn, err := NewConnection(context.Background(), DriverSQLite, ":memory:", 0)
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	defer conn.Close()

	var one int
	if err := conn.DB.QueryRow(conn.Rebind("SELECT ?"), 1).Scan(&one); err != nil {
		t.Fatalf("query: %v", err)
	}
	if one != 1 {
		t.Errorf("got %d, want 1", one)
	}
}

func TestNewConnectionUnknownDriver(t *testing.T) {
	if _, err := NewConnection(context.Background(), "mysql", "", 0); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
