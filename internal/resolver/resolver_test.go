package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/rakshak-ai/internal/directory"
	"github.com/rakshak-ai/internal/directory/directorytest"
)

type brokenStore struct {
	directory.Store
}

func (brokenStore) FindVillage(context.Context, string) (*directory.Village, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) FindStationByName(context.Context, string) (*directory.Station, error) {
	return nil, errors.New("connection refused")
}

func TestResolveByName(t *testing.T) {
	r := New(directorytest.OpenDefault(t))
	ctx := context.Background()

	tests := []struct {
		name        string
		input       string
		wantSource  Source
		wantVillage string
		wantStation string
		minScore    float64
	}{
		{"exact any case", "OZAR", SourceExact, "Ozar", "pi-ozar", 1.0},
		{"exact trimmed", "  mohadi ", SourceExact, "Mohadi", "pi-dindori", 1.0},
		{"missing letter", "kurangaonvadi", SourceFuzzy, "Kurangaonwadi", "pi-dindori", 0.7},
		{"exact second village", "Karanjvan", SourceExact, "Karanjvan", "pi-vani", 1.0},
		{"typo", "Karanjvaan", SourceFuzzy, "Karanjvan", "pi-vani", 0.7},
		{"dangling station", "ambegaon", SourceExact, "Ambegaon", "", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.ResolveByName(ctx, tt.input)
			if err != nil {
				t.Fatalf("ResolveByName(%q): %v", tt.input, err)
			}
			if res.Source != tt.wantSource {
				t.Fatalf("Source = %s, want %s", res.Source, tt.wantSource)
			}
			if !res.Matched() || res.Village.Name != tt.wantVillage {
				t.Fatalf("Village = %+v, want %s", res.Village, tt.wantVillage)
			}
			if res.Score < tt.minScore || res.Score > 1.0 {
				t.Errorf("Score = %v, want >= %v", res.Score, tt.minScore)
			}
			if tt.wantSource == SourceExact && res.Score != 1.0 {
				t.Errorf("exact match score = %v, want 1.0", res.Score)
			}
			switch {
			case tt.wantStation == "" && res.Station != nil:
				t.Errorf("Station = %+v, want nil", res.Station)
			case tt.wantStation != "" && (res.Station == nil || res.Station.ID != tt.wantStation):
				t.Errorf("Station = %+v, want %s", res.Station, tt.wantStation)
			}
		})
	}
}

func TestResolveByNameNoMatch(t *testing.T) {
	r := New(directorytest.OpenDefault(t))

	res, err := r.ResolveByName(context.Background(), "xyz")
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != SourceNone || res.Matched() {
		t.Fatalf("got %+v, want no match", res)
	}
	if res.Score >= 0.3 {
		t.Errorf("Score = %v, want < 0.3", res.Score)
	}
	if res.Station != nil || res.Village != nil {
		t.Errorf("unexpected match data: %+v", res)
	}
}

func TestResolveByNameEmpty(t *testing.T) {
	r := New(directorytest.OpenDefault(t))

	for _, input := range []string{"", "   ", "\t"} {
		res, err := r.ResolveByName(context.Background(), input)
		if err != nil {
			t.Fatalf("ResolveByName(%q): %v", input, err)
		}
		if res.Source != SourceNone || res.Score != 0 {
			t.Errorf("ResolveByName(%q) = %+v", input, res)
		}
	}
}

func TestResolveByNameThreshold(t *testing.T) {
	r := New(directorytest.OpenDefault(t), WithThreshold(0.95))

	res, err := r.ResolveByName(context.Background(), "kurangaonvadi")
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != SourceNone {
		t.Fatalf("Source = %s, want none above 0.95", res.Source)
	}
	if res.Hint == nil || res.Hint.Name != "Kurangaonwadi" {
		t.Errorf("Hint = %+v, want Kurangaonwadi", res.Hint)
	}
	if res.Score < 0.9 {
		t.Errorf("Score = %v, want best score surfaced", res.Score)
	}
}

func TestResolveByNameDirectoryUnavailable(t *testing.T) {
	r := New(brokenStore{})

	_, err := r.ResolveByName(context.Background(), "Ozar")
	if !errors.Is(err, ErrDirectoryUnavailable) {
		t.Errorf("err = %v, want ErrDirectoryUnavailable", err)
	}
}

func TestStationByName(t *testing.T) {
	r := New(directorytest.OpenDefault(t))
	ctx := context.Background()

	st, err := r.StationByName(ctx, "ozar police station")
	if err != nil {
		t.Fatal(err)
	}
	if st.ID != "pi-ozar" {
		t.Errorf("station = %s, want pi-ozar", st.ID)
	}

	if _, err := r.StationByName(ctx, "Peth"); !errors.Is(err, ErrNoCoordinates) {
		t.Errorf("Peth err = %v, want ErrNoCoordinates", err)
	}
	if _, err := r.StationByName(ctx, "Mumbai"); !errors.Is(err, ErrNoInternalMatch) {
		t.Errorf("Mumbai err = %v, want ErrNoInternalMatch", err)
	}
	if _, err := r.StationByName(ctx, " "); !errors.Is(err, ErrInputEmpty) {
		t.Errorf("blank err = %v, want ErrInputEmpty", err)
	}
	if _, err := New(brokenStore{}).StationByName(ctx, "Ozar"); !errors.Is(err, ErrDirectoryUnavailable) {
		t.Errorf("broken store err = %v, want ErrDirectoryUnavailable", err)
	}
}
