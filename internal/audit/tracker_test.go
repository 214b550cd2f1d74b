package audit

import (
	"context"
	"testing"
	"time"

	"github.com/rakshak-ai/internal/directory/directorytest"
)

func newTracker(t *testing.T) *Tracker {
	t.Helper()
	_, conn := directorytest.Open(t, nil, nil)
	return NewTracker(conn)
}

func TestRecordAndRecent(t *testing.T) {
	tr := newTracker(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	decisions := []Decision{
		{Input: "Mohadi", Normalized: "Mohadi", Language: "english", Decision: DecisionResolved,
			Strategy: "village", StationID: "pi-dindori", Source: "database", Match: "fuzzy",
			Attempts: map[string]any{"station_name": "not-matched", "village": "matched"},
			Duration: 120 * time.Millisecond, DecidedAt: base},
		{Input: "Mumbai", Normalized: "Mumbai", Language: "hindi", Decision: DecisionUnresolved,
			DecidedAt: base.Add(time.Minute)},
	}
	for _, d := range decisions {
		if err := tr.RecordDecision(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	got, err := tr.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent() = %d decisions", len(got))
	}
	if got[0].Input != "Mumbai" || got[1].Input != "Mohadi" {
		t.Errorf("order = %q, %q", got[0].Input, got[1].Input)
	}
	mohadi := got[1]
	if mohadi.ID == "" || mohadi.StationID != "pi-dindori" || mohadi.Match != "fuzzy" || mohadi.Duration != 120*time.Millisecond {
		t.Errorf("mohadi = %+v", mohadi)
	}
	if !mohadi.DecidedAt.Equal(base) {
		t.Errorf("DecidedAt = %v", mohadi.DecidedAt)
	}
	if mohadi.Attempts["village"] != "matched" {
		t.Errorf("attempts = %v", mohadi.Attempts)
	}
	if got[0].Attempts != nil {
		t.Errorf("empty attempts = %v", got[0].Attempts)
	}
}

func TestRecordFillsDefaults(t *testing.T) {
	tr := newTracker(t)
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	if err := tr.RecordDecision(context.Background(), Decision{Input: "x", Normalized: "x", Language: "english", Decision: DecisionError}); err != nil {
		t.Fatal(err)
	}
	got, err := tr.Recent(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID == "" || !got[0].DecidedAt.Equal(now) {
		t.Errorf("got = %+v", got)
	}
}

func TestGetStatistics(t *testing.T) {
	tr := newTracker(t)
	ctx := context.Background()
	for _, d := range []Decision{
		{Decision: DecisionResolved, Strategy: "village"},
		{Decision: DecisionResolved, Strategy: "village"},
		{Decision: DecisionResolved, Strategy: "geocode"},
		{Decision: DecisionUnresolved},
	} {
		d.Input, d.Normalized, d.Language = "in", "in", "english"
		if err := tr.RecordDecision(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := tr.GetStatistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 4 || stats.ByDecision[DecisionResolved] != 3 || stats.ByDecision[DecisionUnresolved] != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByStrategy["village"] != 2 || stats.ByStrategy["geocode"] != 1 || len(stats.ByStrategy) != 2 {
		t.Errorf("by strategy = %v", stats.ByStrategy)
	}
}
