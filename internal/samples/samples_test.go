package samples

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/stride/internal/model"
)

var day = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestDirReadsDayFile(t *testing.T) {
	dir := t.TempDir()
	content := `{"date":"2025-06-01","hours":[{"hour":9,"steps":500,"distance_km":0.4},{"hour":14,"steps":1200,"distance_km":0.9}]}`
	if err := os.WriteFile(filepath.Join(dir, "2025-06-01.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write day file: %v", err)
	}

	provider := NewDir(dir)
	got, err := provider.HourlySamples(context.Background(), day)
	if err != nil {
		t.Fatalf("hourly samples: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if got[0].Hour != 9 || got[0].Steps != 500 || got[0].DistanceKm != 0.4 {
		t.Fatalf("unexpected first sample: %+v", got[0])
	}
	if !got[1].Day.Equal(day) {
		t.Fatalf("sample day = %v, want %v", got[1].Day, day)
	}
}

func TestDirMissingFileIsEmptyDay(t *testing.T) {
	provider := NewDir(t.TempDir())
	got, err := provider.HourlySamples(context.Background(), day)
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no samples, got %d", len(got))
	}
}

func TestDirRejectsBadHour(t *testing.T) {
	dir := t.TempDir()
	content := `{"date":"2025-06-01","hours":[{"hour":24,"steps":1}]}`
	if err := os.WriteFile(filepath.Join(dir, "2025-06-01.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write day file: %v", err)
	}
	if _, err := NewDir(dir).HourlySamples(context.Background(), day); err == nil {
		t.Fatalf("expected error for hour out of range")
	}
}

func TestStepsInRange(t *testing.T) {
	provider := NewStatic()
	provider.Add(model.RawSample{Hour: 8, Day: day, Steps: 100, DistanceKm: 0.1})
	provider.Add(model.RawSample{Hour: 9, Day: day, Steps: 500, DistanceKm: 0.4})
	provider.Add(model.RawSample{Hour: 10, Day: day, Steps: 200, DistanceKm: 0.2})
	nextDay := day.AddDate(0, 0, 1)
	provider.Add(model.RawSample{Hour: 0, Day: nextDay, Steps: 50, DistanceKm: 0.05})

	ctx := context.Background()
	steps, distance, err := StepsInRange(ctx, provider, day.Add(9*time.Hour), day.Add(10*time.Hour))
	if err != nil {
		t.Fatalf("steps in range: %v", err)
	}
	if steps != 500 || distance != 0.4 {
		t.Fatalf("got %d steps %.2f km, want 500 / 0.40", steps, distance)
	}

	// Range spanning midnight picks up the next day's sample.
	steps, _, err = StepsInRange(ctx, provider, day.Add(10*time.Hour), nextDay.Add(time.Hour))
	if err != nil {
		t.Fatalf("steps in range: %v", err)
	}
	if steps != 250 {
		t.Fatalf("got %d steps, want 250", steps)
	}

	active, err := HasActivityInRange(ctx, provider, day.Add(11*time.Hour), day.Add(12*time.Hour))
	if err != nil {
		t.Fatalf("has activity: %v", err)
	}
	if active {
		t.Fatalf("empty window reported activity")
	}
}
