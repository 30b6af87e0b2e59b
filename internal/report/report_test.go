package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/stride/internal/model"
)

var day = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func hourRow(hour int, steps uint64, distance float64, shoeID int64, name string) model.AttributedHour {
	row := model.AttributedHour{Hour: hour, Day: day, Steps: steps, DistanceKm: distance}
	if shoeID != 0 {
		id := shoeID
		row.ShoeID = &id
		row.ShoeName = name
	}
	return row
}

func fullDay(rows ...model.AttributedHour) []model.AttributedHour {
	out := make([]model.AttributedHour, 24)
	for i := range out {
		out[i] = model.AttributedHour{Hour: i, Day: day}
	}
	for _, row := range rows {
		out[row.Hour] = row
	}
	return out
}

func TestRenderDay(t *testing.T) {
	hours := fullDay(
		hourRow(9, 500, 0.4, 1, "pegasus"),
		hourRow(10, 200, 0.2, 0, ""),
		hourRow(14, 1200, 0.9, 2, "vaporfly"),
	)

	var buf bytes.Buffer
	if err := RenderDay(&buf, "2025-06-01", hours); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"2025-06-01",
		"09:00", "pegasus", "500",
		"14:00", "vaporfly", "1200",
		"pegasus: 500 steps, 0.40 km over 1h",
		"Unattributed: 200 steps",
		"Steps ",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	// Empty unowned hours are filtered from the table.
	if strings.Contains(out, "03:00") {
		t.Fatalf("zero-step unowned hour rendered:\n%s", out)
	}
}

func TestRenderDayEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderDay(&buf, "2025-06-01", fullDay()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No activity recorded.") {
		t.Fatalf("empty day not reported:\n%s", buf.String())
	}
}

func TestDayTotals(t *testing.T) {
	hours := fullDay(
		hourRow(8, 100, 0.1, 1, "pegasus"),
		hourRow(9, 500, 0.4, 1, "pegasus"),
		hourRow(10, 50, 0.05, 0, ""),
		hourRow(11, 900, 0.7, 2, "vaporfly"),
	)
	owned, unowned := DayTotals(hours)
	if len(owned) != 2 {
		t.Fatalf("expected 2 owned totals, got %d", len(owned))
	}
	if owned[0].Name != "vaporfly" || owned[0].Steps != 900 {
		t.Fatalf("totals not sorted by steps: %+v", owned)
	}
	if owned[1].Hours != 2 || owned[1].Steps != 600 {
		t.Fatalf("pegasus total wrong: %+v", owned[1])
	}
	if unowned != 50 {
		t.Fatalf("unowned steps = %d, want 50", unowned)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("empty input produced %q", got)
	}
	flat := Sparkline([]float64{3, 3, 3})
	if len(flat) != 3 || strings.Trim(flat, string(flat[0])) != "" {
		t.Fatalf("flat series not uniform: %q", flat)
	}
	spark := Sparkline([]float64{0, 5, 10})
	if len(spark) != 3 {
		t.Fatalf("sparkline length = %d, want 3", len(spark))
	}
	if spark[0] != ' ' || spark[2] != '@' {
		t.Fatalf("extremes not mapped to edge glyphs: %q", spark)
	}
}
