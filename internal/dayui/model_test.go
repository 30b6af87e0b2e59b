package dayui

import (
	"testing"
	"time"

	"github.com/verte-zerg/stride/internal/model"
)

func TestBuildHourTableRows(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	shoeID := int64(1)
	hours := []model.AttributedHour{
		{Hour: 0, Day: day},
		{Hour: 1, Day: day, Steps: 500, ShoeID: &shoeID, ShoeName: "pegasus"},
	}
	tbl := buildHourTable(hours, 60, 10)
	rows := tbl.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "-" {
		t.Fatalf("unowned hour rendered as %q", rows[0][1])
	}
	if rows[1][0] != "01:00" || rows[1][1] != "pegasus" || rows[1][2] != "500" {
		t.Fatalf("unexpected owned row: %v", rows[1])
	}
}

func TestBuildHourTableTruncatesLongNames(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	shoeID := int64(1)
	hours := []model.AttributedHour{
		{Hour: 0, Day: day, ShoeID: &shoeID, ShoeName: "an unreasonably long shoe name"},
	}
	tbl := buildHourTable(hours, 60, 10)
	owner := tbl.Rows()[0][1]
	if len([]rune(owner)) > 18 {
		t.Fatalf("owner cell not truncated: %q", owner)
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("hello", 3); got != "hel" {
		t.Fatalf("got %q", got)
	}
	if got := truncateLine("hello", 0); got != "hello" {
		t.Fatalf("zero width must pass through, got %q", got)
	}
}
