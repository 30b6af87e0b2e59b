package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/stride/internal/model"
)

const (
	sparkChars          = " .:-=+*#%@"
	terminalWidthBackup = 80
)

// ShoeTotal aggregates a day's owned activity for one shoe.
type ShoeTotal struct {
	Name       string
	Hours      int
	Steps      uint64
	DistanceKm float64
}

// DayTotals sums owned and unowned activity per shoe for display.
func DayTotals(hours []model.AttributedHour) (owned []ShoeTotal, unownedSteps uint64) {
	byName := map[string]*ShoeTotal{}
	for _, hour := range hours {
		if !hour.Owned() {
			unownedSteps += hour.Steps
			continue
		}
		total, ok := byName[hour.ShoeName]
		if !ok {
			total = &ShoeTotal{Name: hour.ShoeName}
			byName[hour.ShoeName] = total
		}
		total.Hours++
		total.Steps += hour.Steps
		total.DistanceKm += hour.DistanceKm
	}
	for _, total := range byName {
		owned = append(owned, *total)
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].Steps > owned[j].Steps })
	return owned, unownedSteps
}

// RenderDay writes the reconciled table, a steps sparkline, and per-shoe
// totals for one day. Hours with zero steps and no owner are filtered
// here, not in the engine.
func RenderDay(w io.Writer, day string, hours []model.AttributedHour) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", day); err != nil {
		return err
	}

	rows := make([][]string, 0, len(hours))
	for _, hour := range hours {
		if hour.Steps == 0 && !hour.Owned() {
			continue
		}
		owner := "-"
		if hour.Owned() {
			owner = hour.ShoeName
		}
		rows = append(rows, []string{
			fmt.Sprintf("%02d:00", hour.Hour),
			owner,
			fmt.Sprintf("%d", hour.Steps),
			fmt.Sprintf("%.2f", hour.DistanceKm),
		})
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No activity recorded.")
		return err
	}
	width := TerminalWidth()
	headers := []string{"Hour", "Shoe", "Steps", "km"}
	for _, line := range formatTable(headers, rows, map[int]bool{2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, clampLine(line, width)); err != nil {
			return err
		}
	}

	values := make([]float64, len(hours))
	for i, hour := range hours {
		values[i] = float64(hour.Steps)
	}
	if _, err := fmt.Fprintf(w, "\nSteps %s\n", Sparkline(values)); err != nil {
		return err
	}

	owned, unowned := DayTotals(hours)
	if len(owned) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		for _, total := range owned {
			if _, err := fmt.Fprintf(w, "%s: %d steps, %.2f km over %dh\n",
				total.Name, total.Steps, total.DistanceKm, total.Hours); err != nil {
				return err
			}
		}
	}
	if unowned > 0 {
		if _, err := fmt.Fprintf(w, "Unattributed: %d steps\n", unowned); err != nil {
			return err
		}
	}
	return nil
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func clampLine(line string, width int) string {
	if width <= 0 || displayWidth(line) <= width {
		return line
	}
	runes := []rune(line)
	return string(runes[:width])
}

// TerminalWidth returns the current terminal width or a conservative
// fallback when stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
