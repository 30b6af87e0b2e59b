package samples

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/stride/internal/model"
)

// Dir reads day files exported from a health app: one JSON file per
// calendar day, named YYYY-MM-DD.json.
type Dir struct {
	path string
}

// NewDir creates a provider over the given directory.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

type dayFile struct {
	Date  string      `json:"date"`
	Hours []hourEntry `json:"hours"`
}

type hourEntry struct {
	Hour       int     `json:"hour"`
	Steps      uint64  `json:"steps"`
	DistanceKm float64 `json:"distance_km"`
}

// HourlySamples implements Provider. A missing day file is an empty day.
func (d *Dir) HourlySamples(_ context.Context, day time.Time) ([]model.RawSample, error) {
	path := filepath.Join(d.path, dayKey(day)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read samples file: %w", err)
	}
	var file dayFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	normalized := model.Day(day)
	out := make([]model.RawSample, 0, len(file.Hours))
	for _, entry := range file.Hours {
		if entry.Hour < 0 || entry.Hour > 23 {
			return nil, fmt.Errorf("invalid hour %d in %s", entry.Hour, path)
		}
		out = append(out, model.RawSample{
			Hour:       entry.Hour,
			Day:        normalized,
			Steps:      entry.Steps,
			DistanceKm: entry.DistanceKm,
		})
	}
	return out, nil
}
