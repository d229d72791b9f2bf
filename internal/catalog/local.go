package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Record mirrors one entry of the bundled metadata dataset and the remote
// catalog service's response payload.
type Record struct {
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	PosterPath  string   `json:"poster_path"`
	ReleaseDate string   `json:"release_date,omitempty"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
}

// Dataset is an in-memory title index over the bundled metadata file.
// Matching is case-insensitive exact match.
type Dataset struct {
	byTitle map[string]Record
}

// LoadDataset reads and indexes the JSON dataset at path.
func LoadDataset(path string) (*Dataset, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return ParseDataset(payload)
}

// ParseDataset indexes a raw JSON array of records.
func ParseDataset(payload []byte) (*Dataset, error) {
	var records []Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return NewDataset(records), nil
}

// NewDataset indexes the given records. Later duplicates win.
func NewDataset(records []Record) *Dataset {
	byTitle := make(map[string]Record, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.Title) == "" {
			continue
		}
		byTitle[normalizeTitle(rec.Title)] = rec
	}
	return &Dataset{byTitle: byTitle}
}

// Find returns the record for the given title, if present.
func (d *Dataset) Find(title string) (Record, bool) {
	rec, ok := d.byTitle[normalizeTitle(title)]
	return rec, ok
}

// Len reports the number of indexed records.
func (d *Dataset) Len() int {
	return len(d.byTitle)
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
