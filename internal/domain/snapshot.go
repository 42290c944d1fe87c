package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// ScrapeStats counts attraction records by extraction status.
type ScrapeStats struct {
	Successful int `json:"successful"`
	Fallback   int `json:"fallback"`
	Failed     int `json:"failed"`
}

// SourceInfo is the provenance entry for one upstream source.
type SourceInfo struct {
	Name               string    `json:"name"`
	URL                string    `json:"url"`
	Status             string    `json:"status"`
	AttractionsScraped *int      `json:"attractions_scraped,omitempty"`
	AttractionsFailed  *int      `json:"attractions_failed,omitempty"`
	FetchedAt          time.Time `json:"fetched_at"`
}

// WaitTimesInfo describes the last live-status merge.
type WaitTimesInfo struct {
	FetchedAt   time.Time `json:"fetched_at"`
	MergedAt    time.Time `json:"merged_at"`
	ParkOpen    bool      `json:"park_open"`
	Source      string    `json:"source"`
	Attribution string    `json:"attribution,omitempty"`
	Matched     int       `json:"matched"`
	Unmatched   []string  `json:"unmatched"`
}

// Snapshot is the full persisted state served to readers.
type Snapshot struct {
	RunID            string                          `json:"run_id"`
	LastUpdated      time.Time                       `json:"last_updated"`
	TotalAttractions int                             `json:"total_attractions"`
	TotalShows       int                             `json:"total_shows"`
	ScrapeStats      ScrapeStats                     `json:"scrape_stats"`
	Attractions      []AttractionRecord              `json:"attractions"`
	Shows            []ShowRecord                    `json:"shows"`
	TrackedHeights   []int                           `json:"tracked_heights"`
	HeightCategories map[string]HeightCategoryBucket `json:"height_categories"`
	Flagged          []FlaggedRecord                 `json:"flagged,omitempty"`
	Sources          []SourceInfo                    `json:"sources"`
	WaitTimesInfo    *WaitTimesInfo                  `json:"wait_times_info,omitempty"`
}

// NewSnapshot assembles a snapshot from a completed scrape cycle. Attractions
// are sorted for presentation and buckets are built for every tracked height.
func NewSnapshot(runID string, attractions []AttractionRecord, shows []ShowRecord, heights []int, sources []SourceInfo) Snapshot {
	sorted := SortForPresentation(attractions)
	index, flagged := BuildHeightIndex(sorted, heights)

	return Snapshot{
		RunID:            runID,
		LastUpdated:      clock.Now().UTC(),
		TotalAttractions: len(sorted),
		TotalShows:       len(shows),
		ScrapeStats:      CountStatuses(sorted),
		Attractions:      sorted,
		Shows:            slices.Clone(shows),
		TrackedHeights:   slices.Clone(heights),
		HeightCategories: index,
		Flagged:          flagged,
		Sources:          slices.Clone(sources),
	}
}

// CountStatuses tallies extraction statuses.
func CountStatuses(records []AttractionRecord) ScrapeStats {
	var s ScrapeStats
	for _, rec := range records {
		switch rec.ExtractionStatus {
		case StatusSuccess:
			s.Successful++
		case StatusFallback:
			s.Fallback++
		default:
			s.Failed++
		}
	}
	return s
}

// Attraction looks up an attraction by name.
func (s Snapshot) Attraction(name string) (AttractionRecord, bool) {
	for _, rec := range s.Attractions {
		if rec.Name == name {
			return rec, true
		}
	}
	return AttractionRecord{}, false
}

// Bucket returns the bucket for a height: the stored one for tracked heights,
// otherwise computed on demand from the consistent attractions.
func (s Snapshot) Bucket(heightCM int) (HeightCategoryBucket, error) {
	if err := ValidateQueryHeight(heightCM); err != nil {
		return HeightCategoryBucket{}, err
	}
	if b, ok := s.HeightCategories[HeightKey(heightCM)]; ok {
		return b, nil
	}
	ok, _ := CheckConsistency(s.Attractions)
	return Categorize(ok, heightCM), nil
}

// IsTracked reports whether the snapshot stores buckets for heightCM.
func (s Snapshot) IsTracked(heightCM int) bool {
	_, ok := s.HeightCategories[HeightKey(heightCM)]
	return ok
}

// MarshalSnapshot encodes a snapshot as indented JSON.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a snapshot document.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}
