package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ride-height-service/internal/domain"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func validSnapshot() domain.Snapshot {
	records := []domain.AttractionRecord{
		{Name: "Python", Attributes: domain.Attributes{MinHeightCM: intPtr(120)}, ExtractionStatus: domain.StatusSuccess},
		{Name: "Carnaval Festival", Attributes: domain.Attributes{SupervisionHeightCM: intPtr(100)}, ExtractionStatus: domain.StatusFallback},
		{Name: "Broken", Attributes: domain.Attributes{MinHeightCM: intPtr(100), SupervisionHeightCM: intPtr(120)}, ExtractionStatus: domain.StatusFallback},
	}
	return domain.NewSnapshot("run-1", records, nil, []int{100, 120}, nil)
}

func failures(phases []*phase) map[string][]string {
	out := make(map[string][]string)
	for _, p := range phases {
		if !p.passed() {
			out[p.name] = p.errors
		}
	}
	return out
}

func TestValidate_ValidSnapshot(t *testing.T) {
	assert.Empty(t, failures(validate(validSnapshot())))
}

func TestValidate_MergedSnapshot(t *testing.T) {
	feed := domain.LiveFeed{
		FetchedAt: time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC),
		Entries: map[string]domain.FeedEntry{
			"Python":   {IsOpen: true, WaitMinutes: intPtr(10)},
			"Monorail": {IsOpen: true},
		},
	}
	merged, _ := domain.MergeLiveStatus(validSnapshot(), feed, domain.NewIdentityTable(nil), nil)
	assert.Empty(t, failures(validate(merged)))
}

func TestValidate_DetectsProblems(t *testing.T) {
	snap := validSnapshot()
	snap.TotalAttractions = 7
	snap.Flagged = nil
	snap.HeightCategories["120"] = domain.HeightCategoryBucket{Independent: []string{"Python", "Python"}}
	for i := range snap.Attractions {
		if snap.Attractions[i].Name == "Python" {
			snap.Attractions[i].LiveStatus = &domain.LiveStatus{IsOpen: boolPtr(false), WaitMinutes: intPtr(5)}
		}
	}

	got := failures(validate(snap))
	require.Len(t, got, 4)
	assert.Contains(t, got["Phase 1: Totals and statistics"], "total_attractions=7, attractions list has 3")
	assert.Contains(t, got["Phase 2: Records and companion bands"][0], "Broken")
	assert.NotEmpty(t, got["Phase 3: Height buckets"])
	assert.Contains(t, got["Phase 4: Live status"], "Python: wait time on an attraction that is not open")
}
