// Command genmock writes a reproducible snapshot fixture built from the
// embedded catalog alone: every attraction gets its catalog fallback values,
// as if no page could be fetched. With -live it also merges a synthetic feed
// in which every catalog attraction is open.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/attractions.json -live
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/ride-height-service/internal/catalog"
	"github.com/couchcryptid/ride-height-service/internal/domain"
	"github.com/couchcryptid/ride-height-service/internal/snapshot"
)

var mockTime = time.Date(2026, time.July, 4, 9, 0, 0, 0, time.UTC)

func main() {
	out := flag.String("out", "data/mock/attractions.json", "output snapshot path")
	live := flag.Bool("live", false, "merge a synthetic live feed")
	flag.Parse()

	cat, err := catalog.Default()
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	snap := generate(cat, *live)

	store := snapshot.NewStore(*out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := store.Replace(snap); err != nil {
		log.Fatalf("write snapshot: %v", err)
	}
	fmt.Printf("wrote %s: %d attractions, %d shows, %d flagged\n",
		*out, snap.TotalAttractions, snap.TotalShows, len(snap.Flagged))
}

// generate builds the fixture under a fixed clock and a name-based run ID so
// repeated runs produce identical files.
func generate(cat *catalog.Catalog, live bool) domain.Snapshot {
	domain.SetClock(clockwork.NewFakeClockAt(mockTime))
	defer domain.SetClock(nil)

	fallbacks := cat.FallbackTable()
	base := cat.BaseRecords("https://www.efteling.com/en/park/attractions")
	records := make([]domain.AttractionRecord, 0, len(base))
	for _, rec := range base {
		records = append(records, domain.Overlay(domain.FailedRecord(rec), fallbacks))
	}

	runID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("ride-height-service/genmock")).String()
	sources := []domain.SourceInfo{{
		Name:      "Catalog (mock)",
		URL:       "catalog.toml",
		Status:    "success",
		FetchedAt: mockTime,
	}}
	snap := domain.NewSnapshot(runID, records, cat.ShowRecords("https://www.efteling.com/en/park/shows"),
		domain.DefaultTrackedHeights, sources)
	if !live {
		return snap
	}

	feed := domain.LiveFeed{
		Entries:     make(map[string]domain.FeedEntry, len(records)),
		FetchedAt:   mockTime,
		Source:      "mock",
		Attribution: "Synthetic feed",
	}
	for i, rec := range snap.Attractions {
		wait := (i % 6) * 5
		feed.Entries[rec.Name] = domain.FeedEntry{IsOpen: true, WaitMinutes: &wait, ReportedAt: mockTime}
	}
	merged, _ := domain.MergeLiveStatus(snap, feed, cat.IdentityTable(), nil)
	return merged
}
