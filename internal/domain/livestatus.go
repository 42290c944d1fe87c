package domain

import (
	"slices"
	"time"
)

// FeedEntry is one ride reported by the queue-status feed.
type FeedEntry struct {
	IsOpen      bool
	WaitMinutes *int
	ReportedAt  time.Time
}

// LiveFeed is a queue-status reading keyed by the feed's own ride names.
type LiveFeed struct {
	Entries     map[string]FeedEntry
	FetchedAt   time.Time
	Source      string
	Attribution string
}

// MergeReport summarizes a live-status merge.
type MergeReport struct {
	Matched   int
	Unknown   int
	Open      int
	Unmatched []string
	Flagged   []FlaggedRecord
}

// MergeLiveStatus attaches the feed to the snapshot's attractions and rebuilds
// every tracked height's buckets from the updated records. Feed names are
// resolved through ids before lookup. Attractions without a feed entry get an
// unknown open state; wait times are only kept for open attractions. Feed
// entries that resolve to no attraction are reported, never added. The input
// snapshot is not modified.
func MergeLiveStatus(snap Snapshot, feed LiveFeed, ids IdentityTable, heights []int) (Snapshot, MergeReport) {
	if len(heights) == 0 {
		heights = snap.TrackedHeights
	}
	if len(heights) == 0 {
		heights = DefaultTrackedHeights
	}

	grouped := make(map[string][]FeedEntry, len(feed.Entries))
	external := make(map[string][]string, len(feed.Entries))
	parkOpen := false
	for name, entry := range feed.Entries {
		canonical := ids.Resolve(name)
		grouped[canonical] = append(grouped[canonical], entry)
		external[canonical] = append(external[canonical], name)
		if entry.IsOpen {
			parkOpen = true
		}
	}

	var report MergeReport
	out := snap
	out.Attractions = make([]AttractionRecord, len(snap.Attractions))
	known := make(map[string]bool, len(snap.Attractions))
	for i, rec := range snap.Attractions {
		known[rec.Name] = true
		status := combineEntries(grouped[rec.Name])
		rec.LiveStatus = &status
		out.Attractions[i] = rec

		switch {
		case status.IsOpen == nil:
			report.Unknown++
		default:
			report.Matched++
			if *status.IsOpen {
				report.Open++
			}
		}
	}

	report.Unmatched = []string{}
	for canonical, names := range external {
		if !known[canonical] {
			report.Unmatched = append(report.Unmatched, names...)
		}
	}
	slices.Sort(report.Unmatched)

	out.TrackedHeights = slices.Clone(heights)
	out.HeightCategories, out.Flagged = BuildHeightIndex(out.Attractions, heights)
	report.Flagged = out.Flagged

	out.WaitTimesInfo = &WaitTimesInfo{
		FetchedAt:   feed.FetchedAt,
		MergedAt:    clock.Now().UTC(),
		ParkOpen:    parkOpen,
		Source:      feed.Source,
		Attribution: feed.Attribution,
		Matched:     report.Matched,
		Unmatched:   slices.Clone(report.Unmatched),
	}
	return out, report
}

// combineEntries folds the feed entries of one attraction. An attraction is
// open when any of its tracks is open and reports the shortest open wait.
func combineEntries(entries []FeedEntry) LiveStatus {
	if len(entries) == 0 {
		return LiveStatus{}
	}

	open := false
	var wait *int
	var reported time.Time
	for _, e := range entries {
		if e.ReportedAt.After(reported) {
			reported = e.ReportedAt
		}
		if !e.IsOpen {
			continue
		}
		open = true
		if e.WaitMinutes == nil || *e.WaitMinutes < 0 {
			continue
		}
		if wait == nil || *e.WaitMinutes < *wait {
			wait = intPtr(*e.WaitMinutes)
		}
	}

	status := LiveStatus{IsOpen: boolPtr(open)}
	if open {
		status.WaitMinutes = wait
	}
	if !reported.IsZero() {
		r := reported.UTC()
		status.ReportedAt = &r
	}
	return status
}
