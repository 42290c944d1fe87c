// Command validate performs offline integrity checks on a snapshot file:
// totals, extraction statuses, the companion-band invariant, bucket
// partitioning for every tracked height, and the live-status shape.
//
// Usage:
//
//	go run ./cmd/validate -snapshot data/attractions.json
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/google/go-cmp/cmp"

	"github.com/couchcryptid/ride-height-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("snapshot", "data/attractions.json", "path to the snapshot JSON file")
	flag.Parse()

	if code := run(*path); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	fmt.Println("=== Snapshot Integrity Validation ===")
	fmt.Println()

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read snapshot: %v\n", err)
		return 1
	}
	snap, err := domain.UnmarshalSnapshot(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := validate(snap)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Snapshot %s: %d attractions, %d shows, %d tracked heights, %d flagged\n",
		snap.RunID, len(snap.Attractions), len(snap.Shows), len(snap.TrackedHeights), len(snap.Flagged))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(snap domain.Snapshot) []*phase {
	return []*phase{
		validateTotals(snap),
		validateRecords(snap),
		validateBuckets(snap),
		validateLiveStatus(snap),
	}
}

// ── Phase 1: Totals ──

func validateTotals(snap domain.Snapshot) *phase {
	p := &phase{name: "Phase 1: Totals and statistics"}

	if snap.RunID == "" {
		p.errorf("run_id is empty")
	}
	if snap.LastUpdated.IsZero() {
		p.errorf("last_updated is missing")
	}
	if snap.TotalAttractions != len(snap.Attractions) {
		p.errorf("total_attractions=%d, attractions list has %d", snap.TotalAttractions, len(snap.Attractions))
	}
	if snap.TotalShows != len(snap.Shows) {
		p.errorf("total_shows=%d, shows list has %d", snap.TotalShows, len(snap.Shows))
	}
	if got := domain.CountStatuses(snap.Attractions); got != snap.ScrapeStats {
		p.errorf("scrape_stats %+v do not match records %+v", snap.ScrapeStats, got)
	}
	return p
}

// ── Phase 2: Records ──

func validateRecords(snap domain.Snapshot) *phase {
	p := &phase{name: "Phase 2: Records and companion bands"}

	flagged := make(map[string]bool, len(snap.Flagged))
	for _, f := range snap.Flagged {
		flagged[f.Name] = true
	}

	seen := make(map[string]bool, len(snap.Attractions))
	for i, rec := range snap.Attractions {
		if rec.Name == "" {
			p.errorf("attraction %d: empty name", i)
			continue
		}
		if seen[rec.Name] {
			p.errorf("%s: duplicate name", rec.Name)
		}
		seen[rec.Name] = true

		switch rec.ExtractionStatus {
		case domain.StatusSuccess, domain.StatusFallback, domain.StatusError:
		default:
			p.errorf("%s: invalid extraction_status %q", rec.Name, rec.ExtractionStatus)
		}
		if rec.ExtractionStatus == domain.StatusError && len(rec.Sources) > 0 {
			p.errorf("%s: status error but sources %v", rec.Name, rec.Sources)
		}

		if err := domain.ValidateAttributes(rec.Attributes); err != nil && !flagged[rec.Name] {
			p.errorf("%s: %v but not flagged", rec.Name, err)
		}
	}

	if !slices.Equal(presentationOrder(snap.Attractions), namesOf(snap.Attractions)) {
		p.errorf("attractions are not in presentation order")
	}
	return p
}

func namesOf(records []domain.AttractionRecord) []string {
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.Name
	}
	return names
}

func presentationOrder(records []domain.AttractionRecord) []string {
	return namesOf(domain.SortForPresentation(records))
}

// ── Phase 3: Buckets ──

func validateBuckets(snap domain.Snapshot) *phase {
	p := &phase{name: "Phase 3: Height buckets"}

	consistent, _ := domain.CheckConsistency(snap.Attractions)
	for _, h := range snap.TrackedHeights {
		key := strconv.Itoa(h)
		bucket, ok := snap.HeightCategories[key]
		if !ok {
			p.errorf("height %d: no bucket", h)
			continue
		}

		counts := make(map[string]int)
		for _, names := range [][]string{bucket.Independent, bucket.WithCompanion, bucket.NotAvailable} {
			for _, name := range names {
				counts[name]++
			}
		}
		for _, rec := range consistent {
			if n := counts[rec.Name]; n != 1 {
				p.errorf("height %d: %s appears in %d buckets", h, rec.Name, n)
			}
			delete(counts, rec.Name)
		}
		for name := range counts {
			p.errorf("height %d: %s is bucketed but not a categorizable attraction", h, name)
		}

		if diff := cmp.Diff(domain.Categorize(consistent, h), bucket); diff != "" {
			p.errorf("height %d: stored bucket differs from recomputation (-want +got):\n%s", h, diff)
		}
	}
	for key := range snap.HeightCategories {
		h, err := strconv.Atoi(key)
		if err != nil || !slices.Contains(snap.TrackedHeights, h) {
			p.errorf("bucket %q is not a tracked height", key)
		}
	}
	return p
}

// ── Phase 4: Live status ──

func validateLiveStatus(snap domain.Snapshot) *phase {
	p := &phase{name: "Phase 4: Live status"}

	merged := 0
	for _, rec := range snap.Attractions {
		s := rec.LiveStatus
		if s == nil {
			continue
		}
		merged++
		if s.WaitMinutes == nil {
			continue
		}
		if *s.WaitMinutes < 0 {
			p.errorf("%s: negative wait %d", rec.Name, *s.WaitMinutes)
		}
		if s.IsOpen == nil || !*s.IsOpen {
			p.errorf("%s: wait time on an attraction that is not open", rec.Name)
		}
	}

	info := snap.WaitTimesInfo
	switch {
	case info == nil && merged > 0:
		p.errorf("%d attractions carry live status but wait_times_info is missing", merged)
	case info != nil && merged != len(snap.Attractions):
		p.errorf("wait_times_info present but only %d of %d attractions carry live status", merged, len(snap.Attractions))
	case info != nil && !slices.IsSorted(info.Unmatched):
		p.errorf("wait_times_info.unmatched is not sorted")
	}
	return p
}
