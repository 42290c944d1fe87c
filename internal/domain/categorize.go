package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
)

// Bucket names one categorization outcome.
type Bucket string

const (
	BucketIndependent   Bucket = "independent"
	BucketWithCompanion Bucket = "with_companion"
	BucketNotAvailable  Bucket = "not_available"
)

// Classify decides the bucket for one attraction at one height:
//   - no hard floor and no companion band: independent
//   - companion band only: independent at or above it, otherwise with companion
//   - hard floor: independent at or above it, with companion inside the band,
//     otherwise not available
func Classify(rec AttractionRecord, heightCM int) Bucket {
	minH := rec.MinHeightCM
	supH := rec.SupervisionHeightCM

	switch {
	case minH == nil && supH == nil:
		return BucketIndependent
	case minH == nil:
		if heightCM >= *supH {
			return BucketIndependent
		}
		return BucketWithCompanion
	default:
		if heightCM >= *minH {
			return BucketIndependent
		}
		if supH != nil && heightCM >= *supH {
			return BucketWithCompanion
		}
		return BucketNotAvailable
	}
}

// Categorize partitions records for one height. Every record lands in exactly
// one bucket and input order is kept within each bucket.
func Categorize(records []AttractionRecord, heightCM int) HeightCategoryBucket {
	b := HeightCategoryBucket{
		Independent:   []string{},
		WithCompanion: []string{},
		NotAvailable:  []string{},
	}
	for _, rec := range records {
		switch Classify(rec, heightCM) {
		case BucketIndependent:
			b.Independent = append(b.Independent, rec.Name)
		case BucketWithCompanion:
			b.WithCompanion = append(b.WithCompanion, rec.Name)
		case BucketNotAvailable:
			b.NotAvailable = append(b.NotAvailable, rec.Name)
		}
	}
	return b
}

// CheckConsistency separates records whose companion band sits above their
// hard floor. Those records would make bucket membership ambiguous, so they
// are returned as flagged instead of being categorized.
func CheckConsistency(records []AttractionRecord) ([]AttractionRecord, []FlaggedRecord) {
	ok := make([]AttractionRecord, 0, len(records))
	var flagged []FlaggedRecord
	for _, rec := range records {
		if reason := inconsistency(rec.Attributes); reason != "" {
			flagged = append(flagged, FlaggedRecord{Name: rec.Name, Reason: reason})
			continue
		}
		ok = append(ok, rec)
	}
	return ok, flagged
}

func inconsistency(a Attributes) string {
	if a.MinHeightCM != nil && a.SupervisionHeightCM != nil && *a.SupervisionHeightCM > *a.MinHeightCM {
		return fmt.Sprintf("supervision height %d cm exceeds minimum height %d cm", *a.SupervisionHeightCM, *a.MinHeightCM)
	}
	return ""
}

// ValidateAttributes reports an inconsistency in a partial attribute record,
// e.g. a catalog fallback entry.
func ValidateAttributes(a Attributes) error {
	if reason := inconsistency(a); reason != "" {
		return fmt.Errorf("inconsistent heights: %s", reason)
	}
	return nil
}

// HeightKey is the snapshot map key for a tracked height.
func HeightKey(heightCM int) string {
	return strconv.Itoa(heightCM)
}

// BuildHeightIndex categorizes the consistent records for every tracked
// height. Buckets are always computed from the given records, never carried
// over from an earlier snapshot.
func BuildHeightIndex(records []AttractionRecord, heights []int) (map[string]HeightCategoryBucket, []FlaggedRecord) {
	ok, flagged := CheckConsistency(records)
	index := make(map[string]HeightCategoryBucket, len(heights))
	for _, h := range heights {
		index[HeightKey(h)] = Categorize(ok, h)
	}
	return index, flagged
}

// SortForPresentation orders records by ascending hard floor (absent counts
// as 0) and then by name. The input is not modified.
func SortForPresentation(records []AttractionRecord) []AttractionRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b AttractionRecord) int {
		return cmp.Or(
			cmp.Compare(floorOrZero(a), floorOrZero(b)),
			cmp.Compare(a.Name, b.Name),
		)
	})
	return out
}

func floorOrZero(rec AttractionRecord) int {
	if rec.MinHeightCM == nil {
		return 0
	}
	return *rec.MinHeightCM
}
