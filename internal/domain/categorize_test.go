package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ride(name string, minH, supH *int) AttractionRecord {
	return AttractionRecord{
		Name:             name,
		Attributes:       Attributes{MinHeightCM: minH, SupervisionHeightCM: supH},
		ExtractionStatus: StatusSuccess,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		rec      AttractionRecord
		height   int
		expected Bucket
	}{
		{"no limits", ride("Fairytale Forest", nil, nil), 95, BucketIndependent},
		{"band only below", ride("Carnaval Festival", nil, intPtr(100)), 95, BucketWithCompanion},
		{"band only at boundary", ride("Carnaval Festival", nil, intPtr(100)), 100, BucketIndependent},
		{"floor only below", ride("Python", intPtr(120), nil), 119, BucketNotAvailable},
		{"floor only at boundary", ride("Python", intPtr(120), nil), 120, BucketIndependent},
		{"floor and band below both", ride("Joris en de Draak", intPtr(120), intPtr(110)), 105, BucketNotAvailable},
		{"floor and band inside band", ride("Joris en de Draak", intPtr(120), intPtr(110)), 115, BucketWithCompanion},
		{"floor and band at band boundary", ride("Joris en de Draak", intPtr(120), intPtr(110)), 110, BucketWithCompanion},
		{"floor and band at floor", ride("Joris en de Draak", intPtr(120), intPtr(110)), 120, BucketIndependent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.rec, tt.height))
		})
	}
}

func TestCategorize_Scenarios(t *testing.T) {
	records := []AttractionRecord{
		ride("Joris en de Draak", intPtr(120), intPtr(110)),
		ride("Carnaval Festival", nil, intPtr(100)),
		ride("Fairytale Forest", nil, nil),
		ride("Python", intPtr(120), nil),
	}

	tests := []struct {
		height   int
		expected HeightCategoryBucket
	}{
		{
			height: 115,
			expected: HeightCategoryBucket{
				Independent:   []string{"Carnaval Festival", "Fairytale Forest"},
				WithCompanion: []string{"Joris en de Draak"},
				NotAvailable:  []string{"Python"},
			},
		},
		{
			height: 95,
			expected: HeightCategoryBucket{
				Independent:   []string{"Fairytale Forest"},
				WithCompanion: []string{"Carnaval Festival"},
				NotAvailable:  []string{"Joris en de Draak", "Python"},
			},
		},
		{
			height: 140,
			expected: HeightCategoryBucket{
				Independent:   []string{"Joris en de Draak", "Carnaval Festival", "Fairytale Forest", "Python"},
				WithCompanion: []string{},
				NotAvailable:  []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(HeightKey(tt.height), func(t *testing.T) {
			assert.Equal(t, tt.expected, Categorize(records, tt.height))
		})
	}
}

func TestCategorize_EmptyInputYieldsEmptyBuckets(t *testing.T) {
	b := Categorize(nil, 120)

	assert.NotNil(t, b.Independent)
	assert.NotNil(t, b.WithCompanion)
	assert.NotNil(t, b.NotAvailable)
	assert.Empty(t, b.Independent)
}

// partitionFixture mixes every attribute shape, including extreme values.
func partitionFixture() []AttractionRecord {
	return []AttractionRecord{
		ride("a", nil, nil),
		ride("b", intPtr(1), nil),
		ride("c", nil, intPtr(1)),
		ride("d", intPtr(250), intPtr(1)),
		ride("e", intPtr(132), nil),
		ride("f", intPtr(120), intPtr(120)),
		ride("g", nil, intPtr(250)),
		ride("h", intPtr(130), intPtr(100)),
	}
}

func TestCategorize_TotalAndExclusive(t *testing.T) {
	records := partitionFixture()

	for h := 1; h <= MaxQueryHeightCM; h++ {
		b := Categorize(records, h)

		seen := make(map[string]int)
		for _, list := range [][]string{b.Independent, b.WithCompanion, b.NotAvailable} {
			for _, name := range list {
				seen[name]++
			}
		}
		require.Len(t, seen, len(records), "height %d", h)
		for name, n := range seen {
			require.Equal(t, 1, n, "%s at height %d", name, h)
		}
	}
}

func TestClassify_MonotonicInHeight(t *testing.T) {
	rank := map[Bucket]int{BucketNotAvailable: 0, BucketWithCompanion: 1, BucketIndependent: 2}

	for _, rec := range partitionFixture() {
		prev := -1
		for h := 1; h <= MaxQueryHeightCM; h++ {
			r := rank[Classify(rec, h)]
			require.GreaterOrEqual(t, r, prev, "%s regressed at height %d", rec.Name, h)
			prev = r
		}
	}
}

func TestBuildHeightIndex_FlagsInconsistentRecords(t *testing.T) {
	records := []AttractionRecord{
		ride("Broken Ride", intPtr(110), intPtr(120)),
		ride("Python", intPtr(120), nil),
	}

	index, flagged := BuildHeightIndex(records, []int{100, 130})

	require.Len(t, flagged, 1)
	assert.Equal(t, "Broken Ride", flagged[0].Name)
	assert.Contains(t, flagged[0].Reason, "exceeds minimum height")

	require.Len(t, index, 2)
	for _, key := range []string{"100", "130"} {
		b := index[key]
		all := append(append(append([]string{}, b.Independent...), b.WithCompanion...), b.NotAvailable...)
		assert.Equal(t, []string{"Python"}, all, key)
	}
}

func TestValidateAttributes(t *testing.T) {
	assert.NoError(t, ValidateAttributes(Attributes{MinHeightCM: intPtr(120), SupervisionHeightCM: intPtr(110)}))
	assert.NoError(t, ValidateAttributes(Attributes{SupervisionHeightCM: intPtr(130)}))
	assert.Error(t, ValidateAttributes(Attributes{MinHeightCM: intPtr(110), SupervisionHeightCM: intPtr(120)}))
}

func TestSortForPresentation(t *testing.T) {
	records := []AttractionRecord{
		ride("Python", intPtr(120), nil),
		ride("Baron 1898", intPtr(132), nil),
		ride("Sprookjesbos", nil, nil),
		ride("Archipel", nil, nil),
		ride("Halve Maen", intPtr(120), nil),
	}

	got := SortForPresentation(records)

	names := make([]string, len(got))
	for i, rec := range got {
		names[i] = rec.Name
	}
	assert.Equal(t, []string{"Archipel", "Sprookjesbos", "Halve Maen", "Python", "Baron 1898"}, names)
	assert.Equal(t, "Python", records[0].Name, "input order is kept")
}

func TestValidateQueryHeight(t *testing.T) {
	for _, h := range []int{1, 120, MaxQueryHeightCM} {
		assert.NoError(t, ValidateQueryHeight(h), h)
	}
	for _, h := range []int{-5, 0, MaxQueryHeightCM + 1} {
		assert.ErrorIs(t, ValidateQueryHeight(h), ErrHeightOutOfRange, h)
	}
}
