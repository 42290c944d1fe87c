package domain

import "time"

// ExtractionStatus records how an attraction's attributes were obtained.
type ExtractionStatus string

const (
	// StatusSuccess means the attraction page was fetched and parsed.
	StatusSuccess ExtractionStatus = "success"
	// StatusFallback means the page was unavailable and catalog data was applied.
	StatusFallback ExtractionStatus = "fallback"
	// StatusError means the page was unavailable and no catalog data exists.
	StatusError ExtractionStatus = "error"
)

// Source names the origin of an attribute value.
type Source string

const (
	SourceScrape   Source = "scrape"
	SourceFallback Source = "fallback"
)

// Attribute field names, used as keys in AttractionRecord.Sources.
const (
	FieldMinHeight         = "min_height_cm"
	FieldSupervisionHeight = "supervision_height_cm"
	FieldCompanionAge      = "companion_min_age"
	FieldAdvisoryAge       = "advisory_age"
	FieldNotes             = "notes"
	FieldAccess            = "access"
)

// WheelchairAccess describes how a wheelchair user can board.
type WheelchairAccess string

const (
	WheelchairAccessible    WheelchairAccess = "accessible"
	WheelchairTransfer      WheelchairAccess = "transfer"
	WheelchairNotAccessible WheelchairAccess = "not_accessible"
)

// AccessFlags holds the informational access conditions shown on an
// attraction page. They never influence categorization.
type AccessFlags struct {
	Wheelchair  WheelchairAccess `json:"wheelchair,omitempty" toml:"wheelchair"`
	Pregnant    bool             `json:"pregnant,omitempty" toml:"pregnant"`
	Injuries    bool             `json:"injuries,omitempty" toml:"injuries"`
	Cameras     bool             `json:"cameras,omitempty" toml:"cameras"`
	GuideDogs   bool             `json:"guide_dogs,omitempty" toml:"guide_dogs"`
	SingleRider bool             `json:"single_rider,omitempty" toml:"single_rider"`
	Dark        bool             `json:"dark,omitempty" toml:"dark"`
	Loud        bool             `json:"loud,omitempty" toml:"loud"`
	Dizzy       bool             `json:"dizzy,omitempty" toml:"dizzy"`
	Wet         bool             `json:"wet,omitempty" toml:"wet"`
	Fog         bool             `json:"fog,omitempty" toml:"fog"`
	Fire        bool             `json:"fire,omitempty" toml:"fire"`
	Surprising  bool             `json:"surprising,omitempty" toml:"surprising"`
}

// IsEmpty reports whether no flag is set.
func (a AccessFlags) IsEmpty() bool {
	return a == AccessFlags{}
}

// Attributes is the partial attribute record produced by extraction and by
// the catalog. A nil pointer means the value is absent, which is distinct
// from zero.
type Attributes struct {
	MinHeightCM         *int        `json:"min_height_cm,omitempty" toml:"min_height_cm"`
	SupervisionHeightCM *int        `json:"supervision_height_cm,omitempty" toml:"supervision_height_cm"`
	CompanionMinAge     *int        `json:"companion_min_age,omitempty" toml:"companion_min_age"`
	AdvisoryAge         *int        `json:"advisory_age,omitempty" toml:"advisory_age"`
	Notes               string      `json:"notes,omitempty" toml:"notes"`
	Access              AccessFlags `json:"access" toml:"access"`
}

// LiveStatus is attached to an attraction by a live-status merge.
type LiveStatus struct {
	// IsOpen is nil when the feed has no entry for the attraction.
	IsOpen      *bool      `json:"is_open"`
	WaitMinutes *int       `json:"wait_minutes,omitempty"`
	ReportedAt  *time.Time `json:"reported_at,omitempty"`
}

// AttractionRecord is one physical attraction.
type AttractionRecord struct {
	Name      string `json:"name"`
	NameDutch string `json:"name_dutch,omitempty"`
	Kind      string `json:"kind"`
	KindDutch string `json:"kind_dutch,omitempty"`
	URL       string `json:"url,omitempty"`

	Attributes

	ExtractionStatus ExtractionStatus  `json:"extraction_status"`
	Sources          map[string]Source `json:"sources,omitempty"`
	LiveStatus       *LiveStatus       `json:"live_status,omitempty"`
}

// ShowRecord is a show. Shows have no height requirements and are never
// categorized.
type ShowRecord struct {
	Name      string `json:"name"`
	NameDutch string `json:"name_dutch,omitempty"`
	Kind      string `json:"kind"`
	Notes     string `json:"notes,omitempty"`
	URL       string `json:"url,omitempty"`
}

// HeightCategoryBucket partitions attraction names for one height.
type HeightCategoryBucket struct {
	Independent   []string `json:"independent"`
	WithCompanion []string `json:"with_companion"`
	NotAvailable  []string `json:"not_available"`
}

// FlaggedRecord is an attraction excluded from categorization because its
// data is inconsistent.
type FlaggedRecord struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
