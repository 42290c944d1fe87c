package domain

import "maps"

// FallbackTable maps an attraction name to curated attribute values.
type FallbackTable map[string]Attributes

// Overlay fills the fields of rec that are absent with the fallback entry for
// rec.Name. Present values always win over fallback values, and Access is
// replaced wholesale only when rec has no flags at all. The status becomes
// fallback only when a field was actually filled. A record with no fallback
// entry is returned unchanged. The input is not modified, and
// applying Overlay twice gives the same result as applying it once.
func Overlay(rec AttractionRecord, fb FallbackTable) AttractionRecord {
	entry, ok := fb[rec.Name]
	if !ok {
		return rec
	}

	out := rec
	out.Sources = maps.Clone(rec.Sources)
	applied := false
	filled := func(field string) {
		if out.Sources == nil {
			out.Sources = make(map[string]Source)
		}
		out.Sources[field] = SourceFallback
		applied = true
	}

	if out.MinHeightCM == nil && entry.MinHeightCM != nil {
		out.MinHeightCM = intPtr(*entry.MinHeightCM)
		filled(FieldMinHeight)
	}
	if out.SupervisionHeightCM == nil && entry.SupervisionHeightCM != nil {
		out.SupervisionHeightCM = intPtr(*entry.SupervisionHeightCM)
		filled(FieldSupervisionHeight)
	}
	if out.CompanionMinAge == nil && entry.CompanionMinAge != nil {
		out.CompanionMinAge = intPtr(*entry.CompanionMinAge)
		filled(FieldCompanionAge)
	}
	if out.AdvisoryAge == nil && entry.AdvisoryAge != nil {
		out.AdvisoryAge = intPtr(*entry.AdvisoryAge)
		filled(FieldAdvisoryAge)
	}
	if out.Notes == "" && entry.Notes != "" {
		out.Notes = entry.Notes
		filled(FieldNotes)
	}
	if out.Access.IsEmpty() && !entry.Access.IsEmpty() {
		out.Access = entry.Access
		filled(FieldAccess)
	}

	if applied && out.ExtractionStatus != StatusSuccess {
		out.ExtractionStatus = StatusFallback
	}
	return out
}

// ScrapedRecord builds a record from extracted attributes and marks every
// present field as coming from the page.
func ScrapedRecord(base AttractionRecord, attrs Attributes) AttractionRecord {
	rec := base
	rec.Attributes = attrs
	rec.ExtractionStatus = StatusSuccess
	rec.Sources = nil

	mark := func(field string) {
		if rec.Sources == nil {
			rec.Sources = make(map[string]Source)
		}
		rec.Sources[field] = SourceScrape
	}
	if attrs.MinHeightCM != nil {
		mark(FieldMinHeight)
	}
	if attrs.SupervisionHeightCM != nil {
		mark(FieldSupervisionHeight)
	}
	if attrs.CompanionMinAge != nil {
		mark(FieldCompanionAge)
	}
	if attrs.AdvisoryAge != nil {
		mark(FieldAdvisoryAge)
	}
	if attrs.Notes != "" {
		mark(FieldNotes)
	}
	if !attrs.Access.IsEmpty() {
		mark(FieldAccess)
	}
	return rec
}

// FailedRecord builds the all-absent record used when page text could not be
// obtained.
func FailedRecord(base AttractionRecord) AttractionRecord {
	rec := base
	rec.Attributes = Attributes{}
	rec.ExtractionStatus = StatusError
	rec.Sources = nil
	return rec
}
