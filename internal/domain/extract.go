package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// defaultCompanionAge applies when a page asks for "company" without naming
// an age.
const defaultCompanionAge = 16

// family groups extraction rules; within a family the first matching rule wins.
type family int

const (
	familyCompanionRange family = iota
	familyMinHeight
	familyCompanionBand
	familyAdvisoryAge
)

// extractRule is one row of the extraction table. apply receives the
// submatches of pattern and writes into attrs, returning false when the
// captures are malformed so the next rule of the family is tried.
type extractRule struct {
	family  family
	pattern *regexp.Regexp
	apply   func(m []string, attrs *Attributes) bool
}

// number matches a decimal with either separator, e.g. "1.20" or "1,20".
const number = `(\d+(?:[.,]\d+)?)`

var extractRules = []extractRule{
	{
		family:  familyCompanionRange,
		pattern: regexp.MustCompile(`children\s+between\s+` + number + `\s*(?:m|cm)?\s+and\s+` + number + `\s*(?:m|cm)?\s+with\s+company`),
		apply:   applyRange,
	},
	{
		family:  familyCompanionRange,
		pattern: regexp.MustCompile(`between\s+` + number + `\s*m?\s+and\s+` + number + `\s*m?\s+with`),
		apply:   applyRange,
	},
	{
		family:  familyMinHeight,
		pattern: regexp.MustCompile(`minimum\s+(?:height|length|lengte)[:\s]*` + number + `\s*(?:cm|m)`),
		apply:   applyMinHeight,
	},
	{
		family:  familyMinHeight,
		pattern: regexp.MustCompile(`minimumlengte[:\s]*` + number),
		apply:   applyMinHeight,
	},
	{
		family:  familyMinHeight,
		pattern: regexp.MustCompile(`minimum\s+length\s+` + number + `\s*m`),
		apply:   applyMinHeight,
	},
	{
		family:  familyCompanionBand,
		pattern: regexp.MustCompile(`children\s*<\s*` + number + `\s*m\s+with\s+(?:company|companion)\s+aged\s+(\d+)`),
		apply: func(m []string, attrs *Attributes) bool {
			h, ok := parseHeightCM(m[1])
			if !ok {
				return false
			}
			age, ok := parsePositive(m[2])
			if !ok {
				return false
			}
			attrs.SupervisionHeightCM = intPtr(h)
			attrs.CompanionMinAge = intPtr(age)
			return true
		},
	},
	{
		family:  familyCompanionBand,
		pattern: regexp.MustCompile(`children\s*<\s*` + number + `\s*m\s+(under\s+supervision|with\s+company|with\s+companion)`),
		apply:   applyCompanionBand,
	},
	{
		family:  familyCompanionBand,
		pattern: regexp.MustCompile(`kinderen\s*<\s*` + number + `\s*m\s+((?:onder|met)\s+begeleiding)`),
		apply:   applyCompanionBand,
	},
	{
		family:  familyAdvisoryAge,
		pattern: regexp.MustCompile(`advisory\s+age[:\s]*(\d+)`),
		apply:   applyAdvisoryAge,
	},
	{
		family:  familyAdvisoryAge,
		pattern: regexp.MustCompile(`leeftijdsadvies[:\s]*(\d+)`),
		apply:   applyAdvisoryAge,
	},
	{
		family:  familyAdvisoryAge,
		pattern: regexp.MustCompile(`recommended.*?(\d+)\s*(?:years?|jaar)`),
		apply:   applyAdvisoryAge,
	},
}

// accessRule sets one access flag when any of its keywords occurs.
type accessRule struct {
	keywords []string
	// requireAll lists keywords that must all be present in addition.
	requireAll []string
	set        func(*AccessFlags)
}

var accessRules = []accessRule{
	{keywords: []string{"not suitable for pregnant", "niet geschikt voor zwangere"}, set: func(a *AccessFlags) { a.Pregnant = true }},
	{keywords: []string{"not suitable in case of injur", "not suitable for people with injur"}, set: func(a *AccessFlags) { a.Injuries = true }},
	{keywords: []string{"cameras not allowed", "camera's niet toegestaan"}, set: func(a *AccessFlags) { a.Cameras = true }},
	{keywords: []string{"guide dog", "assistance dog", "geleidehond"}, set: func(a *AccessFlags) { a.GuideDogs = true }},
	{keywords: []string{"single rider"}, set: func(a *AccessFlags) { a.SingleRider = true }},
	{keywords: []string{"in the dark", "darkness"}, set: func(a *AccessFlags) { a.Dark = true }},
	{keywords: []string{"loud noise"}, set: func(a *AccessFlags) { a.Loud = true }},
	{keywords: []string{"dizzy", "dizziness"}, set: func(a *AccessFlags) { a.Dizzy = true }},
	{keywords: []string{"you may get wet"}, set: func(a *AccessFlags) { a.Wet = true }},
	{keywords: []string{"wet"}, requireAll: []string{"water"}, set: func(a *AccessFlags) { a.Wet = true }},
	{keywords: []string{"smoke", "fog"}, set: func(a *AccessFlags) { a.Fog = true }},
	{keywords: []string{"fire", "flames"}, set: func(a *AccessFlags) { a.Fire = true }},
	{keywords: []string{"surprising effect"}, set: func(a *AccessFlags) { a.Surprising = true }},
}

// Extract parses normalized (lower-cased, whitespace-collapsed) page text into
// partial attributes. Families that do not match stay absent. Empty input
// yields an empty result.
func Extract(pageText string) Attributes {
	var attrs Attributes
	if strings.TrimSpace(pageText) == "" {
		return attrs
	}

	matched := make(map[family]bool)
	// The range family is collected separately and overrides the single
	// height families for the fields it sets.
	var ranged Attributes
	for _, rule := range extractRules {
		if matched[rule.family] {
			continue
		}
		m := rule.pattern.FindStringSubmatch(pageText)
		if m == nil {
			continue
		}
		target := &attrs
		if rule.family == familyCompanionRange {
			target = &ranged
		}
		if rule.apply(m, target) {
			matched[rule.family] = true
		}
	}

	if matched[familyCompanionRange] {
		attrs.MinHeightCM = ranged.MinHeightCM
		attrs.SupervisionHeightCM = ranged.SupervisionHeightCM
		attrs.CompanionMinAge = ranged.CompanionMinAge
	}

	attrs.Access = extractAccess(pageText)
	return attrs
}

func extractAccess(text string) AccessFlags {
	var flags AccessFlags

	switch {
	case strings.Contains(text, "accessible by wheelchair"):
		if strings.Contains(text, "with a transfer") {
			flags.Wheelchair = WheelchairTransfer
		} else {
			flags.Wheelchair = WheelchairAccessible
		}
	case strings.Contains(text, "not accessible") && strings.Contains(text, "wheelchair"):
		flags.Wheelchair = WheelchairNotAccessible
	}

	for _, rule := range accessRules {
		if !containsAny(text, rule.keywords) || !containsAll(text, rule.requireAll) {
			continue
		}
		rule.set(&flags)
	}
	return flags
}

func applyRange(m []string, attrs *Attributes) bool {
	lower, ok := parseHeightCM(m[1])
	if !ok {
		return false
	}
	upper, ok := parseHeightCM(m[2])
	if !ok {
		return false
	}
	attrs.SupervisionHeightCM = intPtr(lower)
	attrs.MinHeightCM = intPtr(upper)
	attrs.CompanionMinAge = intPtr(defaultCompanionAge)
	return true
}

func applyMinHeight(m []string, attrs *Attributes) bool {
	h, ok := parseHeightCM(m[1])
	if !ok {
		return false
	}
	attrs.MinHeightCM = intPtr(h)
	return true
}

func applyCompanionBand(m []string, attrs *Attributes) bool {
	h, ok := parseHeightCM(m[1])
	if !ok {
		return false
	}
	attrs.SupervisionHeightCM = intPtr(h)
	if strings.Contains(m[2], "company") || strings.Contains(m[2], "companion") {
		attrs.CompanionMinAge = intPtr(defaultCompanionAge)
	}
	return true
}

func applyAdvisoryAge(m []string, attrs *Attributes) bool {
	age, ok := parsePositive(m[1])
	if !ok {
		return false
	}
	attrs.AdvisoryAge = intPtr(age)
	return true
}

// parseHeightCM converts a captured decimal to centimeters. Values below 10
// are meters and are multiplied by 100, truncating extra fraction digits. The
// conversion works on the digits so "1.15" yields 115, not 114.
func parseHeightCM(raw string) (int, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	whole, frac, hasFrac := strings.Cut(raw, ".")

	w, err := strconv.Atoi(whole)
	if err != nil || w < 0 {
		return 0, false
	}

	var cm int
	if w < 10 {
		frac = (frac + "00")[:2]
		f, err := strconv.Atoi(frac)
		if err != nil {
			return 0, false
		}
		cm = w*100 + f
	} else {
		// Centimeters; a fractional part is dropped.
		if hasFrac {
			if _, err := strconv.Atoi(frac); err != nil {
				return 0, false
			}
		}
		cm = w
	}

	if cm <= 0 {
		return 0, false
	}
	return cm, true
}

func parsePositive(raw string) (int, bool) {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func containsAll(text string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(text, k) {
			return false
		}
	}
	return true
}
