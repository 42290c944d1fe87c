// Package domain classifies theme park attractions by visitor height.
//
// # Sources
//
// Three sources describe an attraction and they routinely disagree:
//
//   - Attraction pages on the park website. Text is lower-cased and whitespace
//     collapsed before [Extract] sees it.
//   - The curated catalog (see package catalog), applied by [Overlay] only to
//     fields the page did not provide.
//   - The queue-times.com feed, joined by [MergeLiveStatus] after resolving
//     feed names through an [IdentityTable].
//
// # Page Conventions
//
// Heights appear in meters or centimeters, with either decimal separator:
//
//	"minimum height 1.20 m"                     hard floor 120 cm
//	"minimum length 132 cm"                     hard floor 132 cm
//	"children < 1.00 m under supervision"       companion band below 100 cm
//	"children < 1.10 m with company aged 16"    companion band, companion 16+
//	"children between 1.10 and 1.20 m with company"
//	                                            band 110 cm, floor 120 cm
//
// A captured value below 10 is meters; anything else is centimeters. Meter
// values are truncated to whole centimeters.
//
// # Height Model
//
// A hard floor forbids riding below it. A companion band allows riding below
// the floor (or below an independent threshold when there is no floor) only
// with an accompanying person. The band must sit at or below the floor;
// records where it does not are flagged by [CheckConsistency] and left out of
// the buckets.
//
// # Absence
//
// Optional attributes are pointers. nil means the source said nothing, which
// the serving layer renders differently from a zero value, so JSON omits
// absent fields instead of writing null or 0. The one deliberate null is
// live_status.is_open, which means the feed had no entry for the attraction.
package domain
