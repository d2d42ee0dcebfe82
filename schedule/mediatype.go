/*
Package schedule implements the billing & delivery schedule proration
engine for multi-channel media campaigns.

PURPOSE:
  Takes per-media-type spend commitments (bursts) and produces a
  calendar-month-bucketed schedule of media spend, agency fee,
  ad-serving fees, and production cost, plus an optional line-item
  breakdown and a budget reconciliation check. The engine is a pure
  function of (bursts, campaign dates, rate table, manual-edit state);
  it performs no I/O and holds no shared mutable state.

KEY CONCEPTS:
  - Burst: one committed spend interval for one media type (burst.go)
  - MonthKey/Date: calendar math, inclusive intervals (dates.go)
  - MonthBucket/Schedule: normalized monthly aggregates (aggregate.go)
  - RateTable: per-client ad-serving rates (adserving.go)
  - LineItem: per-publisher detail rows (lineitem.go)
  - OverrideSession: manual-edit state machine (override.go)

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all money and deliverable volumes
  2. Total safety: every bucket carries every media-type key, value 0
     when absent, so consumers sum without nil checks
  3. Derived totals: mediaTotal/grandTotal are always recomputed from
     components, never stored independently
  4. Best-effort inputs: malformed bursts contribute zero and surface
     as typed warnings instead of failing the whole schedule

SEE ALSO:
  - aggregate.go: the monthly aggregator folding bursts into buckets
  - override.go: the Automatic -> EditingDraft -> Manual state machine
*/
package schedule

// =============================================================================
// MEDIA TYPES - Fixed enumeration of planning channels
// =============================================================================

// MediaType tags a burst with the channel it belongs to. The set is fixed:
// every MonthBucket pre-seeds all of these keys at zero so downstream
// consumers can sum columns without membership checks.
type MediaType string

const (
	MediaTelevision  MediaType = "television"
	MediaRadio       MediaType = "radio"
	MediaNewspaper   MediaType = "newspaper"
	MediaMagazine    MediaType = "magazine"
	MediaOOH         MediaType = "ooh"
	MediaCinema      MediaType = "cinema"
	MediaSearch      MediaType = "search"
	MediaSocial      MediaType = "social"
	MediaProgDisplay MediaType = "progDisplay"
	MediaProgVideo   MediaType = "progVideo"
	MediaProgBVOD    MediaType = "progBvod"
	MediaProgAudio   MediaType = "progAudio"
	MediaProgOOH     MediaType = "progOoh"
	MediaDigiDisplay MediaType = "digiDisplay"
	MediaDigiVideo   MediaType = "digiVideo"
	MediaDigiAudio   MediaType = "digiAudio"
	MediaBVOD        MediaType = "bvod"
	MediaInfluencer  MediaType = "influencer"
	MediaIntegration MediaType = "integration"
	MediaProduction  MediaType = "production"
)

// allMediaTypes is the canonical column order for buckets and exports.
var allMediaTypes = []MediaType{
	MediaTelevision, MediaRadio, MediaNewspaper, MediaMagazine,
	MediaOOH, MediaCinema, MediaSearch, MediaSocial,
	MediaProgDisplay, MediaProgVideo, MediaProgBVOD, MediaProgAudio,
	MediaProgOOH, MediaDigiDisplay, MediaDigiVideo, MediaDigiAudio,
	MediaBVOD, MediaInfluencer, MediaIntegration, MediaProduction,
}

// AllMediaTypes returns every known media type in canonical order.
// Callers get a fresh slice; the canonical order is immutable.
func AllMediaTypes() []MediaType {
	out := make([]MediaType, len(allMediaTypes))
	copy(out, allMediaTypes)
	return out
}

// Valid reports whether m is one of the known channels.
func (m MediaType) Valid() bool {
	for _, known := range allMediaTypes {
		if m == known {
			return true
		}
	}
	return false
}

// IsProduction reports whether bursts of this type accumulate into the
// production total instead of the media total.
func (m MediaType) IsProduction() bool { return m == MediaProduction }

// AdServed reports whether this channel incurs ad-serving/tech fees.
// Only the digital, programmatic, and BVOD families are served through
// an ad server; traditional channels and search/social are not.
func (m MediaType) AdServed() bool {
	switch m {
	case MediaProgDisplay, MediaProgVideo, MediaProgBVOD, MediaProgAudio, MediaProgOOH,
		MediaDigiDisplay, MediaDigiVideo, MediaDigiAudio, MediaBVOD:
		return true
	}
	return false
}

// =============================================================================
// RATE CLASSES - Which ad-serving rate a channel draws
// =============================================================================

// RateClass names one of the four rates on a client rate card. Several
// media types alias to the same class: the video family (digiVideo,
// progVideo, progBvod, bvod) all draw the video rate, audio types the
// audio rate, display types the display rate, and everything else the
// generic impression rate.
type RateClass string

const (
	RateVideo      RateClass = "video"
	RateAudio      RateClass = "audio"
	RateDisplay    RateClass = "display"
	RateImpression RateClass = "impression"
)

// RateClassFor maps a media type to the rate it draws. Unknown tags fall
// back to the impression rate rather than failing.
func (m MediaType) RateClassFor() RateClass {
	switch m {
	case MediaDigiVideo, MediaProgVideo, MediaProgBVOD, MediaBVOD:
		return RateVideo
	case MediaDigiAudio, MediaProgAudio:
		return RateAudio
	case MediaDigiDisplay, MediaProgDisplay:
		return RateDisplay
	default:
		return RateImpression
	}
}

// =============================================================================
// BUY TYPES
// =============================================================================

// BuyType governs how a burst's deliverables convert to ad-serving cost:
// CPM divides the volume by 1000 before applying the rate, unit-based
// applies the rate per deliverable.
type BuyType string

const (
	BuyCPM  BuyType = "cpm"
	BuyUnit BuyType = "unit"
)
