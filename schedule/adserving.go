package schedule

import "github.com/shopspring/decimal"

// =============================================================================
// RATE TABLE - Per-client ad-serving rates
// =============================================================================

// RateTable carries the four ad-serving rates for one client. Media types
// alias onto these via RateClassFor: the video family draws Video, audio
// types Audio, display types Display, and everything else Impression.
type RateTable struct {
	Video      decimal.Decimal
	Audio      decimal.Decimal
	Display    decimal.Decimal
	Impression decimal.Decimal
}

// RateFor looks up the rate a media type draws. Unknown tags resolve to
// the generic impression rate rather than failing.
func (rt RateTable) RateFor(m MediaType) decimal.Decimal {
	switch m.RateClassFor() {
	case RateVideo:
		return rt.Video
	case RateAudio:
		return rt.Audio
	case RateDisplay:
		return rt.Display
	default:
		return rt.Impression
	}
}

// =============================================================================
// AD-SERVING COST MODEL
// =============================================================================

var perMille = decimal.NewFromInt(1000)

// AdServingCost computes the ad-serving/tech fee for one month's share of
// a burst's deliverables. The cost is additive to the schedule's
// ad-serving total; it is never subtracted from the media amount.
//
// Rules:
//   - bursts flagged NoAdServing contribute zero regardless of buy type
//   - only digital/programmatic/BVOD channels are ad-served
//   - CPM buy type:  (share / 1000) * rate
//   - unit buy type:  share * rate
func AdServingCost(b Burst, deliverableShare decimal.Decimal, rates RateTable) decimal.Decimal {
	if b.NoAdServing || !b.MediaType.AdServed() {
		return decimal.Zero
	}

	rate := rates.RateFor(b.MediaType)
	if b.BuyType == BuyCPM {
		return deliverableShare.Div(perMille).Mul(rate)
	}
	return deliverableShare.Mul(rate)
}
