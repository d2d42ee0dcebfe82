/*
lineitem.go - Line-item materializer

PURPOSE:
  Re-expresses the monthly schedule at line-item granularity: one row
  per publisher/network/platform tuple, with per-month amounts derived
  by the same day-weighted proration the buckets use. The manual-edit
  grid and the detailed export both consume these rows.

CONSISTENCY INVARIANT:
  For every media type and month, the sum of that type's line items
  must equal the bucket's media cost cell. The override layer re-derives
  the bucket cell from the items whenever an item is edited - never the
  reverse.

AUTO-ALLOCATION FALLBACK:
  When a media type has no underlying line items (none were entered in
  the planning UI) but the bucket still shows a nonzero total for that
  type, a single generic "Auto / Auto allocation" row is synthesized
  per month so the edit grid and export always have at least one row
  per nonzero column. This is a defensive fallback, not a data-quality
  signal.
*/
package schedule

import "github.com/shopspring/decimal"

// AutoPublisher / AutoDetail name the synthesized fallback row.
const (
	AutoPublisher = "Auto"
	AutoDetail    = "Auto allocation"
)

// =============================================================================
// LINE ITEMS
// =============================================================================

// LineItemKey identifies one row: media type plus the publisher/detail
// pair (e.g. "Network X" / "Station Y", or a platform and bid strategy).
type LineItemKey struct {
	MediaType MediaType
	Publisher string
	Detail    string
}

// LineItemSource is one planning-UI row to be distributed across months:
// its own interval and amount, prorated exactly like a burst.
type LineItemSource struct {
	MediaType MediaType
	Publisher string
	Detail    string
	StartDate string
	EndDate   string
	Amount    decimal.Decimal
}

// LineItem is a materialized row: per-month amounts plus the derived
// row total.
type LineItem struct {
	Key     LineItemKey
	Monthly map[MonthKey]decimal.Decimal
	Total   decimal.Decimal
}

// recomputeTotal re-derives the row total from the monthly amounts.
func (li *LineItem) recomputeTotal() {
	total := decimal.Zero
	for _, v := range li.Monthly {
		total = total.Add(v)
	}
	li.Total = total
}

func (li *LineItem) clone() *LineItem {
	monthly := make(map[MonthKey]decimal.Decimal, len(li.Monthly))
	for k, v := range li.Monthly {
		monthly[k] = v
	}
	return &LineItem{Key: li.Key, Monthly: monthly, Total: li.Total}
}

// =============================================================================
// MATERIALIZER
// =============================================================================

// MaterializeLineItems groups the sources by composite key and prorates
// each source's amount across the schedule's months. Sources with
// malformed dates contribute nothing, matching burst semantics. Media
// types with bucket money but no sources get the Auto fallback row.
//
// Row order: grouped rows in first-seen source order, then fallback rows
// in canonical media-type order.
func MaterializeLineItems(s *Schedule, sources []LineItemSource) []*LineItem {
	calendar := s.Calendar()

	var items []*LineItem
	byKey := make(map[LineItemKey]*LineItem)
	covered := make(map[MediaType]bool)

	for _, src := range sources {
		key := LineItemKey{MediaType: src.MediaType, Publisher: src.Publisher, Detail: src.Detail}
		item := byKey[key]
		if item == nil {
			item = &LineItem{Key: key, Monthly: make(map[MonthKey]decimal.Decimal)}
			byKey[key] = item
			items = append(items, item)
		}
		covered[src.MediaType] = true

		// Same day-weighted slicing as the buckets; only the media
		// amount matters at line-item granularity.
		p := ProrateBurst(Burst{
			MediaType:   src.MediaType,
			StartDate:   src.StartDate,
			EndDate:     src.EndDate,
			MediaAmount: src.Amount,
		}, calendar)
		if p.Skipped {
			continue
		}
		for _, slice := range p.Slices {
			item.Monthly[slice.Month] = item.Monthly[slice.Month].Add(slice.Media)
		}
	}

	// Fallback rows for media types the planning UI never detailed.
	for _, m := range allMediaTypes {
		if covered[m] || m.IsProduction() {
			continue
		}
		var auto *LineItem
		for _, bucket := range s.Months {
			amount := bucket.MediaCosts[m]
			if amount.IsZero() {
				continue
			}
			if auto == nil {
				auto = &LineItem{
					Key:     LineItemKey{MediaType: m, Publisher: AutoPublisher, Detail: AutoDetail},
					Monthly: make(map[MonthKey]decimal.Decimal),
				}
				items = append(items, auto)
			}
			auto.Monthly[bucket.Month] = amount
		}
	}

	for _, item := range items {
		item.recomputeTotal()
	}
	return items
}
