package schedule_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/billing-engine/schedule"
)

func q1Input(bursts ...schedule.Burst) schedule.ScheduleInput {
	return schedule.ScheduleInput{
		Start:  date(2025, time.January, 1),
		End:    date(2025, time.March, 31),
		Bursts: bursts,
		Rates:  testRates(),
	}
}

// =============================================================================
// MONTHLY AGGREGATOR
// =============================================================================

func TestBuildSchedule_BucketsCarryEveryMediaTypeKey(t *testing.T) {
	// GIVEN: A schedule with a single television burst
	// THEN: Every bucket still carries all 20 media-type keys at zero,
	//       so consumers can sum columns without membership checks

	s := schedule.BuildSchedule(q1Input(
		mediaBurst(schedule.MediaTelevision, "2025-01-01", "2025-01-31", 1000, 100),
	))

	if len(s.Months) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(s.Months))
	}
	for _, bucket := range s.Months {
		if len(bucket.MediaCosts) != len(schedule.AllMediaTypes()) {
			t.Errorf("%s: expected %d keys, got %d",
				bucket.Month, len(schedule.AllMediaTypes()), len(bucket.MediaCosts))
		}
		for _, m := range schedule.AllMediaTypes() {
			if _, ok := bucket.MediaCosts[m]; !ok {
				t.Errorf("%s: missing key %s", bucket.Month, m)
			}
		}
	}
}

func TestBuildSchedule_GrandTotalIsAlwaysDerived(t *testing.T) {
	// grandTotal = mediaTotal + feeTotal + adServingTotal + productionTotal
	// for every bucket, and the schedule total is the sum of buckets.

	s := schedule.BuildSchedule(q1Input(
		mediaBurst(schedule.MediaTelevision, "2025-01-01", "2025-02-28", 5900, 590),
		schedule.Burst{
			MediaType:    schedule.MediaProgVideo,
			StartDate:    "2025-01-01",
			EndDate:      "2025-01-31",
			MediaAmount:  dec(3000),
			FeeAmount:    dec(300),
			Deliverables: dec(100000),
			BuyType:      schedule.BuyCPM,
		},
		mediaBurst(schedule.MediaProduction, "2025-03-01", "2025-03-31", 2000, 0),
	))

	sum := decimal.Zero
	for _, b := range s.Months {
		expected := b.MediaTotal.Add(b.FeeTotal).Add(b.AdServingTotal).Add(b.ProductionTotal)
		if !b.GrandTotal.Equal(expected) {
			t.Errorf("%s: grand total %s != components %s", b.Month, b.GrandTotal, expected)
		}
		sum = sum.Add(b.GrandTotal)
	}
	if !s.GrandTotal.Equal(sum) {
		t.Errorf("schedule grand total %s != bucket sum %s", s.GrandTotal, sum)
	}
}

func TestBuildSchedule_ProductionRoutesToProductionTotal(t *testing.T) {
	// GIVEN: A production burst
	// THEN: Its media money lands in productionTotal, not mediaTotal;
	//       its fee still accrues to feeTotal

	s := schedule.BuildSchedule(q1Input(
		mediaBurst(schedule.MediaProduction, "2025-02-01", "2025-02-28", 4000, 400),
	))

	feb := s.Bucket(month(2025, time.February))
	if !feb.ProductionTotal.Equal(dec(4000)) {
		t.Errorf("expected production total 4000, got %s", feb.ProductionTotal)
	}
	if !feb.MediaTotal.IsZero() {
		t.Errorf("production must not count toward media total, got %s", feb.MediaTotal)
	}
	if !feb.FeeTotal.Equal(dec(400)) {
		t.Errorf("expected fee total 400, got %s", feb.FeeTotal)
	}
	if !feb.GrandTotal.Equal(dec(4400)) {
		t.Errorf("expected grand total 4400, got %s", feb.GrandTotal)
	}
}

func TestBuildSchedule_AdServingIsAdditive(t *testing.T) {
	// Ad-serving cost is a distinct line alongside media and fee; it is
	// never subtracted from the media amount.

	s := schedule.BuildSchedule(q1Input(schedule.Burst{
		MediaType:    schedule.MediaDigiVideo,
		StartDate:    "2025-01-01",
		EndDate:      "2025-01-31",
		MediaAmount:  dec(10000),
		FeeAmount:    dec(0),
		Deliverables: dec(2000),
		BuyType:      schedule.BuyCPM,
	}))

	jan := s.Bucket(month(2025, time.January))
	if !jan.MediaCosts[schedule.MediaDigiVideo].Equal(dec(10000)) {
		t.Errorf("media amount must be untouched, got %s", jan.MediaCosts[schedule.MediaDigiVideo])
	}
	if !jan.AdServingTotal.Equal(dec(20)) {
		t.Errorf("expected ad-serving total 20, got %s", jan.AdServingTotal)
	}
	if !jan.GrandTotal.Equal(dec(10020)) {
		t.Errorf("expected grand total 10020, got %s", jan.GrandTotal)
	}
}

func TestBuildSchedule_OrderIndependence(t *testing.T) {
	// GIVEN: The same bursts in two different orders
	// THEN: Every bucket total is identical - accumulation is pure
	//       addition

	bursts := []schedule.Burst{
		mediaBurst(schedule.MediaTelevision, "2025-01-10", "2025-02-20", 12345.67, 1234.56),
		mediaBurst(schedule.MediaSearch, "2025-01-01", "2025-03-31", 9000, 900),
		mediaBurst(schedule.MediaProduction, "2025-02-01", "2025-02-14", 1500, 0),
		schedule.Burst{
			MediaType:    schedule.MediaProgDisplay,
			StartDate:    "2025-02-15", EndDate: "2025-03-15",
			MediaAmount:  dec(4000), FeeAmount: dec(200),
			Deliverables: dec(800000), BuyType: schedule.BuyCPM,
		},
	}
	reversed := []schedule.Burst{bursts[3], bursts[2], bursts[1], bursts[0]}

	a := schedule.BuildSchedule(q1Input(bursts...))
	b := schedule.BuildSchedule(q1Input(reversed...))

	if !a.GrandTotal.Equal(b.GrandTotal) {
		t.Fatalf("grand totals differ: %s vs %s", a.GrandTotal, b.GrandTotal)
	}
	for i := range a.Months {
		am, bm := a.Months[i], b.Months[i]
		if !am.GrandTotal.Equal(bm.GrandTotal) || !am.FeeTotal.Equal(bm.FeeTotal) ||
			!am.AdServingTotal.Equal(bm.AdServingTotal) || !am.ProductionTotal.Equal(bm.ProductionTotal) {
			t.Errorf("%s: bucket totals differ between orderings", am.Month)
		}
		for _, m := range schedule.AllMediaTypes() {
			if !am.MediaCosts[m].Equal(bm.MediaCosts[m]) {
				t.Errorf("%s/%s: media cost differs between orderings", am.Month, m)
			}
		}
	}
}

func TestBuildSchedule_MissingDates_EmptySchedule(t *testing.T) {
	// Missing campaign dates short-circuit to an empty schedule rather
	// than failing.

	s := schedule.BuildSchedule(schedule.ScheduleInput{
		Bursts: []schedule.Burst{mediaBurst(schedule.MediaRadio, "2025-01-01", "2025-01-31", 100, 10)},
	})

	if len(s.Months) != 0 {
		t.Errorf("expected no buckets, got %d", len(s.Months))
	}
	if !s.GrandTotal.IsZero() {
		t.Errorf("expected zero grand total, got %s", s.GrandTotal)
	}
}

func TestBuildSchedule_MalformedBurst_WarningNotFailure(t *testing.T) {
	// GIVEN: One good burst and one with corrupted dates
	// THEN: The good burst aggregates normally and the bad one surfaces
	//       as a typed warning with zero contribution

	s := schedule.BuildSchedule(q1Input(
		mediaBurst(schedule.MediaTelevision, "2025-01-01", "2025-01-31", 1000, 0),
		mediaBurst(schedule.MediaRadio, "garbage", "2025-01-31", 999, 99),
	))

	if !s.GrandTotal.Equal(dec(1000)) {
		t.Errorf("expected grand total 1000, got %s", s.GrandTotal)
	}
	if len(s.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(s.Warnings))
	}
	w := s.Warnings[0]
	if w.MediaType != schedule.MediaRadio || w.Reason != schedule.SkipBadStartDate {
		t.Errorf("unexpected warning: %+v", w)
	}
}
