package schedule_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/billing-engine/schedule"
)

func newSession(budget float64) *schedule.OverrideSession {
	input := q1Input(
		mediaBurst(schedule.MediaTelevision, "2025-01-01", "2025-03-31", 90000, 9000),
		mediaBurst(schedule.MediaSearch, "2025-02-01", "2025-02-28", 10000, 1000),
	)
	sources := []schedule.LineItemSource{
		{MediaType: schedule.MediaTelevision, Publisher: "Network X", Detail: "Station Y",
			StartDate: "2025-01-01", EndDate: "2025-03-31", Amount: dec(60000)},
		{MediaType: schedule.MediaTelevision, Publisher: "Network X", Detail: "Station Z",
			StartDate: "2025-01-01", EndDate: "2025-03-31", Amount: dec(30000)},
	}
	return schedule.NewOverrideSession(input, sources, dec(budget))
}

func schedulesEqual(t *testing.T, a, b *schedule.Schedule) {
	t.Helper()
	if len(a.Months) != len(b.Months) {
		t.Fatalf("bucket counts differ: %d vs %d", len(a.Months), len(b.Months))
	}
	if !a.GrandTotal.Equal(b.GrandTotal) {
		t.Errorf("grand totals differ: %s vs %s", a.GrandTotal, b.GrandTotal)
	}
	for i := range a.Months {
		am, bm := a.Months[i], b.Months[i]
		if am.Month != bm.Month || !am.GrandTotal.Equal(bm.GrandTotal) ||
			!am.FeeTotal.Equal(bm.FeeTotal) || !am.AdServingTotal.Equal(bm.AdServingTotal) ||
			!am.ProductionTotal.Equal(bm.ProductionTotal) {
			t.Errorf("%s: bucket totals differ", am.Month)
		}
		for _, m := range schedule.AllMediaTypes() {
			if !am.MediaCosts[m].Equal(bm.MediaCosts[m]) {
				t.Errorf("%s/%s: media cost differs", am.Month, m)
			}
		}
	}
}

// =============================================================================
// STATE MACHINE
// =============================================================================

func TestOverride_StartsAutomatic(t *testing.T) {
	s := newSession(110000)
	if s.State() != schedule.StateAutomatic {
		t.Fatalf("expected automatic state, got %s", s.State())
	}
	if s.Live().Mode != schedule.ModeAutomatic {
		t.Errorf("live schedule must be automatic, got %s", s.Live().Mode)
	}
	if s.Snapshot().Origin != schedule.OriginSnapshot {
		t.Errorf("snapshot must carry the snapshot origin tag")
	}
}

func TestOverride_EditRequiresDraft(t *testing.T) {
	s := newSession(110000)
	err := s.EditCell(schedule.CellEdit{
		Month: month(2025, time.January), Field: schedule.CellFee, Value: dec(1),
	})
	if !errors.Is(err, schedule.ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing, got %v", err)
	}
	if _, err := s.Save(); !errors.Is(err, schedule.ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing on save, got %v", err)
	}
}

func TestOverride_BeginEdit_SnapshotsWithoutRecomputation(t *testing.T) {
	// GIVEN: An automatic session
	// WHEN: BeginEdit
	// THEN: The draft is numerically identical to the live schedule and
	//       editing the draft leaves the live schedule untouched

	s := newSession(110000)
	if err := s.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if s.State() != schedule.StateEditing {
		t.Fatalf("expected editing state, got %s", s.State())
	}

	draft, items := s.Draft()
	schedulesEqual(t, draft, s.Live())
	if len(items) == 0 {
		t.Fatal("expected materialized draft line items")
	}

	liveBefore := s.Live().Clone()
	if err := s.EditCell(schedule.CellEdit{
		Month: month(2025, time.January), Field: schedule.CellFee, Value: dec(9999),
	}); err != nil {
		t.Fatalf("edit cell: %v", err)
	}
	schedulesEqual(t, liveBefore, s.Live())

	if err := s.BeginEdit(); !errors.Is(err, schedule.ErrAlreadyEditing) {
		t.Fatalf("expected ErrAlreadyEditing, got %v", err)
	}
}

func TestOverride_CellEdit_RecomputesBottomUp(t *testing.T) {
	// Any total edit recalculates the month's mediaTotal/grandTotal and
	// the draft's overall grand total.

	s := newSession(110000)
	if err := s.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	draft, _ := s.Draft()
	jan := draft.Bucket(month(2025, time.January))
	before := draft.GrandTotal

	if err := s.EditCell(schedule.CellEdit{
		Month: month(2025, time.January), Field: schedule.CellMedia,
		MediaType: schedule.MediaTelevision, Value: dec(40000),
	}); err != nil {
		t.Fatalf("edit cell: %v", err)
	}

	if !jan.MediaCosts[schedule.MediaTelevision].Equal(dec(40000)) {
		t.Errorf("cell not applied: %s", jan.MediaCosts[schedule.MediaTelevision])
	}
	expected := jan.MediaTotal.Add(jan.FeeTotal).Add(jan.AdServingTotal).Add(jan.ProductionTotal)
	if !jan.GrandTotal.Equal(expected) {
		t.Errorf("bucket grand total not re-derived")
	}
	if draft.GrandTotal.Equal(before) {
		t.Errorf("draft grand total did not move after edit")
	}
}

func TestOverride_CellEdit_RejectsBadAddressing(t *testing.T) {
	s := newSession(110000)
	if err := s.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}

	err := s.EditCell(schedule.CellEdit{
		Month: month(2030, time.June), Field: schedule.CellFee, Value: dec(1),
	})
	if !errors.Is(err, schedule.ErrUnknownMonth) {
		t.Errorf("expected ErrUnknownMonth, got %v", err)
	}

	err = s.EditCell(schedule.CellEdit{
		Month: month(2025, time.January), Field: schedule.CellMedia,
		MediaType: schedule.MediaType("mystery"), Value: dec(1),
	})
	if !errors.Is(err, schedule.ErrInvalidMediaType) {
		t.Errorf("expected ErrInvalidMediaType, got %v", err)
	}

	err = s.EditCell(schedule.CellEdit{
		Month: month(2025, time.January), Field: schedule.CellField("grand_total"), Value: dec(1),
	})
	if !errors.Is(err, schedule.ErrInvalidCellField) {
		t.Errorf("expected ErrInvalidCellField, got %v", err)
	}
}

func TestOverride_LineItemEdit_ReDerivesBucketCell(t *testing.T) {
	// After a line-item edit, the bucket's media-type cell equals the
	// sum of that type's items for the month - the bucket is re-derived
	// from the items, never the reverse.

	s := newSession(110000)
	if err := s.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	draft, items := s.Draft()
	jan := month(2025, time.January)

	key := itemKey(schedule.MediaTelevision, "Network X", "Station Y")
	if err := s.EditLineItem(key, jan, dec(25000)); err != nil {
		t.Fatalf("edit line item: %v", err)
	}

	var itemSum = dec(0)
	for _, li := range items {
		if li.Key.MediaType == schedule.MediaTelevision {
			itemSum = itemSum.Add(li.Monthly[jan])
		}
	}
	cell := draft.Bucket(jan).MediaCosts[schedule.MediaTelevision]
	if !cell.Equal(itemSum) {
		t.Errorf("bucket cell %s != item sum %s", cell, itemSum)
	}

	if err := s.EditLineItem(itemKey(schedule.MediaRadio, "nope", "nope"), jan, dec(1)); !errors.Is(err, schedule.ErrUnknownLineItem) {
		t.Errorf("expected ErrUnknownLineItem, got %v", err)
	}
}

// =============================================================================
// SAVE GATE AND RESET
// =============================================================================

func TestOverride_Save_RejectedKeepsDraftOpen(t *testing.T) {
	// GIVEN: A draft pushed far from budget
	// WHEN: Saving
	// THEN: The save is refused with the signed difference, the state
	//       stays EditingDraft, and nothing replaces the live schedule

	s := newSession(110000)
	if err := s.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := s.EditCell(schedule.CellEdit{
		Month: month(2025, time.January), Field: schedule.CellProduction, Value: dec(50000),
	}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	result, err := s.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.Accepted {
		t.Fatal("save must be refused when off budget")
	}
	if !result.Over() {
		t.Errorf("expected over-budget difference, got %s", result.Difference)
	}
	if s.State() != schedule.StateEditing {
		t.Errorf("draft must stay editable after refusal, state=%s", s.State())
	}
	if s.Live().Mode != schedule.ModeAutomatic {
		t.Errorf("live schedule must be untouched after refusal")
	}
}

func TestOverride_Save_AcceptedBecomesManual(t *testing.T) {
	s := newSession(110000)
	if err := s.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	// Small nudge, well within the $2 tolerance.
	draft, _ := s.Draft()
	jan := draft.Bucket(month(2025, time.January))
	if err := s.EditCell(schedule.CellEdit{
		Month: month(2025, time.January), Field: schedule.CellFee,
		Value: jan.FeeTotal.Add(dec(1.50)),
	}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	result, err := s.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected acceptance, difference=%s", result.Difference)
	}
	if s.State() != schedule.StateManual {
		t.Fatalf("expected manual state, got %s", s.State())
	}
	if s.Live().Mode != schedule.ModeManual {
		t.Errorf("live schedule must be flagged manual")
	}
	if d, _ := s.Draft(); d != nil {
		t.Errorf("draft must be discarded after commit")
	}
}

func TestOverride_ResetRoundTrip_MatchesDirectAutomatic(t *testing.T) {
	// GIVEN: Automatic -> EditingDraft -> edits -> Manual -> reset
	// THEN: The schedule is numerically identical to one computed
	//       directly in automatic mode from the same bursts

	s := newSession(110000)
	direct := s.Live().Clone()

	if err := s.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := s.EditCell(schedule.CellEdit{
		Month: month(2025, time.February), Field: schedule.CellFee, Value: dec(5000.75),
	}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	// Bring the draft back within tolerance of the budget before saving.
	draft, _ := s.Draft()
	delta := dec(110000).Sub(draft.GrandTotal)
	feb := draft.Bucket(month(2025, time.February))
	if err := s.EditCell(schedule.CellEdit{
		Month: month(2025, time.February), Field: schedule.CellFee,
		Value: feb.FeeTotal.Add(delta),
	}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if result, err := s.Save(); err != nil || !result.Accepted {
		t.Fatalf("save: err=%v accepted=%v difference=%s", err, result.Accepted, result.Difference)
	}

	s.Reset()

	if s.State() != schedule.StateAutomatic {
		t.Fatalf("expected automatic after reset, got %s", s.State())
	}
	schedulesEqual(t, direct, s.Live())
}
