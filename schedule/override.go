/*
override.go - Manual override layer state machine

PURPOSE:
  Lets a user replace the automatically derived schedule with an edited
  one, without ever breaking the derived-total invariants. The session
  moves through three states:

    Automatic ──BeginEdit──▶ EditingDraft ──Save (reconciled)──▶ Manual
        ▲                                                          │
        └────────────────────── Reset ─────────────────────────────┘

  - Automatic: the live schedule is fully derived and rebuilt on every
    upstream change.
  - EditingDraft: a deep copy of the live schedule plus materialized
    line items is edited cell by cell; every edit recomputes dependent
    totals bottom-up (line item -> media-type cell -> bucket totals ->
    schedule grand total).
  - Manual: an edited, reconciled copy has replaced the live schedule;
    upstream changes no longer auto-recalculate it.

  There is no partial save: either the whole draft passes budget
  reconciliation and becomes the live manual schedule, or nothing is
  committed and the draft stays open with the signed difference.

SEE ALSO:
  - reconcile.go: the save gate
  - lineitem.go: draft line items and the bucket consistency invariant
*/
package schedule

import "github.com/shopspring/decimal"

// =============================================================================
// STATES AND EDIT ADDRESSING
// =============================================================================

// OverrideState is the session's position in the state machine.
type OverrideState string

const (
	StateAutomatic OverrideState = "automatic"
	StateEditing   OverrideState = "editing_draft"
	StateManual    OverrideState = "manual"
)

// CellField names an editable bucket cell. Derived totals (mediaTotal,
// grandTotal) are never editable; they are recomputed after every edit.
type CellField string

const (
	CellMedia      CellField = "media"
	CellFee        CellField = "fee"
	CellAdServing  CellField = "ad_serving"
	CellProduction CellField = "production"
)

// CellEdit addresses one bucket-level edit. MediaType is only consulted
// for CellMedia.
type CellEdit struct {
	Month     MonthKey
	Field     CellField
	MediaType MediaType
	Value     decimal.Decimal
}

// =============================================================================
// OVERRIDE SESSION
// =============================================================================

// OverrideSession owns one campaign-editing session's schedules. Each
// session holds its own in-memory copies; there is no shared mutable
// state across concurrent sessions, so no locking is needed here.
type OverrideSession struct {
	state OverrideState

	// Inputs, retained so Reset can re-trigger the automatic build.
	input   ScheduleInput
	sources []LineItemSource
	budget  decimal.Decimal

	// First automatic derivation, kept for consumers that need the
	// pre-override numbers (MBA generation, billing comparison).
	snapshot *Schedule

	// Current live schedule: automatic or committed manual.
	live *Schedule

	// Editing draft, nil outside StateEditing.
	draft      *Schedule
	draftItems []*LineItem
}

// NewOverrideSession builds the automatic schedule from the inputs and
// starts in StateAutomatic.
func NewOverrideSession(input ScheduleInput, sources []LineItemSource, budget decimal.Decimal) *OverrideSession {
	live := BuildSchedule(input)
	snapshot := live.Clone()
	snapshot.Origin = OriginSnapshot
	return &OverrideSession{
		state:    StateAutomatic,
		input:    input,
		sources:  sources,
		budget:   budget,
		snapshot: snapshot,
		live:     live,
	}
}

// RestoreManual adopts a previously committed manual schedule as the
// live one, e.g. after loading it from the store. The automatic snapshot
// from construction is retained.
func (s *OverrideSession) RestoreManual(manual *Schedule) {
	live := manual.Clone()
	live.Mode = ModeManual
	live.Origin = OriginLive
	s.live = live
	s.state = StateManual
	s.draft = nil
	s.draftItems = nil
}

func (s *OverrideSession) State() OverrideState { return s.state }

// Live returns the current live schedule (automatic or manual).
func (s *OverrideSession) Live() *Schedule { return s.live }

// Snapshot returns the first automatic derivation.
func (s *OverrideSession) Snapshot() *Schedule { return s.snapshot }

// Draft returns the editing draft and its line items; both nil outside
// StateEditing.
func (s *OverrideSession) Draft() (*Schedule, []*LineItem) { return s.draft, s.draftItems }

// LineItems materializes the live schedule's detail rows.
func (s *OverrideSession) LineItems() []*LineItem {
	return MaterializeLineItems(s.live, s.sources)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// BeginEdit snapshots the live schedule and its materialized line items
// into an editable draft. Pure copy, no recomputation.
func (s *OverrideSession) BeginEdit() error {
	if s.state == StateEditing {
		return ErrAlreadyEditing
	}
	s.draft = s.live.Clone()
	s.draftItems = MaterializeLineItems(s.draft, s.sources)
	s.state = StateEditing
	return nil
}

// EditCell applies one bucket-level edit to the draft and recomputes the
// dependent totals.
func (s *OverrideSession) EditCell(edit CellEdit) error {
	if s.state != StateEditing {
		return ErrNotEditing
	}
	bucket := s.draft.Bucket(edit.Month)
	if bucket == nil {
		return ErrUnknownMonth
	}

	switch edit.Field {
	case CellMedia:
		if !edit.MediaType.Valid() || edit.MediaType.IsProduction() {
			return ErrInvalidMediaType
		}
		bucket.MediaCosts[edit.MediaType] = edit.Value
	case CellFee:
		bucket.FeeTotal = edit.Value
	case CellAdServing:
		bucket.AdServingTotal = edit.Value
	case CellProduction:
		bucket.ProductionTotal = edit.Value
	default:
		return ErrInvalidCellField
	}

	bucket.recompute()
	s.draft.recomputeGrandTotal()
	return nil
}

// EditLineItem sets one line item's monthly amount, then re-derives the
// bucket's media-type cell from the items (never the reverse), the
// bucket totals, and the draft grand total.
func (s *OverrideSession) EditLineItem(key LineItemKey, month MonthKey, value decimal.Decimal) error {
	if s.state != StateEditing {
		return ErrNotEditing
	}
	bucket := s.draft.Bucket(month)
	if bucket == nil {
		return ErrUnknownMonth
	}

	var item *LineItem
	for _, li := range s.draftItems {
		if li.Key == key {
			item = li
			break
		}
	}
	if item == nil {
		return ErrUnknownLineItem
	}

	item.Monthly[month] = value
	item.recomputeTotal()

	// Bucket cell = sum of this media type's items for the month.
	cell := decimal.Zero
	for _, li := range s.draftItems {
		if li.Key.MediaType == key.MediaType {
			cell = cell.Add(li.Monthly[month])
		}
	}
	if !key.MediaType.IsProduction() {
		bucket.MediaCosts[key.MediaType] = cell
	}

	bucket.recompute()
	s.draft.recomputeGrandTotal()
	return nil
}

// Save gates the draft on budget reconciliation. On acceptance the draft
// becomes the live manual schedule; on rejection nothing is committed,
// the draft stays editable, and the result carries the signed
// difference. The error return covers state misuse only.
func (s *OverrideSession) Save() (ReconcileResult, error) {
	if s.state != StateEditing {
		return ReconcileResult{}, ErrNotEditing
	}

	result := Reconcile(s.draft.GrandTotal, s.budget)
	if !result.Accepted {
		return result, nil
	}

	s.draft.Mode = ModeManual
	s.draft.Origin = OriginLive
	s.live = s.draft
	s.draft = nil
	s.draftItems = nil
	s.state = StateManual
	return result, nil
}

// Reset unconditionally discards any draft and manual copy and rebuilds
// the automatic schedule from the session's inputs.
func (s *OverrideSession) Reset() {
	s.live = BuildSchedule(s.input)
	s.draft = nil
	s.draftItems = nil
	s.state = StateAutomatic
}
