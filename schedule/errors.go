/*
errors.go - Centralized error types for the schedule engine

Nothing in this engine is fatal: malformed inputs degrade to zero
contribution and reconciliation failures are validation outcomes. The
errors here cover misuse of the override state machine and references
to months/cells/rows that do not exist.
*/
package schedule

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotEditing is returned when an edit or save is attempted
	// outside an editing draft.
	ErrNotEditing = errors.New("no editing draft in progress")

	// ErrAlreadyEditing is returned when BeginEdit is called while a
	// draft is already open.
	ErrAlreadyEditing = errors.New("editing draft already in progress")

	// ErrUnknownMonth is returned for edits addressed to a month outside
	// the campaign span.
	ErrUnknownMonth = errors.New("month outside campaign span")

	// ErrUnknownLineItem is returned for edits addressed to a line item
	// that was never materialized.
	ErrUnknownLineItem = errors.New("unknown line item")

	// ErrInvalidMediaType is returned for edits addressed to a media
	// type outside the fixed enumeration.
	ErrInvalidMediaType = errors.New("unknown media type")

	// ErrInvalidCellField is returned for edits naming a field that is
	// not editable (derived totals are never edited directly).
	ErrInvalidCellField = errors.New("cell field is not editable")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ReconciliationError carries the signed budget difference of a rejected
// manual save. It wraps no sentinel; callers branch on the type.
type ReconciliationError struct {
	Difference decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	direction := "under"
	if e.Difference.IsPositive() {
		direction = "over"
	}
	return fmt.Sprintf("schedule total is %s budget by %s", direction, e.Difference.Abs())
}

// IsClientError reports whether the error is due to invalid caller input
// rather than an engine fault. API handlers map these to 4xx.
func IsClientError(err error) bool {
	var recErr *ReconciliationError
	return errors.Is(err, ErrNotEditing) ||
		errors.Is(err, ErrAlreadyEditing) ||
		errors.Is(err, ErrUnknownMonth) ||
		errors.Is(err, ErrUnknownLineItem) ||
		errors.Is(err, ErrInvalidMediaType) ||
		errors.Is(err, ErrInvalidCellField) ||
		errors.As(err, &recErr)
}
