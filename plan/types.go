/*
Package plan is the campaign-plan domain layer over the schedule engine.

PURPOSE:
  Owns campaign records, their burst collections and line-item sources,
  per-client rate cards, and the lifecycle of manual-override sessions.
  The engine itself (package schedule) is pure; this package is where
  loading, session bookkeeping, and persistence of committed manual
  schedules happen.

SEE ALSO:
  - service.go: orchestration (build, edit sessions, commit, reset)
  - store.go: persistence interfaces
  - store/memory.go: in-memory store for tests and development
*/
package plan

import (
	"github.com/shopspring/decimal"

	"github.com/warp/billing-engine/schedule"
)

// Campaign is one media campaign being planned and billed. Dates are
// already validated calendar dates; bursts keep their raw planning-UI
// strings because the skip-on-malformed policy lives in the engine.
type Campaign struct {
	ID        string
	Name      string
	Client    string
	StartDate schedule.Date
	EndDate   schedule.Date
	Budget    decimal.Decimal
}
