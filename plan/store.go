package plan

import (
	"context"
	"errors"

	"github.com/warp/billing-engine/schedule"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrCampaignNotFound is returned for references to unknown campaigns.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrRateCardNotFound is returned when a client has no stored rate
	// card. Callers fall back to the default rates.
	ErrRateCardNotFound = errors.New("rate card not found")

	// ErrManualScheduleNotFound is returned when no committed manual
	// schedule exists for a campaign.
	ErrManualScheduleNotFound = errors.New("manual schedule not found")

	// ErrNoSession is returned for edit operations on a campaign with no
	// open editing session.
	ErrNoSession = errors.New("no editing session for campaign")
)

// =============================================================================
// STORE - Persistence boundary
// =============================================================================

// Store is the persistence boundary for the plan domain. Implementations:
// plan/store (in-memory) and store/sqlite.
type Store interface {
	// Campaigns
	SaveCampaign(ctx context.Context, c Campaign) error
	GetCampaign(ctx context.Context, id string) (*Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)

	// Bursts are replaced wholesale on every plan save; the planning UI
	// owns them and the engine only reads them.
	ReplaceBursts(ctx context.Context, campaignID string, bursts []schedule.Burst) error
	Bursts(ctx context.Context, campaignID string) ([]schedule.Burst, error)

	// Line-item sources feed the materializer.
	ReplaceLineItemSources(ctx context.Context, campaignID string, sources []schedule.LineItemSource) error
	LineItemSources(ctx context.Context, campaignID string) ([]schedule.LineItemSource, error)

	// Per-client ad-serving rate cards.
	SaveRateCard(ctx context.Context, client string, rates schedule.RateTable) error
	RateCard(ctx context.Context, client string) (schedule.RateTable, error)

	// Committed manual schedules. A stored manual schedule supersedes
	// recomputation until it is deleted by a reset.
	SaveManualSchedule(ctx context.Context, campaignID string, s *schedule.Schedule) error
	ManualSchedule(ctx context.Context, campaignID string) (*schedule.Schedule, error)
	DeleteManualSchedule(ctx context.Context, campaignID string) error
}
