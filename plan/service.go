/*
service.go - Campaign schedule orchestration

PURPOSE:
  Wires stored campaign data into the schedule engine and manages the
  manual-override sessions. Each campaign gets at most one in-memory
  editing session; the session owns its own copies of the schedules, so
  no locking is needed inside the engine - only the session map itself
  is guarded here.

MANUAL SUPERSESSION:
  A committed manual schedule is persisted and, once present, supersedes
  recomputation: Schedule() returns it untouched until an explicit reset
  deletes it. This carries the Manual state across process restarts.
*/
package plan

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/billing-engine/schedule"
)

// Service orchestrates schedule building and manual-edit sessions.
type Service struct {
	store        Store
	defaultRates schedule.RateTable

	mu       sync.Mutex
	sessions map[string]*schedule.OverrideSession
}

func NewService(store Store, defaultRates schedule.RateTable) *Service {
	return &Service{
		store:        store,
		defaultRates: defaultRates,
		sessions:     make(map[string]*schedule.OverrideSession),
	}
}

// =============================================================================
// CAMPAIGNS
// =============================================================================

// CreateCampaign mints an ID when absent and persists the campaign.
func (s *Service) CreateCampaign(ctx context.Context, c Campaign) (Campaign, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Budget.IsNegative() {
		return Campaign{}, fmt.Errorf("campaign budget must not be negative")
	}
	if err := s.store.SaveCampaign(ctx, c); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func (s *Service) GetCampaign(ctx context.Context, id string) (*Campaign, error) {
	return s.store.GetCampaign(ctx, id)
}

func (s *Service) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	return s.store.ListCampaigns(ctx)
}

// ReplaceBursts stores a campaign's bursts wholesale and invalidates any
// open editing session - the session's inputs are stale.
func (s *Service) ReplaceBursts(ctx context.Context, campaignID string, bursts []schedule.Burst) error {
	if _, err := s.store.GetCampaign(ctx, campaignID); err != nil {
		return err
	}
	if err := s.store.ReplaceBursts(ctx, campaignID, bursts); err != nil {
		return err
	}
	s.dropSession(campaignID)
	return nil
}

func (s *Service) ReplaceLineItemSources(ctx context.Context, campaignID string, sources []schedule.LineItemSource) error {
	if _, err := s.store.GetCampaign(ctx, campaignID); err != nil {
		return err
	}
	if err := s.store.ReplaceLineItemSources(ctx, campaignID, sources); err != nil {
		return err
	}
	s.dropSession(campaignID)
	return nil
}

// =============================================================================
// SCHEDULE READS
// =============================================================================

// Schedule returns the campaign's live schedule: the committed manual one
// when present, otherwise a fresh automatic derivation.
func (s *Service) Schedule(ctx context.Context, campaignID string) (*schedule.Schedule, error) {
	manual, err := s.store.ManualSchedule(ctx, campaignID)
	if err == nil {
		return manual, nil
	}
	if !errors.Is(err, ErrManualScheduleNotFound) {
		return nil, err
	}

	_, input, _, err := s.loadInputs(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return schedule.BuildSchedule(input), nil
}

// LineItems materializes the detail rows for the campaign's live schedule.
func (s *Service) LineItems(ctx context.Context, campaignID string) ([]*schedule.LineItem, error) {
	live, err := s.Schedule(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	_, _, sources, err := s.loadInputs(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return schedule.MaterializeLineItems(live, sources), nil
}

// =============================================================================
// MANUAL-EDIT SESSIONS
// =============================================================================

// BeginEdit opens (or reopens) the campaign's editing session and returns
// the draft plus its line items.
func (s *Service) BeginEdit(ctx context.Context, campaignID string) (*schedule.Schedule, []*schedule.LineItem, error) {
	c, input, sources, err := s.loadInputs(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}

	session := schedule.NewOverrideSession(input, sources, c.Budget)
	manual, err := s.store.ManualSchedule(ctx, campaignID)
	if err == nil {
		session.RestoreManual(manual)
	} else if !errors.Is(err, ErrManualScheduleNotFound) {
		return nil, nil, err
	}

	if err := session.BeginEdit(); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	s.sessions[campaignID] = session
	s.mu.Unlock()

	draft, items := session.Draft()
	return draft, items, nil
}

// EditCell applies one bucket-level edit to the campaign's draft.
func (s *Service) EditCell(ctx context.Context, campaignID string, edit schedule.CellEdit) (*schedule.Schedule, error) {
	session, ok := s.session(campaignID)
	if !ok {
		return nil, ErrNoSession
	}
	if err := session.EditCell(edit); err != nil {
		return nil, err
	}
	draft, _ := session.Draft()
	return draft, nil
}

// EditLineItem applies one line-item edit to the campaign's draft.
func (s *Service) EditLineItem(ctx context.Context, campaignID string, key schedule.LineItemKey, month schedule.MonthKey, value decimal.Decimal) (*schedule.Schedule, []*schedule.LineItem, error) {
	session, ok := s.session(campaignID)
	if !ok {
		return nil, nil, ErrNoSession
	}
	if err := session.EditLineItem(key, month, value); err != nil {
		return nil, nil, err
	}
	draft, items := session.Draft()
	return draft, items, nil
}

// SaveManual gates the draft on reconciliation and, when accepted,
// persists the committed manual schedule. A rejected save leaves the
// draft open; the result carries the signed difference either way.
func (s *Service) SaveManual(ctx context.Context, campaignID string) (schedule.ReconcileResult, error) {
	session, ok := s.session(campaignID)
	if !ok {
		return schedule.ReconcileResult{}, ErrNoSession
	}

	result, err := session.Save()
	if err != nil {
		return result, err
	}
	if !result.Accepted {
		return result, nil
	}

	if err := s.store.SaveManualSchedule(ctx, campaignID, session.Live()); err != nil {
		return result, err
	}
	return result, nil
}

// ResetManual discards any session draft and the committed manual
// schedule, returning the freshly derived automatic schedule.
func (s *Service) ResetManual(ctx context.Context, campaignID string) (*schedule.Schedule, error) {
	if err := s.store.DeleteManualSchedule(ctx, campaignID); err != nil &&
		!errors.Is(err, ErrManualScheduleNotFound) {
		return nil, err
	}
	s.dropSession(campaignID)
	return s.Schedule(ctx, campaignID)
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *Service) loadInputs(ctx context.Context, campaignID string) (*Campaign, schedule.ScheduleInput, []schedule.LineItemSource, error) {
	c, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, schedule.ScheduleInput{}, nil, err
	}

	bursts, err := s.store.Bursts(ctx, campaignID)
	if err != nil {
		return nil, schedule.ScheduleInput{}, nil, err
	}
	sources, err := s.store.LineItemSources(ctx, campaignID)
	if err != nil {
		return nil, schedule.ScheduleInput{}, nil, err
	}

	rates, err := s.store.RateCard(ctx, c.Client)
	if errors.Is(err, ErrRateCardNotFound) {
		rates = s.defaultRates
	} else if err != nil {
		return nil, schedule.ScheduleInput{}, nil, err
	}

	input := schedule.ScheduleInput{
		Start:  c.StartDate,
		End:    c.EndDate,
		Bursts: bursts,
		Rates:  rates,
	}
	return c, input, sources, nil
}

func (s *Service) session(campaignID string) (*schedule.OverrideSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[campaignID]
	return session, ok
}

func (s *Service) dropSession(campaignID string) {
	s.mu.Lock()
	delete(s.sessions, campaignID)
	s.mu.Unlock()
}
