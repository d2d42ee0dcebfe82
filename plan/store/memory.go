// Package store provides an in-memory plan.Store implementation for
// testing and development.
package store

import (
	"context"
	"sync"

	"github.com/warp/billing-engine/plan"
	"github.com/warp/billing-engine/schedule"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	campaigns map[string]plan.Campaign
	order     []string
	bursts    map[string][]schedule.Burst
	sources   map[string][]schedule.LineItemSource
	rateCards map[string]schedule.RateTable
	manual    map[string]*schedule.Schedule
}

func NewMemory() *Memory {
	return &Memory{
		campaigns: make(map[string]plan.Campaign),
		bursts:    make(map[string][]schedule.Burst),
		sources:   make(map[string][]schedule.LineItemSource),
		rateCards: make(map[string]schedule.RateTable),
		manual:    make(map[string]*schedule.Schedule),
	}
}

func (m *Memory) SaveCampaign(_ context.Context, c plan.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.campaigns[c.ID]; !exists {
		m.order = append(m.order, c.ID)
	}
	m.campaigns[c.ID] = c
	return nil
}

func (m *Memory) GetCampaign(_ context.Context, id string) (*plan.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, plan.ErrCampaignNotFound
	}
	return &c, nil
}

func (m *Memory) ListCampaigns(_ context.Context) ([]plan.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]plan.Campaign, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.campaigns[id])
	}
	return out, nil
}

func (m *Memory) ReplaceBursts(_ context.Context, campaignID string, bursts []schedule.Burst) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bursts[campaignID] = append([]schedule.Burst(nil), bursts...)
	return nil
}

func (m *Memory) Bursts(_ context.Context, campaignID string) ([]schedule.Burst, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]schedule.Burst(nil), m.bursts[campaignID]...), nil
}

func (m *Memory) ReplaceLineItemSources(_ context.Context, campaignID string, sources []schedule.LineItemSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[campaignID] = append([]schedule.LineItemSource(nil), sources...)
	return nil
}

func (m *Memory) LineItemSources(_ context.Context, campaignID string) ([]schedule.LineItemSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]schedule.LineItemSource(nil), m.sources[campaignID]...), nil
}

func (m *Memory) SaveRateCard(_ context.Context, client string, rates schedule.RateTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateCards[client] = rates
	return nil
}

func (m *Memory) RateCard(_ context.Context, client string) (schedule.RateTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rates, ok := m.rateCards[client]
	if !ok {
		return schedule.RateTable{}, plan.ErrRateCardNotFound
	}
	return rates, nil
}

func (m *Memory) SaveManualSchedule(_ context.Context, campaignID string, s *schedule.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Clone on write so a later session edit cannot reach the stored copy.
	m.manual[campaignID] = s.Clone()
	return nil
}

func (m *Memory) ManualSchedule(_ context.Context, campaignID string) (*schedule.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.manual[campaignID]
	if !ok {
		return nil, plan.ErrManualScheduleNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) DeleteManualSchedule(_ context.Context, campaignID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.manual[campaignID]; !ok {
		return plan.ErrManualScheduleNotFound
	}
	delete(m.manual, campaignID)
	return nil
}
