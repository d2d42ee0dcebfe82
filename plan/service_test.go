package plan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/billing-engine/plan"
	"github.com/warp/billing-engine/plan/store"
	"github.com/warp/billing-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func defaultRates() schedule.RateTable {
	return schedule.RateTable{Video: dec(10), Audio: dec(4), Display: dec(2), Impression: dec(1)}
}

func seedCampaign(t *testing.T, svc *plan.Service) plan.Campaign {
	t.Helper()
	ctx := context.Background()

	c, err := svc.CreateCampaign(ctx, plan.Campaign{
		Name:      "Spring Launch",
		Client:    "acme",
		StartDate: schedule.NewDate(2025, time.January, 1),
		EndDate:   schedule.NewDate(2025, time.March, 31),
		Budget:    dec(110000),
	})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	err = svc.ReplaceBursts(ctx, c.ID, []schedule.Burst{
		{MediaType: schedule.MediaTelevision, StartDate: "2025-01-01", EndDate: "2025-03-31",
			MediaAmount: dec(90000), FeeAmount: dec(9000)},
		{MediaType: schedule.MediaSearch, StartDate: "2025-02-01", EndDate: "2025-02-28",
			MediaAmount: dec(10000), FeeAmount: dec(1000)},
	})
	if err != nil {
		t.Fatalf("replace bursts: %v", err)
	}
	return c
}

func newTestService() (*plan.Service, *store.Memory) {
	mem := store.NewMemory()
	return plan.NewService(mem, defaultRates()), mem
}

// =============================================================================
// SCHEDULE READS
// =============================================================================

func TestService_Schedule_BuildsAutomatic(t *testing.T) {
	// GIVEN: A stored campaign with bursts and no manual override
	// WHEN: Reading the schedule
	// THEN: A fresh automatic derivation is returned

	svc, _ := newTestService()
	c := seedCampaign(t, svc)

	s, err := svc.Schedule(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if s.Mode != schedule.ModeAutomatic {
		t.Errorf("expected automatic mode, got %s", s.Mode)
	}
	if len(s.Months) != 3 {
		t.Errorf("expected 3 buckets, got %d", len(s.Months))
	}
	// 90000+9000+10000+1000 = 110000, up to proration drift.
	if s.GrandTotal.Sub(dec(110000)).Abs().GreaterThan(dec(0.05)) {
		t.Errorf("expected grand total near 110000, got %s", s.GrandTotal)
	}
}

func TestService_Schedule_UnknownCampaign(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Schedule(context.Background(), "missing")
	if !errors.Is(err, plan.ErrCampaignNotFound) {
		t.Fatalf("expected ErrCampaignNotFound, got %v", err)
	}
}

func TestService_Schedule_UsesClientRateCard(t *testing.T) {
	// GIVEN: A stored client rate card with a distinctive video rate
	// WHEN: Building the schedule for a CPM video burst
	// THEN: The stored card, not the default, prices the ad-serving line

	svc, mem := newTestService()
	ctx := context.Background()
	c := seedCampaign(t, svc)

	if err := mem.SaveRateCard(ctx, "acme", schedule.RateTable{
		Video: dec(50), Audio: dec(4), Display: dec(2), Impression: dec(1),
	}); err != nil {
		t.Fatalf("save rate card: %v", err)
	}
	if err := svc.ReplaceBursts(ctx, c.ID, []schedule.Burst{
		{MediaType: schedule.MediaProgVideo, StartDate: "2025-01-01", EndDate: "2025-01-31",
			MediaAmount: dec(1000), Deliverables: dec(1000), BuyType: schedule.BuyCPM},
	}); err != nil {
		t.Fatalf("replace bursts: %v", err)
	}

	s, err := svc.Schedule(ctx, c.ID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	jan := s.Months[0]
	// Client video rate is 50: 1000/1000 * 50 = 50.
	if !jan.AdServingTotal.Equal(dec(50)) {
		t.Errorf("expected client-rate ad-serving 50, got %s", jan.AdServingTotal)
	}
}

// =============================================================================
// MANUAL OVERRIDE LIFECYCLE
// =============================================================================

func TestService_ManualCommit_SupersedesRecomputation(t *testing.T) {
	// GIVEN: An accepted manual save
	// WHEN: Reading the schedule afterwards
	// THEN: The committed manual schedule is returned, not a recomputation

	svc, _ := newTestService()
	ctx := context.Background()
	c := seedCampaign(t, svc)

	draft, _, err := svc.BeginEdit(ctx, c.ID)
	if err != nil {
		t.Fatalf("begin edit: %v", err)
	}

	jan := draft.Months[0]
	if _, err := svc.EditCell(ctx, c.ID, schedule.CellEdit{
		Month: jan.Month, Field: schedule.CellFee, Value: jan.FeeTotal.Add(dec(1)),
	}); err != nil {
		t.Fatalf("edit cell: %v", err)
	}

	result, err := svc.SaveManual(ctx, c.ID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected acceptance, difference=%s", result.Difference)
	}

	live, err := svc.Schedule(ctx, c.ID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if live.Mode != schedule.ModeManual {
		t.Errorf("expected manual mode, got %s", live.Mode)
	}
	if !live.GrandTotal.Equal(draft.GrandTotal) {
		t.Errorf("committed total %s != draft total %s", live.GrandTotal, draft.GrandTotal)
	}
}

func TestService_SaveRejected_NothingCommitted(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c := seedCampaign(t, svc)

	draft, _, err := svc.BeginEdit(ctx, c.ID)
	if err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if _, err := svc.EditCell(ctx, c.ID, schedule.CellEdit{
		Month: draft.Months[0].Month, Field: schedule.CellProduction, Value: dec(99999),
	}); err != nil {
		t.Fatalf("edit cell: %v", err)
	}

	result, err := svc.SaveManual(ctx, c.ID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected rejection")
	}

	live, err := svc.Schedule(ctx, c.ID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if live.Mode != schedule.ModeAutomatic {
		t.Errorf("rejected save must not commit; got mode %s", live.Mode)
	}
}

func TestService_Reset_RestoresAutomatic(t *testing.T) {
	// GIVEN: A committed manual schedule
	// WHEN: Resetting
	// THEN: The persisted manual copy is deleted and the automatic
	//       derivation is identical to the pre-override one

	svc, _ := newTestService()
	ctx := context.Background()
	c := seedCampaign(t, svc)

	before, err := svc.Schedule(ctx, c.ID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	draft, _, err := svc.BeginEdit(ctx, c.ID)
	if err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if _, err := svc.EditCell(ctx, c.ID, schedule.CellEdit{
		Month: draft.Months[1].Month, Field: schedule.CellFee,
		Value: draft.Months[1].FeeTotal.Add(dec(1.25)),
	}); err != nil {
		t.Fatalf("edit cell: %v", err)
	}
	if result, err := svc.SaveManual(ctx, c.ID); err != nil || !result.Accepted {
		t.Fatalf("save: err=%v accepted=%v", err, result.Accepted)
	}

	after, err := svc.ResetManual(ctx, c.ID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if after.Mode != schedule.ModeAutomatic {
		t.Errorf("expected automatic after reset, got %s", after.Mode)
	}
	if !after.GrandTotal.Equal(before.GrandTotal) {
		t.Errorf("reset schedule %s != original automatic %s", after.GrandTotal, before.GrandTotal)
	}
}

func TestService_BurstChange_InvalidatesSession(t *testing.T) {
	// A plan save while a draft is open makes the draft's inputs stale,
	// so the session is dropped.

	svc, _ := newTestService()
	ctx := context.Background()
	c := seedCampaign(t, svc)

	if _, _, err := svc.BeginEdit(ctx, c.ID); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := svc.ReplaceBursts(ctx, c.ID, nil); err != nil {
		t.Fatalf("replace bursts: %v", err)
	}

	_, err := svc.EditCell(ctx, c.ID, schedule.CellEdit{
		Month: schedule.MonthKey{Year: 2025, Month: time.January},
		Field: schedule.CellFee, Value: dec(1),
	})
	if !errors.Is(err, plan.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}
