/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY ON THE WIRE:
  Responses carry money as JSON numbers (InexactFloat64) because the UI
  only displays them; all arithmetic happens engine-side on decimals.
  Request amounts are accepted as numbers and converted back to decimals
  at the boundary.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/ratecard.go: RateCardJSON type reused for rate-card endpoints
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/billing-engine/plan"
	"github.com/warp/billing-engine/schedule"
)

// =============================================================================
// CAMPAIGN TYPES
// =============================================================================

// CampaignDTO represents a campaign in API responses.
type CampaignDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Client    string  `json:"client"`
	StartDate string  `json:"start_date,omitempty"`
	EndDate   string  `json:"end_date,omitempty"`
	Budget    float64 `json:"budget"`
}

// CreateCampaignRequest is the request to create a campaign.
type CreateCampaignRequest struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Client    string  `json:"client"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Budget    float64 `json:"budget"`
}

// BurstRequest is one spend commitment in a plan save.
type BurstRequest struct {
	MediaType    string  `json:"media_type"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	MediaAmount  float64 `json:"media_amount"`
	FeeAmount    float64 `json:"fee_amount"`
	Deliverables float64 `json:"deliverables"`
	BuyType      string  `json:"buy_type"`
	NoAdServing  bool    `json:"no_ad_serving"`
}

// ReplaceBurstsRequest replaces a campaign's burst list wholesale.
type ReplaceBurstsRequest struct {
	Bursts []BurstRequest `json:"bursts"`
}

// LineItemSourceRequest is one planning-detail row in a plan save.
type LineItemSourceRequest struct {
	MediaType string  `json:"media_type"`
	Publisher string  `json:"publisher"`
	Detail    string  `json:"detail"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Amount    float64 `json:"amount"`
}

// ReplaceLineItemSourcesRequest replaces a campaign's detail rows wholesale.
type ReplaceLineItemSourcesRequest struct {
	Sources []LineItemSourceRequest `json:"sources"`
}

// =============================================================================
// SCHEDULE TYPES
// =============================================================================

// MonthBucketDTO is one calendar month of the schedule.
type MonthBucketDTO struct {
	Month           string             `json:"month"`
	MediaCosts      map[string]float64 `json:"media_costs"`
	FeeTotal        float64            `json:"fee_total"`
	AdServingTotal  float64            `json:"ad_serving_total"`
	ProductionTotal float64            `json:"production_total"`
	MediaTotal      float64            `json:"media_total"`
	GrandTotal      float64            `json:"grand_total"`
}

// WarningDTO surfaces a burst that contributed nothing.
type WarningDTO struct {
	MediaType string `json:"media_type"`
	Reason    string `json:"reason"`
}

// ScheduleDTO represents a schedule in API responses.
type ScheduleDTO struct {
	Months     []MonthBucketDTO `json:"months"`
	GrandTotal float64          `json:"grand_total"`
	Mode       string           `json:"mode"`
	Warnings   []WarningDTO     `json:"warnings,omitempty"`
}

// LineItemDTO is one materialized detail row.
type LineItemDTO struct {
	MediaType string             `json:"media_type"`
	Publisher string             `json:"publisher"`
	Detail    string             `json:"detail"`
	Monthly   map[string]float64 `json:"monthly"`
	Total     float64            `json:"total"`
}

// EditSessionDTO is the response to opening or editing a draft.
type EditSessionDTO struct {
	Schedule  ScheduleDTO   `json:"schedule"`
	LineItems []LineItemDTO `json:"line_items,omitempty"`
}

// EditCellRequest applies one bucket-level edit to the draft.
type EditCellRequest struct {
	Month     string  `json:"month"`
	Field     string  `json:"field"`
	MediaType string  `json:"media_type,omitempty"`
	Value     float64 `json:"value"`
}

// EditLineItemRequest applies one line-item edit to the draft.
type EditLineItemRequest struct {
	MediaType string  `json:"media_type"`
	Publisher string  `json:"publisher"`
	Detail    string  `json:"detail"`
	Month     string  `json:"month"`
	Value     float64 `json:"value"`
}

// SaveResultDTO reports the reconciliation outcome of a manual save.
type SaveResultDTO struct {
	Accepted   bool    `json:"accepted"`
	Difference float64 `json:"difference"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toCampaignDTO(c plan.Campaign) CampaignDTO {
	dto := CampaignDTO{
		ID:     c.ID,
		Name:   c.Name,
		Client: c.Client,
		Budget: c.Budget.InexactFloat64(),
	}
	if !c.StartDate.IsZero() {
		dto.StartDate = c.StartDate.String()
	}
	if !c.EndDate.IsZero() {
		dto.EndDate = c.EndDate.String()
	}
	return dto
}

func toScheduleDTO(s *schedule.Schedule) ScheduleDTO {
	dto := ScheduleDTO{
		Months:     make([]MonthBucketDTO, len(s.Months)),
		GrandTotal: s.GrandTotal.InexactFloat64(),
		Mode:       string(s.Mode),
	}
	for i, b := range s.Months {
		costs := make(map[string]float64, len(b.MediaCosts))
		for m, v := range b.MediaCosts {
			costs[string(m)] = v.InexactFloat64()
		}
		dto.Months[i] = MonthBucketDTO{
			Month:           b.Month.String(),
			MediaCosts:      costs,
			FeeTotal:        b.FeeTotal.InexactFloat64(),
			AdServingTotal:  b.AdServingTotal.InexactFloat64(),
			ProductionTotal: b.ProductionTotal.InexactFloat64(),
			MediaTotal:      b.MediaTotal.InexactFloat64(),
			GrandTotal:      b.GrandTotal.InexactFloat64(),
		}
	}
	for _, warn := range s.Warnings {
		dto.Warnings = append(dto.Warnings, WarningDTO{
			MediaType: string(warn.MediaType),
			Reason:    string(warn.Reason),
		})
	}
	return dto
}

func toLineItemDTOs(items []*schedule.LineItem) []LineItemDTO {
	dtos := make([]LineItemDTO, len(items))
	for i, item := range items {
		monthly := make(map[string]float64, len(item.Monthly))
		for month, v := range item.Monthly {
			monthly[month.String()] = v.InexactFloat64()
		}
		dtos[i] = LineItemDTO{
			MediaType: string(item.Key.MediaType),
			Publisher: item.Key.Publisher,
			Detail:    item.Key.Detail,
			Monthly:   monthly,
			Total:     item.Total.InexactFloat64(),
		}
	}
	return dtos
}

func toBursts(reqs []BurstRequest) []schedule.Burst {
	bursts := make([]schedule.Burst, len(reqs))
	for i, r := range reqs {
		bursts[i] = schedule.Burst{
			MediaType:    schedule.MediaType(r.MediaType),
			StartDate:    r.StartDate,
			EndDate:      r.EndDate,
			MediaAmount:  decimal.NewFromFloat(r.MediaAmount),
			FeeAmount:    decimal.NewFromFloat(r.FeeAmount),
			Deliverables: decimal.NewFromFloat(r.Deliverables),
			BuyType:      schedule.BuyType(r.BuyType),
			NoAdServing:  r.NoAdServing,
		}
	}
	return bursts
}

func toLineItemSources(reqs []LineItemSourceRequest) []schedule.LineItemSource {
	sources := make([]schedule.LineItemSource, len(reqs))
	for i, r := range reqs {
		sources[i] = schedule.LineItemSource{
			MediaType: schedule.MediaType(r.MediaType),
			Publisher: r.Publisher,
			Detail:    r.Detail,
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
			Amount:    decimal.NewFromFloat(r.Amount),
		}
	}
	return sources
}
