/*
Package factory provides JSON to rate-table conversion.

PURPOSE:
  Converts JSON rate-card definitions into schedule.RateTable values.
  Client ad-serving rates are negotiated per client and maintained by
  account managers, not developers - they arrive as JSON from the admin
  UI or the store and are validated and defaulted here.

JSON SCHEMA:
  {
    "client": "acme",
    "video": 10.0,
    "audio": 4.0,
    "display": 2.0,
    "impression": 1.0
  }

  Omitted rates fall back to the house defaults. Negative rates are
  rejected.

USAGE:
  f := factory.NewRateCardFactory()
  client, rates, err := f.Parse(jsonString)

SEE ALSO:
  - schedule/adserving.go: RateTable and the cost model consuming it
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/billing-engine/schedule"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RateCardJSON is the wire representation of a client rate card. Pointer
// fields distinguish "omitted" (use the default) from an explicit zero.
type RateCardJSON struct {
	Client     string   `json:"client"`
	Video      *float64 `json:"video,omitempty"`
	Audio      *float64 `json:"audio,omitempty"`
	Display    *float64 `json:"display,omitempty"`
	Impression *float64 `json:"impression,omitempty"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultRates returns the house rate card used when a client has no
// negotiated rates on file.
func DefaultRates() schedule.RateTable {
	return schedule.RateTable{
		Video:      decimal.NewFromFloat(10.0),
		Audio:      decimal.NewFromFloat(4.0),
		Display:    decimal.NewFromFloat(2.0),
		Impression: decimal.NewFromFloat(1.0),
	}
}

// =============================================================================
// FACTORY
// =============================================================================

// RateCardFactory parses and validates rate-card JSON.
type RateCardFactory struct {
	defaults schedule.RateTable
}

func NewRateCardFactory() *RateCardFactory {
	return &RateCardFactory{defaults: DefaultRates()}
}

// Parse converts a JSON rate card into a RateTable, applying defaults
// for omitted rates. The client name is required.
func (f *RateCardFactory) Parse(jsonStr string) (string, schedule.RateTable, error) {
	var card RateCardJSON
	if err := json.Unmarshal([]byte(jsonStr), &card); err != nil {
		return "", schedule.RateTable{}, fmt.Errorf("invalid rate card JSON: %w", err)
	}
	rates, err := f.FromJSON(card)
	if err != nil {
		return "", schedule.RateTable{}, err
	}
	return card.Client, rates, nil
}

// FromJSON converts an already-decoded card, applying defaults and
// validation.
func (f *RateCardFactory) FromJSON(card RateCardJSON) (schedule.RateTable, error) {
	if card.Client == "" {
		return schedule.RateTable{}, fmt.Errorf("rate card is missing client name")
	}

	rates := f.defaults
	fields := []struct {
		name  string
		value *float64
		dst   *decimal.Decimal
	}{
		{"video", card.Video, &rates.Video},
		{"audio", card.Audio, &rates.Audio},
		{"display", card.Display, &rates.Display},
		{"impression", card.Impression, &rates.Impression},
	}
	for _, fld := range fields {
		if fld.value == nil {
			continue
		}
		if *fld.value < 0 {
			return schedule.RateTable{}, fmt.Errorf("rate %q must not be negative", fld.name)
		}
		*fld.dst = decimal.NewFromFloat(*fld.value)
	}
	return rates, nil
}

// ToJSON re-encodes a rate table for the admin UI.
func (f *RateCardFactory) ToJSON(client string, rates schedule.RateTable) RateCardJSON {
	video := rates.Video.InexactFloat64()
	audio := rates.Audio.InexactFloat64()
	display := rates.Display.InexactFloat64()
	impression := rates.Impression.InexactFloat64()
	return RateCardJSON{
		Client:     client,
		Video:      &video,
		Audio:      &audio,
		Display:    &display,
		Impression: &impression,
	}
}
