package valuation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rates maps a currency id to its conversion rate towards the reference
// currency. Rate tables are supplied by the caller per computation; the
// conversion functions never cache them.
type Rates map[uuid.UUID]decimal.Decimal

// RateOf resolves the conversion rate for a currency. A nil currency means
// the leg is already quoted in the reference currency and converts at 1.
// An unknown or non-positive rate also converts at 1, but is reported as
// unmapped so callers can surface a warning instead of silently trusting it.
func RateOf(currencyID *uuid.UUID, rates Rates) (rate decimal.Decimal, known bool) {
	if currencyID == nil {
		return decimal.NewFromInt(1), true
	}
	r, ok := rates[*currencyID]
	if !ok || !r.IsPositive() {
		return decimal.NewFromInt(1), false
	}
	return r, true
}

// CIFResult carries a computed CIF value plus the currencies that had to be
// defaulted to rate 1 while computing it.
type CIFResult struct {
	Value             decimal.Decimal
	UnknownCurrencies []uuid.UUID
}

// ComputeCIF converts the article's FOB, freight and insurance legs into the
// reference currency and sums them, rounded to whole units. Pure function:
// identical inputs always yield identical output.
func ComputeCIF(a Article, rates Rates) CIFResult {
	var unknown []uuid.UUID

	leg := func(value decimal.Decimal, currencyID *uuid.UUID) decimal.Decimal {
		rate, known := RateOf(currencyID, rates)
		if !known {
			unknown = append(unknown, *currencyID)
		}
		return value.Mul(rate)
	}

	total := leg(a.FOBValue, a.FOBCurrencyID).
		Add(leg(a.FreightValue, a.FreightCurrencyID)).
		Add(leg(a.InsuranceValue, a.InsuranceCurrencyID))

	return CIFResult{
		Value:             total.Round(0),
		UnknownCurrencies: unknown,
	}
}
