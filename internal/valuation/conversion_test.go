package valuation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateOfDefaultsToOneForUnknownCurrency(t *testing.T) {
	known := uuid.New()
	rates := Rates{known: decimal.RequireFromString("655.957")}

	rate, ok := RateOf(&known, rates)
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("655.957")))

	missing := uuid.New()
	rate, ok = RateOf(&missing, rates)
	assert.False(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))

	// Nil currency means already reference-denominated: rate 1, no warning
	rate, ok = RateOf(nil, rates)
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}

func TestRateOfTreatsNonPositiveRateAsUnmapped(t *testing.T) {
	bad := uuid.New()
	rates := Rates{bad: decimal.Zero}

	rate, ok := RateOf(&bad, rates)
	assert.False(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}

func TestComputeCIFSumsLegsAtRateOne(t *testing.T) {
	a := Article{
		FOBValue:       decimal.NewFromInt(1000),
		FreightValue:   decimal.NewFromInt(200),
		InsuranceValue: decimal.NewFromInt(50),
	}

	res := ComputeCIF(a, Rates{})
	assert.True(t, res.Value.Equal(decimal.NewFromInt(1250)), "got %s", res.Value)
	assert.Empty(t, res.UnknownCurrencies)
}

func TestComputeCIFConvertsEachLegIndependently(t *testing.T) {
	eur := uuid.New()
	usd := uuid.New()
	rates := Rates{
		eur: decimal.RequireFromString("655.957"),
		usd: decimal.RequireFromString("600.5"),
	}

	a := Article{
		FOBValue:       decimal.NewFromInt(100),
		FOBCurrencyID:  &eur,
		FreightValue:   decimal.NewFromInt(10),
		FreightCurrencyID: &usd,
		InsuranceValue: decimal.NewFromInt(5),
	}

	// 100×655.957 + 10×600.5 + 5×1 = 65595.7 + 6005 + 5 = 71605.7 → 71606
	res := ComputeCIF(a, rates)
	assert.True(t, res.Value.Equal(decimal.NewFromInt(71606)), "got %s", res.Value)
	assert.Empty(t, res.UnknownCurrencies)
}

func TestComputeCIFReportsUnknownCurrencies(t *testing.T) {
	unknown := uuid.New()
	a := Article{
		FOBValue:      decimal.NewFromInt(1000),
		FOBCurrencyID: &unknown,
	}

	res := ComputeCIF(a, Rates{})
	// Behavioral compatibility: unknown currency still converts at 1
	assert.True(t, res.Value.Equal(decimal.NewFromInt(1000)))
	require.Len(t, res.UnknownCurrencies, 1)
	assert.Equal(t, unknown, res.UnknownCurrencies[0])
}

func TestComputeCIFIsDeterministic(t *testing.T) {
	eur := uuid.New()
	rates := Rates{eur: decimal.RequireFromString("655.957")}
	a := Article{
		FOBValue:      decimal.RequireFromString("123.45"),
		FOBCurrencyID: &eur,
		FreightValue:  decimal.RequireFromString("67.89"),
	}

	first := ComputeCIF(a, rates)
	for i := 0; i < 10; i++ {
		again := ComputeCIF(a, rates)
		assert.True(t, first.Value.Equal(again.Value))
	}
}
