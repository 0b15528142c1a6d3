package valuation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matrixWithFOB(t *testing.T, values ...string) *Matrix {
	t.Helper()
	m := NewMatrix()
	for i, v := range values {
		if v == "" {
			continue
		}
		_, err := m.SetField(i+1, FieldFOBValue, v)
		require.NoError(t, err)
	}
	return m
}

func TestDistributeByFOBRatio(t *testing.T) {
	m := matrixWithFOB(t, "300", "700")

	err := Distribute(m, DistributionInput{GlobalFreight: decimal.NewFromInt(100)})
	require.NoError(t, err)

	articles := m.Articles()
	assert.True(t, articles[0].FreightValue.Equal(decimal.NewFromInt(30)), "got %s", articles[0].FreightValue)
	assert.True(t, articles[1].FreightValue.Equal(decimal.NewFromInt(70)), "got %s", articles[1].FreightValue)
}

func TestDistributeConservesTotalsWithinRounding(t *testing.T) {
	m := matrixWithFOB(t, "100", "100", "100")

	global := decimal.NewFromInt(1000)
	err := Distribute(m, DistributionInput{GlobalInsurance: global})
	require.NoError(t, err)

	sum := decimal.Zero
	nonZero := 0
	for _, a := range m.Articles() {
		sum = sum.Add(a.InsuranceValue)
		if a.InsuranceValue.IsPositive() {
			nonZero++
		}
	}

	// Rounding error is bounded by the number of participating slots
	diff := sum.Sub(global).Abs()
	assert.True(t, diff.LessThanOrEqual(decimal.NewFromInt(int64(nonZero))),
		"sum %s drifted more than %d from %s", sum, nonZero, global)
}

func TestDistributeZeroBaseIsNoOp(t *testing.T) {
	m := NewMatrix()
	_, err := m.SetField(1, FieldFreightValue, "42")
	require.NoError(t, err)

	err = Distribute(m, DistributionInput{GlobalFreight: decimal.NewFromInt(100)})
	require.ErrorIs(t, err, ErrZeroBase)

	// No field on any slot may have been mutated
	a, err := m.Article(1)
	require.NoError(t, err)
	assert.True(t, a.FreightValue.Equal(decimal.NewFromInt(42)))
	for _, other := range m.Articles()[1:] {
		assert.True(t, other.IsBlank())
	}
}

func TestDistributeSkipsZeroFOBSlots(t *testing.T) {
	m := matrixWithFOB(t, "", "500")
	_, err := m.SetField(1, FieldFreightValue, "13")
	require.NoError(t, err)

	err = Distribute(m, DistributionInput{GlobalFreight: decimal.NewFromInt(100)})
	require.NoError(t, err)

	articles := m.Articles()
	// Slot 1 has no FOB: its freight stays as entered
	assert.True(t, articles[0].FreightValue.Equal(decimal.NewFromInt(13)))
	assert.True(t, articles[1].FreightValue.Equal(decimal.NewFromInt(100)))
}

func TestDistributeDimensionsAreIndependent(t *testing.T) {
	m := matrixWithFOB(t, "250", "750")
	_, err := m.SetField(1, FieldInsuranceValue, "99")
	require.NoError(t, err)
	_, err = m.SetField(1, FieldGrossWeight, "11.5")
	require.NoError(t, err)

	err = Distribute(m, DistributionInput{GlobalFreight: decimal.NewFromInt(400)})
	require.NoError(t, err)

	a, err := m.Article(1)
	require.NoError(t, err)
	assert.True(t, a.FreightValue.Equal(decimal.NewFromInt(100)))
	// Insurance and weight untouched when their global input is absent
	assert.True(t, a.InsuranceValue.Equal(decimal.NewFromInt(99)))
	assert.True(t, a.GrossWeight.Equal(decimal.RequireFromString("11.5")))
}

func TestDistributeWeightKeepsTwoDecimals(t *testing.T) {
	m := matrixWithFOB(t, "1", "2")

	err := Distribute(m, DistributionInput{GlobalGrossWeight: decimal.NewFromInt(100)})
	require.NoError(t, err)

	articles := m.Articles()
	assert.True(t, articles[0].GrossWeight.Equal(decimal.RequireFromString("33.33")), "got %s", articles[0].GrossWeight)
	assert.True(t, articles[1].GrossWeight.Equal(decimal.RequireFromString("66.67")), "got %s", articles[1].GrossWeight)
}

func TestDistributeIsIdempotent(t *testing.T) {
	m := matrixWithFOB(t, "300", "700")
	in := DistributionInput{
		GlobalFreight:   decimal.NewFromInt(100),
		GlobalInsurance: decimal.NewFromInt(60),
	}

	require.NoError(t, Distribute(m, in))
	first := m.Articles()

	require.NoError(t, Distribute(m, in))
	second := m.Articles()

	for i := range first {
		assert.True(t, first[i].FreightValue.Equal(second[i].FreightValue))
		assert.True(t, first[i].InsuranceValue.Equal(second[i].InsuranceValue))
	}
}

func TestDistributeRejectsNegativeInputs(t *testing.T) {
	m := matrixWithFOB(t, "100")
	err := Distribute(m, DistributionInput{GlobalFreight: decimal.NewFromInt(-5)})
	require.Error(t, err)
}
