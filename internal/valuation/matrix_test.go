package valuation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrixHasElevenBlankSlots(t *testing.T) {
	m := NewMatrix()

	articles := m.Articles()
	require.Len(t, articles, SlotCount)
	for i, a := range articles {
		assert.Equal(t, i+1, a.SlotIndex)
		assert.True(t, a.IsBlank())
		assert.Nil(t, a.PersistedID)
	}
}

func TestSetFieldRejectsOutOfRangeSlots(t *testing.T) {
	m := NewMatrix()

	for _, slot := range []int{0, -1, 12, 100} {
		_, err := m.SetField(slot, FieldFOBValue, "100")
		var invalid *InvalidSlotError
		require.ErrorAs(t, err, &invalid, "slot %d", slot)
		assert.Equal(t, slot, invalid.Slot)
	}

	// Existing state must be untouched by the rejected calls
	for _, a := range m.Articles() {
		assert.True(t, a.IsBlank())
	}
}

func TestSetFieldUpdatesOnlyTargetSlot(t *testing.T) {
	m := NewMatrix()

	updated, err := m.SetField(3, FieldFOBValue, "1500.50")
	require.NoError(t, err)
	assert.Equal(t, 3, updated.SlotIndex)
	assert.True(t, updated.FOBValue.Equal(decimal.RequireFromString("1500.50")))

	_, err = m.SetField(3, FieldNTSCode, "8703.21.10")
	require.NoError(t, err)

	for _, a := range m.Articles() {
		if a.SlotIndex == 3 {
			assert.Equal(t, "8703.21.10", a.NTSCode)
			continue
		}
		assert.True(t, a.IsBlank(), "slot %d mutated", a.SlotIndex)
	}
}

func TestSetFieldParsesCurrencyAndCount(t *testing.T) {
	m := NewMatrix()
	currencyID := uuid.New()

	a, err := m.SetField(1, FieldFOBCurrency, currencyID.String())
	require.NoError(t, err)
	require.NotNil(t, a.FOBCurrencyID)
	assert.Equal(t, currencyID, *a.FOBCurrencyID)

	// Clearing the currency resets the leg to reference-denominated
	a, err = m.SetField(1, FieldFOBCurrency, "")
	require.NoError(t, err)
	assert.Nil(t, a.FOBCurrencyID)

	a, err = m.SetField(1, FieldPackageCount, "12")
	require.NoError(t, err)
	assert.Equal(t, 12, a.PackageCount)

	_, err = m.SetField(1, FieldPackageCount, "-2")
	assert.Error(t, err)
}

func TestSetFieldRejectsNegativeAndMalformedAmounts(t *testing.T) {
	m := NewMatrix()

	_, err := m.SetField(2, FieldFreightValue, "-10")
	require.Error(t, err)

	_, err = m.SetField(2, FieldFreightValue, "abc")
	require.Error(t, err)

	_, err = m.SetField(2, Field("unknown_field"), "x")
	var unknown *UnknownFieldError
	require.ErrorAs(t, err, &unknown)

	a, err := m.Article(2)
	require.NoError(t, err)
	assert.True(t, a.IsBlank())
}

func TestLoadFromPersistedMapsInOrderAndZeroFills(t *testing.T) {
	m := NewMatrix()
	// Dirty the matrix first so zero-fill is observable
	_, err := m.SetField(11, FieldDescription, "leftover")
	require.NoError(t, err)

	id := uuid.New()
	records := []Article{
		{PersistedID: &id, NTSCode: "1001.10", FOBValue: decimal.NewFromInt(300)},
		{NTSCode: "2203.00", FOBValue: decimal.NewFromInt(700)},
	}

	require.NoError(t, m.LoadFromPersisted(records))

	articles := m.Articles()
	assert.Equal(t, "1001.10", articles[0].NTSCode)
	assert.Equal(t, 1, articles[0].SlotIndex)
	assert.Equal(t, "2203.00", articles[1].NTSCode)
	assert.Equal(t, 2, articles[1].SlotIndex)
	for _, a := range articles[2:] {
		assert.True(t, a.IsBlank(), "slot %d not zero-filled", a.SlotIndex)
	}
}

func TestLoadFromPersistedRejectsMoreThanElevenRecords(t *testing.T) {
	m := NewMatrix()
	_, err := m.SetField(1, FieldNTSCode, "1001.10")
	require.NoError(t, err)

	records := make([]Article, SlotCount+1)
	err = m.LoadFromPersisted(records)
	require.ErrorIs(t, err, ErrTooManyArticles)

	// Rejection must not clobber existing state
	a, err := m.Article(1)
	require.NoError(t, err)
	assert.Equal(t, "1001.10", a.NTSCode)
}

func TestToPersistableReturnsNilForBlankSlots(t *testing.T) {
	m := NewMatrix()

	p, err := m.ToPersistable(5)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = m.SetField(5, FieldGrossWeight, "120.5")
	require.NoError(t, err)

	// Weight alone does not make the slot persistable
	p, err = m.ToPersistable(5)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = m.SetField(5, FieldFOBValue, "900")
	require.NoError(t, err)

	p, err = m.ToPersistable(5)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.FOBValue.Equal(decimal.NewFromInt(900)))
}

func TestToPersistableIsIdempotent(t *testing.T) {
	m := NewMatrix()
	_, err := m.SetField(4, FieldNTSCode, "8703.21.10")
	require.NoError(t, err)
	_, err = m.SetField(4, FieldFOBValue, "2500")
	require.NoError(t, err)

	first, err := m.ToPersistable(4)
	require.NoError(t, err)
	second, err := m.ToPersistable(4)
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}
