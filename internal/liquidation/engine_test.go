package liquidation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	schedules map[string][]Definition
	err       error
}

func (f *fakeSource) ScheduleFor(_ context.Context, ntsCode string) ([]Definition, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.schedules[ntsCode], nil
}

// fakeCalculator models an interdependent schedule: DD is levied on a fixed
// CIF base of 1000, TVA is levied on CIF plus the DD amount. Excluding DD
// therefore also shrinks TVA, which a local subtraction would miss.
type fakeCalculator struct {
	calls   int
	cleared []uuid.UUID
	onCalc  func()
}

func (f *fakeCalculator) Calculate(_ context.Context, _ uuid.UUID, excluded map[string]bool) (Result, error) {
	f.calls++
	if f.onCalc != nil {
		f.onCalc()
	}

	cif := decimal.NewFromInt(1000)
	ddRate := decimal.RequireFromString("0.20")
	tvaRate := decimal.RequireFromString("0.18")

	dd := Line{TaxCode: "DD", Label: "Droit de douane", Rate: ddRate, Excluded: excluded["DD"]}
	base := cif
	if !dd.Excluded {
		dd.Amount = cif.Mul(ddRate)
		base = base.Add(dd.Amount)
	}

	tva := Line{TaxCode: "TVA", Label: "Taxe sur la valeur ajoutée", Rate: tvaRate, Excluded: excluded["TVA"]}
	if !tva.Excluded {
		tva.Amount = base.Mul(tvaRate)
	}

	return Result{Lines: []Line{dd, tva}}, nil
}

func (f *fakeCalculator) ClearLiquidations(_ context.Context, articleID uuid.UUID) error {
	f.cleared = append(f.cleared, articleID)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeCalculator) {
	t.Helper()
	source := &fakeSource{schedules: map[string][]Definition{
		"8703.21.10": {
			{TaxCode: "DD", Label: "Droit de douane", Rate: decimal.RequireFromString("0.20"), BaseType: "CIF", Sequence: 1},
			{TaxCode: "TVA", Label: "Taxe sur la valeur ajoutée", Rate: decimal.RequireFromString("0.18"), BaseType: "CIF_PLUS_TAXES", Sequence: 2},
		},
	}}
	calc := &fakeCalculator{}
	return NewEngine(source, calc), calc
}

func TestEngineStartsIdle(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Equal(t, StateIdle, e.State())
	assert.Empty(t, e.Lines())
	assert.True(t, e.Total().IsZero())
}

func TestLoadScheduleEntersScheduleLoadedWithZeroedLines(t *testing.T) {
	e, _ := newTestEngine(t)

	require.NoError(t, e.LoadSchedule(context.Background(), "8703.21.10"))
	assert.Equal(t, StateScheduleLoaded, e.State())

	lines := e.Lines()
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.True(t, l.Amount.IsZero())
		assert.False(t, l.Excluded)
	}
	assert.True(t, e.Total().IsZero())
}

func TestLiquidateRequiresPersistedArticle(t *testing.T) {
	e, calc := newTestEngine(t)
	require.NoError(t, e.LoadSchedule(context.Background(), "8703.21.10"))

	_, err := e.Liquidate(context.Background(), nil)
	require.ErrorIs(t, err, ErrArticleNotPersisted)
	assert.Equal(t, StateScheduleLoaded, e.State())
	assert.Zero(t, calc.calls)
}

func TestLiquidateComputesLinesAndTotal(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.LoadSchedule(context.Background(), "8703.21.10"))

	id := uuid.New()
	res, err := e.Liquidate(context.Background(), &id)
	require.NoError(t, err)
	assert.Equal(t, StateLiquidated, e.State())

	// DD = 1000×0.20 = 200; TVA = 1200×0.18 = 216; total 416
	require.Len(t, res.Lines, 2)
	assert.True(t, res.Lines[0].Amount.Equal(decimal.NewFromInt(200)), "got %s", res.Lines[0].Amount)
	assert.True(t, res.Lines[1].Amount.Equal(decimal.NewFromInt(216)), "got %s", res.Lines[1].Amount)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(416)), "got %s", res.Total)
}

func TestToggleExclusionTriggersFullRecalculation(t *testing.T) {
	e, calc := newTestEngine(t)
	require.NoError(t, e.LoadSchedule(context.Background(), "8703.21.10"))

	id := uuid.New()
	_, err := e.Liquidate(context.Background(), &id)
	require.NoError(t, err)
	require.Equal(t, 1, calc.calls)

	res, err := e.ToggleExclusion(context.Background(), "DD", &id)
	require.NoError(t, err)
	assert.Equal(t, 2, calc.calls, "toggle must re-invoke the calculator")
	assert.Equal(t, StateLiquidated, e.State())

	// With DD excluded, TVA shrinks to 1000×0.18 = 180. Plain subtraction of
	// DD's old 200 from 416 would have yielded the wrong 216.
	require.Len(t, res.Lines, 2)
	assert.True(t, res.Lines[0].Excluded)
	assert.True(t, res.Lines[0].Amount.IsZero())
	assert.True(t, res.Lines[1].Amount.Equal(decimal.NewFromInt(180)), "got %s", res.Lines[1].Amount)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(180)), "got %s", res.Total)

	// Toggling back restores the full schedule
	res, err = e.ToggleExclusion(context.Background(), "DD", &id)
	require.NoError(t, err)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(416)))
}

func TestToggleUnknownTaxCodeIsInert(t *testing.T) {
	e, calc := newTestEngine(t)
	require.NoError(t, e.LoadSchedule(context.Background(), "8703.21.10"))

	id := uuid.New()
	_, err := e.Liquidate(context.Background(), &id)
	require.NoError(t, err)

	res, err := e.ToggleExclusion(context.Background(), "GONE", &id)
	require.NoError(t, err)
	assert.Equal(t, 1, calc.calls, "inert toggle must not recalculate")
	assert.True(t, res.Total.Equal(decimal.NewFromInt(416)))
}

func TestToggleBeforeLiquidationOnlyMarksLine(t *testing.T) {
	e, calc := newTestEngine(t)
	require.NoError(t, e.LoadSchedule(context.Background(), "8703.21.10"))

	res, err := e.ToggleExclusion(context.Background(), "TVA", nil)
	require.NoError(t, err)
	assert.Zero(t, calc.calls)
	assert.Equal(t, StateScheduleLoaded, e.State())

	require.Len(t, res.Lines, 2)
	assert.True(t, res.Lines[1].Excluded)
	assert.True(t, res.Total.IsZero())
}

func TestLoadScheduleClearsExclusions(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.LoadSchedule(ctx, "8703.21.10"))

	id := uuid.New()
	_, err := e.Liquidate(ctx, &id)
	require.NoError(t, err)
	_, err = e.ToggleExclusion(ctx, "DD", &id)
	require.NoError(t, err)
	require.True(t, e.Excluded("DD"))

	// Reloading the same code models a switch to another slot sharing the
	// tariff code: the new article starts with nothing excluded
	require.NoError(t, e.LoadSchedule(ctx, "8703.21.10"))
	assert.False(t, e.Excluded("DD"))
	for _, line := range e.Lines() {
		assert.False(t, line.Excluded)
	}

	e2, _ := newTestEngine(t)
	require.NoError(t, e2.LoadSchedule(ctx, "8703.21.10"))
	_, err = e2.ToggleExclusion(ctx, "DD", nil)
	require.NoError(t, err)
	require.NoError(t, e2.LoadSchedule(ctx, ""))
	assert.Equal(t, StateIdle, e2.State())
	assert.False(t, e2.Excluded("DD"))
}

func TestResetClearsPersistedRowsAndReturnsToIdle(t *testing.T) {
	e, calc := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.LoadSchedule(ctx, "8703.21.10"))

	id := uuid.New()
	_, err := e.Liquidate(ctx, &id)
	require.NoError(t, err)

	require.NoError(t, e.Reset(ctx, &id))
	assert.Equal(t, StateIdle, e.State())
	assert.Empty(t, e.Lines())
	assert.True(t, e.Total().IsZero())
	require.Len(t, calc.cleared, 1)
	assert.Equal(t, id, calc.cleared[0])
}

func TestResetDuringCalculationDiscardsResult(t *testing.T) {
	e, calc := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.LoadSchedule(ctx, "8703.21.10"))

	id := uuid.New()
	// Simulate a reset landing while the calculator round-trip is in flight
	calc.onCalc = func() {
		calc.onCalc = nil
		require.NoError(t, e.Reset(ctx, nil))
	}

	_, err := e.Liquidate(ctx, &id)
	require.ErrorIs(t, err, ErrCalculationSuperseded)
	assert.Equal(t, StateIdle, e.State())
	assert.True(t, e.Total().IsZero())
}

func TestLoadScheduleSurfacesSourceFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("lookup service unavailable")}
	e := NewEngine(source, &fakeCalculator{})

	err := e.LoadSchedule(context.Background(), "8703.21.10")
	require.Error(t, err)
	assert.Equal(t, StateIdle, e.State(), "failed fetch must not advance the state machine")
}
