package service

import (
	"context"
	"testing"

	"transit-backend/internal/liquidation"
	"transit-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liquidationFixture drives a full session: worksheet service for the
// editing flow, liquidation service on the same registry for tax runs.
type liquidationFixture struct {
	*worksheetFixture
	liquidation LiquidationService
	worksheetID string
}

func newLiquidationFixture(t *testing.T) *liquidationFixture {
	t.Helper()
	wf := newWorksheetFixture()
	wf.calc.schedules["8703.21"] = []liquidation.Definition{
		{TaxCode: "DD", Label: "Droit de douane", Rate: decimal.RequireFromString("0.20"), BaseType: model.TaxBaseCIF, Sequence: 1},
		{TaxCode: "TVA", Label: "Taxe sur la valeur ajoutée", Rate: decimal.RequireFromString("0.18"), BaseType: model.TaxBaseCIFCumTax, Sequence: 2},
	}
	wf.calc.calcFn = func(excluded map[string]bool) liquidation.Result {
		dd := liquidation.Line{TaxCode: "DD", Rate: decimal.RequireFromString("0.20"), Excluded: excluded["DD"]}
		tva := liquidation.Line{TaxCode: "TVA", Rate: decimal.RequireFromString("0.18"), Excluded: excluded["TVA"]}
		if !dd.Excluded {
			dd.Amount = decimal.NewFromInt(200)
		}
		if !tva.Excluded {
			base := decimal.NewFromInt(1000).Add(dd.Amount)
			tva.Amount = base.Mul(tva.Rate).Round(0)
		}
		return liquidation.Result{Lines: []liquidation.Line{dd, tva}}
	}

	worksheet := wf.seedWorksheet(t,
		model.Article{NTSCode: "8703.21", FOBValue: decimal.NewFromInt(1000)},
		model.Article{NTSCode: "8703.21", FOBValue: decimal.NewFromInt(1000)},
	)

	f := &liquidationFixture{
		worksheetFixture: wf,
		liquidation:      NewLiquidationService(wf.registry, wf.auditRepo, nil),
		worksheetID:      worksheet.ID.String(),
	}

	_, _, err := wf.service.OpenWorksheet(context.Background(), f.worksheetID)
	require.NoError(t, err)
	return f
}

func TestLiquidateRequiresOpenSession(t *testing.T) {
	f := newWorksheetFixture()
	svc := NewLiquidationService(f.registry, f.auditRepo, nil)

	_, err := svc.Liquidate(context.Background(), "00000000-0000-0000-0000-000000000001", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not open")
}

func TestLiquidateRequiresActiveSlot(t *testing.T) {
	f := newLiquidationFixture(t)

	_, err := f.liquidation.Liquidate(context.Background(), f.worksheetID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active slot")
}

func TestLiquidateComputesLinesAndTotal(t *testing.T) {
	f := newLiquidationFixture(t)
	_, _, err := f.service.SwitchSlot(context.Background(), f.worksheetID, 1)
	require.NoError(t, err)

	view, err := f.liquidation.Liquidate(context.Background(), f.worksheetID, "")
	require.NoError(t, err)

	assert.Equal(t, liquidation.StateLiquidated, view.State)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "200.0000", view.Lines[0].Amount)
	assert.Equal(t, "216.0000", view.Lines[1].Amount)
	assert.Equal(t, "416.0000", view.Total)

	require.NotEmpty(t, f.auditRepo.entries)
	assert.Equal(t, model.ActionLiquidate, f.auditRepo.entries[len(f.auditRepo.entries)-1].Action)
}

func TestToggleExclusionRecalculates(t *testing.T) {
	f := newLiquidationFixture(t)
	_, _, err := f.service.SwitchSlot(context.Background(), f.worksheetID, 1)
	require.NoError(t, err)
	_, err = f.liquidation.Liquidate(context.Background(), f.worksheetID, "")
	require.NoError(t, err)

	view, err := f.liquidation.ToggleExclusion(context.Background(), f.worksheetID, ToggleExclusionRequest{TaxCode: "DD"})
	require.NoError(t, err)

	// Excluding DD drops its amount and shrinks the TVA base
	require.Len(t, view.Lines, 2)
	assert.True(t, view.Lines[0].Excluded)
	assert.Equal(t, "0.0000", view.Lines[0].Amount)
	assert.Equal(t, "180.0000", view.Lines[1].Amount)
	assert.Equal(t, "180.0000", view.Total)

	// Toggling back restores the full liquidation
	view, err = f.liquidation.ToggleExclusion(context.Background(), f.worksheetID, ToggleExclusionRequest{TaxCode: "DD"})
	require.NoError(t, err)
	assert.Equal(t, "416.0000", view.Total)
}

func TestToggleUnknownTaxCodeIsInert(t *testing.T) {
	f := newLiquidationFixture(t)
	_, _, err := f.service.SwitchSlot(context.Background(), f.worksheetID, 1)
	require.NoError(t, err)
	_, err = f.liquidation.Liquidate(context.Background(), f.worksheetID, "")
	require.NoError(t, err)

	view, err := f.liquidation.ToggleExclusion(context.Background(), f.worksheetID, ToggleExclusionRequest{TaxCode: "NOPE"})
	require.NoError(t, err)
	assert.Equal(t, "416.0000", view.Total)
}

func TestResetClearsPersistedRows(t *testing.T) {
	f := newLiquidationFixture(t)
	_, _, err := f.service.SwitchSlot(context.Background(), f.worksheetID, 1)
	require.NoError(t, err)
	_, err = f.liquidation.Liquidate(context.Background(), f.worksheetID, "")
	require.NoError(t, err)

	require.NoError(t, f.liquidation.Reset(context.Background(), f.worksheetID, ""))

	view, err := f.liquidation.Status(context.Background(), f.worksheetID)
	require.NoError(t, err)
	assert.Equal(t, liquidation.StateIdle, view.State)
	assert.Empty(t, view.Lines)
	require.Len(t, f.calc.cleared, 1)
}

func TestLiquidateUnsavedSlot(t *testing.T) {
	f := newLiquidationFixture(t)

	// Slot 3 is blank and was never persisted
	_, _, err := f.service.SwitchSlot(context.Background(), f.worksheetID, 3)
	require.NoError(t, err)
	_, _, err = f.service.SetField(context.Background(), f.worksheetID, SetFieldRequest{
		Slot: 3, Field: "nts_code", Value: "8703.21",
	})
	require.NoError(t, err)

	_, err = f.liquidation.Liquidate(context.Background(), f.worksheetID, "")
	assert.ErrorIs(t, err, liquidation.ErrArticleNotPersisted)
}

func TestSwitchSlotDropsExclusionsForSameTariffCode(t *testing.T) {
	f := newLiquidationFixture(t)
	ctx := context.Background()

	// Exclude duty on the first article, then move to the second one, which
	// carries the same tariff code
	_, _, err := f.service.SwitchSlot(ctx, f.worksheetID, 1)
	require.NoError(t, err)
	_, err = f.liquidation.Liquidate(ctx, f.worksheetID, "")
	require.NoError(t, err)
	_, err = f.liquidation.ToggleExclusion(ctx, f.worksheetID, ToggleExclusionRequest{TaxCode: "DD"})
	require.NoError(t, err)

	_, _, err = f.service.SwitchSlot(ctx, f.worksheetID, 2)
	require.NoError(t, err)

	view, err := f.liquidation.Status(ctx, f.worksheetID)
	require.NoError(t, err)
	for _, line := range view.Lines {
		assert.False(t, line.Excluded, "exclusion carried over to slot 2: %s", line.TaxCode)
	}

	// The second article liquidates with its full schedule
	view, err = f.liquidation.Liquidate(ctx, f.worksheetID, "")
	require.NoError(t, err)
	assert.Equal(t, "416.0000", view.Total)
}