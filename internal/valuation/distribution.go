package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DistributionInput holds the shared totals to apportion across the matrix.
// A zero dimension means "do not distribute this dimension".
type DistributionInput struct {
	GlobalFreight     decimal.Decimal
	GlobalInsurance   decimal.Decimal
	GlobalGrossWeight decimal.Decimal
}

// Distribute spreads the global freight, insurance and gross-weight totals
// across all slots carrying a positive FOB value, weighted by each slot's
// share of the matrix's total FOB. Freight and insurance land on whole
// currency units, gross weight keeps two decimals. Slots with zero FOB are
// left untouched. Re-running with equal inputs against equal FOB values
// yields the same apportionment; the transform is not cumulative.
func Distribute(m *Matrix, in DistributionInput) error {
	if in.GlobalFreight.IsNegative() || in.GlobalInsurance.IsNegative() || in.GlobalGrossWeight.IsNegative() {
		return fmt.Errorf("distribution totals must not be negative")
	}

	totalFOB := m.TotalFOB()
	if totalFOB.IsZero() {
		return ErrZeroBase
	}

	for i := range m.slots {
		a := m.slots[i]
		if !a.FOBValue.IsPositive() {
			continue
		}

		// share = fob × global / total, computed before rounding to keep
		// the distributed sum within rounding distance of the input
		if in.GlobalFreight.IsPositive() {
			a.FreightValue = a.FOBValue.Mul(in.GlobalFreight).Div(totalFOB).Round(0)
		}
		if in.GlobalInsurance.IsPositive() {
			a.InsuranceValue = a.FOBValue.Mul(in.GlobalInsurance).Div(totalFOB).Round(0)
		}
		if in.GlobalGrossWeight.IsPositive() {
			a.GrossWeight = a.FOBValue.Mul(in.GlobalGrossWeight).Div(totalFOB).Round(2)
		}

		m.slots[i] = a
	}

	return nil
}
