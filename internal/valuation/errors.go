package valuation

import (
	"errors"
	"fmt"
)

// ErrTooManyArticles is returned when more persisted records are loaded
// than the worksheet has slots for.
var ErrTooManyArticles = errors.New("a worksheet holds at most 11 articles")

// ErrZeroBase is returned when distribution is requested while the matrix
// carries no FOB value at all. Warning-level: nothing has been mutated.
var ErrZeroBase = errors.New("total FOB value is zero, nothing to distribute")

// InvalidSlotError reports a slot index outside the fixed worksheet range.
type InvalidSlotError struct {
	Slot int
}

func (e *InvalidSlotError) Error() string {
	return fmt.Sprintf("slot index %d is outside [1, %d]", e.Slot, SlotCount)
}

// UnknownFieldError reports an article field name the matrix does not know.
type UnknownFieldError struct {
	Field Field
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown article field %q", string(e.Field))
}
