package liquidation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State constants for the per-slot liquidation lifecycle
const (
	StateIdle           = "IDLE"
	StateScheduleLoaded = "SCHEDULE_LOADED"
	StateLiquidated     = "LIQUIDATED"
)

// ErrArticleNotPersisted is returned when liquidation is requested for a slot
// that has never been saved: tax calculation is keyed by the stored article id.
var ErrArticleNotPersisted = errors.New("article must be saved before tax liquidation")

// ErrCalculationSuperseded is returned when a calculation result arrives after
// a reset or schedule switch has invalidated it; the result is discarded.
var ErrCalculationSuperseded = errors.New("liquidation was reset while calculating")

// Definition is one entry of a tariff code's tax schedule
type Definition struct {
	TaxCode  string
	Label    string
	Rate     decimal.Decimal
	BaseType string
	Sequence int
}

// Line is one computed (or suppressed) tax line of a liquidation result
type Line struct {
	TaxCode  string
	Label    string
	Rate     decimal.Decimal
	Amount   decimal.Decimal
	Excluded bool
}

// Result is the outcome of one calculation call
type Result struct {
	Lines []Line
	Total decimal.Decimal
}

// ScheduleSource fetches the applicable tax schedule for a tariff code
type ScheduleSource interface {
	ScheduleFor(ctx context.Context, ntsCode string) ([]Definition, error)
}

// Calculator performs the actual per-tax monetary computation for a persisted
// article and persists the resulting lines. The engine only orchestrates
// calls and exclusion state around it.
type Calculator interface {
	Calculate(ctx context.Context, articleID uuid.UUID, excluded map[string]bool) (Result, error)
	ClearLiquidations(ctx context.Context, articleID uuid.UUID) error
}

// Engine drives the liquidation state machine for one worksheet slot.
// Not safe for concurrent use; the owning session serializes access.
type Engine struct {
	source ScheduleSource
	calc   Calculator

	state    string
	ntsCode  string
	schedule []Definition
	excluded map[string]bool
	lines    []Line
	total    decimal.Decimal

	// generation invalidates in-flight calculations across Reset/LoadSchedule
	generation uint64
}

func NewEngine(source ScheduleSource, calc Calculator) *Engine {
	return &Engine{
		source:   source,
		calc:     calc,
		state:    StateIdle,
		excluded: make(map[string]bool),
		total:    decimal.Zero,
	}
}

func (e *Engine) State() string            { return e.state }
func (e *Engine) NTSCode() string          { return e.ntsCode }
func (e *Engine) Total() decimal.Decimal   { return e.total }
func (e *Engine) Schedule() []Definition   { return append([]Definition(nil), e.schedule...) }
func (e *Engine) Lines() []Line            { return append([]Line(nil), e.lines...) }
func (e *Engine) Excluded(code string) bool { return e.excluded[code] }

// ExcludedCodes returns the current exclusion set as a copy
func (e *Engine) ExcludedCodes() map[string]bool {
	out := make(map[string]bool, len(e.excluded))
	for code, v := range e.excluded {
		if v {
			out[code] = true
		}
	}
	return out
}

// LoadSchedule fetches the tax schedule for a tariff code and enters
// Schedule-Loaded with zeroed, unliquidated lines. Loading always starts from
// an empty exclusion set: exclusions belong to one article's liquidation and
// never carry over to the next slot, even when both share a tariff code.
func (e *Engine) LoadSchedule(ctx context.Context, ntsCode string) error {
	if ntsCode == "" {
		e.reset("")
		return nil
	}

	schedule, err := e.source.ScheduleFor(ctx, ntsCode)
	if err != nil {
		return fmt.Errorf("failed to fetch tax schedule for %s: %w", ntsCode, err)
	}

	e.excluded = make(map[string]bool)
	e.generation++
	e.ntsCode = ntsCode
	e.schedule = schedule
	e.state = StateScheduleLoaded
	e.total = decimal.Zero

	e.lines = make([]Line, 0, len(schedule))
	for _, def := range schedule {
		e.lines = append(e.lines, Line{
			TaxCode:  def.TaxCode,
			Label:    def.Label,
			Rate:     def.Rate,
			Amount:   decimal.Zero,
		})
	}

	return nil
}

// Liquidate runs a full calculation for the persisted article behind the
// active slot, honoring the current exclusion set, and enters Liquidated.
func (e *Engine) Liquidate(ctx context.Context, articleID *uuid.UUID) (Result, error) {
	if articleID == nil {
		return Result{}, ErrArticleNotPersisted
	}

	gen := e.generation
	res, err := e.calc.Calculate(ctx, *articleID, e.ExcludedCodes())
	if err != nil {
		return Result{}, err
	}
	if gen != e.generation {
		return Result{}, ErrCalculationSuperseded
	}

	// Total is always derived from the fresh lines, never patched locally
	total := decimal.Zero
	for _, line := range res.Lines {
		if !line.Excluded {
			total = total.Add(line.Amount)
		}
	}
	res.Total = total

	e.lines = res.Lines
	e.total = total
	e.state = StateLiquidated
	return res, nil
}

// ToggleExclusion flips one tax code in the exclusion set. Codes absent from
// the current schedule are inert: the toggle is a no-op without error. While
// Liquidated, a toggle triggers a full recalculation, since tax bases may
// depend on other taxes' amounts.
func (e *Engine) ToggleExclusion(ctx context.Context, taxCode string, articleID *uuid.UUID) (Result, error) {
	if !e.inSchedule(taxCode) {
		return Result{Lines: e.Lines(), Total: e.total}, nil
	}

	e.excluded[taxCode] = !e.excluded[taxCode]

	if e.state != StateLiquidated {
		for i := range e.lines {
			if e.lines[i].TaxCode == taxCode {
				e.lines[i].Excluded = e.excluded[taxCode]
			}
		}
		return Result{Lines: e.Lines(), Total: e.total}, nil
	}

	return e.Liquidate(ctx, articleID)
}

// Reset cancels the current liquidation: persisted rows for the article are
// cleared, the engine returns to Idle, and any in-flight calculation result
// is invalidated.
func (e *Engine) Reset(ctx context.Context, articleID *uuid.UUID) error {
	if articleID != nil {
		if err := e.calc.ClearLiquidations(ctx, *articleID); err != nil {
			return fmt.Errorf("failed to clear persisted liquidations: %w", err)
		}
	}
	e.reset("")
	return nil
}

func (e *Engine) reset(ntsCode string) {
	e.generation++
	e.state = StateIdle
	e.ntsCode = ntsCode
	e.schedule = nil
	e.lines = nil
	e.excluded = make(map[string]bool)
	e.total = decimal.Zero
}

func (e *Engine) inSchedule(taxCode string) bool {
	for _, def := range e.schedule {
		if def.TaxCode == taxCode {
			return true
		}
	}
	return false
}
