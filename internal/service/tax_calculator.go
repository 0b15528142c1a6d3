package service

import (
	"context"
	"fmt"

	"transit-backend/internal/liquidation"
	"transit-backend/internal/model"
	"transit-backend/internal/repository"
	"transit-backend/internal/valuation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxCalculator is the capability the liquidation engine delegates to:
// schedule lookup plus the actual per-tax monetary computation keyed by a
// persisted article identity.
type TaxCalculator interface {
	liquidation.ScheduleSource
	liquidation.Calculator
}

type taxCalculator struct {
	taxRepo         repository.TaxRepository
	articleRepo     repository.ArticleRepository
	liquidationRepo repository.LiquidationRepository
	currencyRepo    repository.CurrencyRepository
	txManager       repository.TransactionManager
}

func NewTaxCalculator(
	taxRepo repository.TaxRepository,
	articleRepo repository.ArticleRepository,
	liquidationRepo repository.LiquidationRepository,
	currencyRepo repository.CurrencyRepository,
	txManager repository.TransactionManager,
) TaxCalculator {
	return &taxCalculator{
		taxRepo:         taxRepo,
		articleRepo:     articleRepo,
		liquidationRepo: liquidationRepo,
		currencyRepo:    currencyRepo,
		txManager:       txManager,
	}
}

func (c *taxCalculator) ScheduleFor(ctx context.Context, ntsCode string) ([]liquidation.Definition, error) {
	defs, err := c.taxRepo.ScheduleForNTSCode(ctx, ntsCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tax schedule: %w", err)
	}

	schedule := make([]liquidation.Definition, 0, len(defs))
	for _, def := range defs {
		schedule = append(schedule, liquidation.Definition{
			TaxCode:  def.TaxCode,
			Label:    def.Label,
			Rate:     def.Rate,
			BaseType: def.BaseType,
			Sequence: def.Sequence,
		})
	}
	return schedule, nil
}

// Calculate runs the full liquidation for one persisted article: the tax
// base starts from the article's CIF value in the reference currency, and
// cumulative taxes extend the base with the amounts of the non-excluded
// taxes computed before them. Excluded taxes stay in the result with their
// amount suppressed so the caller can render them struck through. The
// resulting rows replace any previous liquidation in one transaction;
// partial results never persist.
func (c *taxCalculator) Calculate(ctx context.Context, articleID uuid.UUID, excluded map[string]bool) (liquidation.Result, error) {
	article, err := c.articleRepo.FindByID(ctx, articleID)
	if err != nil {
		return liquidation.Result{}, fmt.Errorf("article not found: %w", err)
	}
	if article.NTSCode == "" {
		return liquidation.Result{}, fmt.Errorf("article %s has no tariff code", articleID)
	}

	rates, err := c.rateTable(ctx)
	if err != nil {
		return liquidation.Result{}, err
	}
	cif := valuation.ComputeCIF(toValuationArticle(*article), rates).Value

	schedule, err := c.ScheduleFor(ctx, article.NTSCode)
	if err != nil {
		return liquidation.Result{}, err
	}

	lines := make([]liquidation.Line, 0, len(schedule))
	total := decimal.Zero
	cumulative := decimal.Zero
	for _, def := range schedule {
		line := liquidation.Line{
			TaxCode:  def.TaxCode,
			Label:    def.Label,
			Rate:     def.Rate,
			Amount:   decimal.Zero,
			Excluded: excluded[def.TaxCode],
		}

		if !line.Excluded {
			base := cif
			if def.BaseType == model.TaxBaseCIFCumTax {
				base = base.Add(cumulative)
			}
			line.Amount = base.Mul(def.Rate).Round(0)
			cumulative = cumulative.Add(line.Amount)
			total = total.Add(line.Amount)
		}

		lines = append(lines, line)
	}

	rows := make([]model.TaxLiquidation, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, model.TaxLiquidation{
			ArticleID: articleID,
			TaxCode:   line.TaxCode,
			Label:     line.Label,
			Rate:      line.Rate,
			Amount:    line.Amount,
			Excluded:  line.Excluded,
		})
	}

	err = c.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return c.liquidationRepo.ReplaceForArticle(txCtx, articleID, rows)
	})
	if err != nil {
		return liquidation.Result{}, fmt.Errorf("failed to persist liquidation: %w", err)
	}

	return liquidation.Result{Lines: lines, Total: total}, nil
}

func (c *taxCalculator) ClearLiquidations(ctx context.Context, articleID uuid.UUID) error {
	return c.liquidationRepo.DeleteForArticle(ctx, articleID)
}

func (c *taxCalculator) rateTable(ctx context.Context) (valuation.Rates, error) {
	currencies, err := c.currencyRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch currencies: %w", err)
	}

	rates := make(valuation.Rates, len(currencies))
	for _, cur := range currencies {
		rates[cur.ID] = cur.RateToReference
	}
	return rates, nil
}
