package service

import (
	"context"
	"testing"

	"transit-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type fakeTaxRepo struct {
	schedules map[string][]model.TaxDefinition
}

func (f *fakeTaxRepo) Create(_ context.Context, _ *model.TaxDefinition) error { return nil }
func (f *fakeTaxRepo) Update(_ context.Context, _ *model.TaxDefinition) error { return nil }
func (f *fakeTaxRepo) Delete(_ context.Context, _ uuid.UUID) error            { return nil }

func (f *fakeTaxRepo) FindByID(_ context.Context, _ uuid.UUID) (*model.TaxDefinition, error) {
	return nil, nil
}

func (f *fakeTaxRepo) ScheduleForNTSCode(_ context.Context, ntsCode string) ([]model.TaxDefinition, error) {
	return f.schedules[ntsCode], nil
}

func (f *fakeTaxRepo) List(_ context.Context, _, _ int) ([]model.TaxDefinition, int64, error) {
	return nil, 0, nil
}

type fakeLiquidationRepo struct {
	rows map[uuid.UUID][]model.TaxLiquidation
}

func newFakeLiquidationRepo() *fakeLiquidationRepo {
	return &fakeLiquidationRepo{rows: make(map[uuid.UUID][]model.TaxLiquidation)}
}

func (f *fakeLiquidationRepo) ReplaceForArticle(_ context.Context, articleID uuid.UUID, rows []model.TaxLiquidation) error {
	f.rows[articleID] = rows
	return nil
}

func (f *fakeLiquidationRepo) DeleteForArticle(_ context.Context, articleID uuid.UUID) error {
	delete(f.rows, articleID)
	return nil
}

func (f *fakeLiquidationRepo) ListForArticle(_ context.Context, articleID uuid.UUID) ([]model.TaxLiquidation, error) {
	return f.rows[articleID], nil
}

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- Fixture ---

func vehicleSchedule() []model.TaxDefinition {
	return []model.TaxDefinition{
		{
			TaxCode:  "DD",
			Label:    "Droit de douane",
			Rate:     decimal.RequireFromString("0.20"),
			BaseType: model.TaxBaseCIF,
			Sequence: 1,
		},
		{
			TaxCode:  "TVA",
			Label:    "Taxe sur la valeur ajoutée",
			Rate:     decimal.RequireFromString("0.18"),
			BaseType: model.TaxBaseCIFCumTax,
			Sequence: 2,
		},
	}
}

func newCalculatorFixture(schedules map[string][]model.TaxDefinition) (TaxCalculator, *fakeArticleRepo, *fakeLiquidationRepo, *fakeCurrencyRepo) {
	articleRepo := newFakeArticleRepo()
	liquidationRepo := newFakeLiquidationRepo()
	currencyRepo := &fakeCurrencyRepo{}
	calc := NewTaxCalculator(&fakeTaxRepo{schedules: schedules}, articleRepo, liquidationRepo, currencyRepo, &fakeTxManager{})
	return calc, articleRepo, liquidationRepo, currencyRepo
}

func seedArticle(t *testing.T, repo *fakeArticleRepo, article model.Article) uuid.UUID {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &article))
	return article.ID
}

// --- Tests ---

func TestCalculateComposableTaxes(t *testing.T) {
	calc, articleRepo, liquidationRepo, _ := newCalculatorFixture(map[string][]model.TaxDefinition{
		"8703.21": vehicleSchedule(),
	})
	articleID := seedArticle(t, articleRepo, model.Article{
		SlotIndex:      1,
		NTSCode:        "8703.21",
		FOBValue:       decimal.NewFromInt(800),
		FreightValue:   decimal.NewFromInt(150),
		InsuranceValue: decimal.NewFromInt(50),
	})

	result, err := calc.Calculate(context.Background(), articleID, map[string]bool{})
	require.NoError(t, err)

	// CIF = 1000; DD = 200; TVA = (1000 + 200) x 0.18 = 216
	require.Len(t, result.Lines, 2)
	assert.Equal(t, "200", result.Lines[0].Amount.String())
	assert.Equal(t, "216", result.Lines[1].Amount.String())
	assert.Equal(t, "416", result.Total.String())

	rows := liquidationRepo.rows[articleID]
	require.Len(t, rows, 2)
	assert.Equal(t, "DD", rows[0].TaxCode)
	assert.False(t, rows[0].Excluded)
}

func TestCalculateExcludedTaxShrinksCumulativeBase(t *testing.T) {
	calc, articleRepo, liquidationRepo, _ := newCalculatorFixture(map[string][]model.TaxDefinition{
		"8703.21": vehicleSchedule(),
	})
	articleID := seedArticle(t, articleRepo, model.Article{
		SlotIndex:      1,
		NTSCode:        "8703.21",
		FOBValue:       decimal.NewFromInt(800),
		FreightValue:   decimal.NewFromInt(150),
		InsuranceValue: decimal.NewFromInt(50),
	})

	result, err := calc.Calculate(context.Background(), articleID, map[string]bool{"DD": true})
	require.NoError(t, err)

	// Excluding DD removes its amount from the TVA base as well
	require.Len(t, result.Lines, 2)
	assert.True(t, result.Lines[0].Excluded)
	assert.True(t, result.Lines[0].Amount.IsZero())
	assert.Equal(t, "180", result.Lines[1].Amount.String())
	assert.Equal(t, "180", result.Total.String())

	// The excluded line persists with its amount suppressed
	rows := liquidationRepo.rows[articleID]
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Excluded)
	assert.True(t, rows[0].Amount.IsZero())
}

func TestCalculateConvertsForeignCurrencyLegs(t *testing.T) {
	calc, articleRepo, _, currencyRepo := newCalculatorFixture(map[string][]model.TaxDefinition{
		"8703.21": {vehicleSchedule()[0]},
	})

	eur := model.Currency{ID: uuid.New(), Code: "EUR", RateToReference: decimal.RequireFromString("655.957")}
	currencyRepo.currencies = append(currencyRepo.currencies, eur)

	articleID := seedArticle(t, articleRepo, model.Article{
		SlotIndex:     1,
		NTSCode:       "8703.21",
		FOBValue:      decimal.NewFromInt(100),
		FOBCurrencyID: &eur.ID,
	})

	result, err := calc.Calculate(context.Background(), articleID, map[string]bool{})
	require.NoError(t, err)

	// CIF = round(100 x 655.957) = 65596; DD = round(65596 x 0.20) = 13119
	require.Len(t, result.Lines, 1)
	assert.Equal(t, "13119", result.Lines[0].Amount.String())
}

func TestCalculateRequiresTariffCode(t *testing.T) {
	calc, articleRepo, _, _ := newCalculatorFixture(map[string][]model.TaxDefinition{})
	articleID := seedArticle(t, articleRepo, model.Article{
		SlotIndex: 1,
		FOBValue:  decimal.NewFromInt(100),
	})

	_, err := calc.Calculate(context.Background(), articleID, map[string]bool{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tariff code")
}

func TestClearLiquidationsRemovesRows(t *testing.T) {
	calc, articleRepo, liquidationRepo, _ := newCalculatorFixture(map[string][]model.TaxDefinition{
		"8703.21": vehicleSchedule(),
	})
	articleID := seedArticle(t, articleRepo, model.Article{
		SlotIndex: 1,
		NTSCode:   "8703.21",
		FOBValue:  decimal.NewFromInt(1000),
	})

	_, err := calc.Calculate(context.Background(), articleID, map[string]bool{})
	require.NoError(t, err)
	require.NotEmpty(t, liquidationRepo.rows[articleID])

	require.NoError(t, calc.ClearLiquidations(context.Background(), articleID))
	assert.Empty(t, liquidationRepo.rows[articleID])
}
