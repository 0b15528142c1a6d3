package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"transit-backend/internal/liquidation"
	"transit-backend/internal/model"
	"transit-backend/internal/repository"
	"transit-backend/internal/valuation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- In-memory fakes ---

type fakeWorksheetRepo struct {
	worksheets map[uuid.UUID]*model.Worksheet
	count      int64
}

func newFakeWorksheetRepo() *fakeWorksheetRepo {
	return &fakeWorksheetRepo{worksheets: make(map[uuid.UUID]*model.Worksheet)}
}

func (f *fakeWorksheetRepo) Create(_ context.Context, worksheet *model.Worksheet) error {
	worksheet.ID = uuid.New()
	worksheet.CreatedAt = time.Now()
	f.worksheets[worksheet.ID] = worksheet
	return nil
}

func (f *fakeWorksheetRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Worksheet, error) {
	worksheet, ok := f.worksheets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *worksheet
	return &copied, nil
}

func (f *fakeWorksheetRepo) ListByDossier(_ context.Context, dossierID uuid.UUID) ([]model.Worksheet, error) {
	var out []model.Worksheet
	for _, w := range f.worksheets {
		if w.DossierID == dossierID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWorksheetRepo) CountByPrefix(_ context.Context, _ string) (int64, error) {
	return f.count, nil
}

type fakeArticleRepo struct {
	articles  map[uuid.UUID]*model.Article
	createErr error
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{articles: make(map[uuid.UUID]*model.Article)}
}

func (f *fakeArticleRepo) Create(_ context.Context, article *model.Article) error {
	if f.createErr != nil {
		return f.createErr
	}
	article.ID = uuid.New()
	copied := *article
	f.articles[article.ID] = &copied
	return nil
}

func (f *fakeArticleRepo) UpdateChecked(_ context.Context, article *model.Article) error {
	stored, ok := f.articles[article.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Revision != article.Revision {
		return repository.ErrStaleArticle
	}
	article.Revision++
	copied := *article
	f.articles[article.ID] = &copied
	return nil
}

func (f *fakeArticleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Article, error) {
	article, ok := f.articles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *article
	return &copied, nil
}

func (f *fakeArticleRepo) ListByWorksheet(_ context.Context, worksheetID uuid.UUID) ([]model.Article, error) {
	var out []model.Article
	for _, a := range f.articles {
		if a.WorksheetID == worksheetID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeTariffRepo struct {
	products map[string]*model.TariffProduct
}

func newFakeTariffRepo() *fakeTariffRepo {
	return &fakeTariffRepo{products: make(map[string]*model.TariffProduct)}
}

func (f *fakeTariffRepo) Create(_ context.Context, product *model.TariffProduct) error {
	f.products[product.NTSCode] = product
	return nil
}

func (f *fakeTariffRepo) Update(_ context.Context, product *model.TariffProduct) error {
	f.products[product.NTSCode] = product
	return nil
}

func (f *fakeTariffRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeTariffRepo) FindByID(_ context.Context, _ uuid.UUID) (*model.TariffProduct, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTariffRepo) FindByNTSCode(_ context.Context, ntsCode string) (*model.TariffProduct, error) {
	product, ok := f.products[ntsCode]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeTariffRepo) Search(_ context.Context, _ string, _, _ int) ([]model.TariffProduct, int64, error) {
	return nil, 0, nil
}

type fakeCurrencyRepo struct {
	currencies []model.Currency
}

func (f *fakeCurrencyRepo) Create(_ context.Context, currency *model.Currency) error {
	f.currencies = append(f.currencies, *currency)
	return nil
}

func (f *fakeCurrencyRepo) Update(_ context.Context, _ *model.Currency) error { return nil }

func (f *fakeCurrencyRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Currency, error) {
	for i := range f.currencies {
		if f.currencies[i].ID == id {
			return &f.currencies[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCurrencyRepo) FindByCode(_ context.Context, code string) (*model.Currency, error) {
	for i := range f.currencies {
		if f.currencies[i].Code == code {
			return &f.currencies[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCurrencyRepo) ListAll(_ context.Context) ([]model.Currency, error) {
	return f.currencies, nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _ string, _, _ int) ([]model.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

// fakeTaxCalc serves schedules from a map; Calculate delegates to calcFn
// when set, so tests can shape the monetary result.
type fakeTaxCalc struct {
	schedules map[string][]liquidation.Definition
	calcFn    func(excluded map[string]bool) liquidation.Result
	cleared   []uuid.UUID
}

func (f *fakeTaxCalc) ScheduleFor(_ context.Context, ntsCode string) ([]liquidation.Definition, error) {
	return f.schedules[ntsCode], nil
}

func (f *fakeTaxCalc) Calculate(_ context.Context, _ uuid.UUID, excluded map[string]bool) (liquidation.Result, error) {
	if f.calcFn == nil {
		return liquidation.Result{}, nil
	}
	return f.calcFn(excluded), nil
}

func (f *fakeTaxCalc) ClearLiquidations(_ context.Context, articleID uuid.UUID) error {
	f.cleared = append(f.cleared, articleID)
	return nil
}

// --- Fixture ---

type worksheetFixture struct {
	service       WorksheetService
	worksheetRepo *fakeWorksheetRepo
	articleRepo   *fakeArticleRepo
	tariffRepo    *fakeTariffRepo
	currencyRepo  *fakeCurrencyRepo
	auditRepo     *fakeAuditRepo
	registry      *SessionRegistry
	calc          *fakeTaxCalc
}

func newWorksheetFixture() *worksheetFixture {
	f := &worksheetFixture{
		worksheetRepo: newFakeWorksheetRepo(),
		articleRepo:   newFakeArticleRepo(),
		tariffRepo:    newFakeTariffRepo(),
		currencyRepo:  &fakeCurrencyRepo{},
		auditRepo:     &fakeAuditRepo{},
		registry:      NewSessionRegistry(),
		calc:          &fakeTaxCalc{schedules: map[string][]liquidation.Definition{}},
	}
	f.service = NewWorksheetService(f.worksheetRepo, f.articleRepo, f.tariffRepo, f.currencyRepo, f.auditRepo, f.registry, f.calc, nil)
	return f
}

func (f *worksheetFixture) seedWorksheet(t *testing.T, articles ...model.Article) *model.Worksheet {
	t.Helper()
	worksheet := &model.Worksheet{DossierID: uuid.New(), Reference: "ND-20260901-00001"}
	require.NoError(t, f.worksheetRepo.Create(context.Background(), worksheet))
	for i := range articles {
		articles[i].WorksheetID = worksheet.ID
		articles[i].SlotIndex = i + 1
		require.NoError(t, f.articleRepo.Create(context.Background(), &articles[i]))
	}
	worksheet.Articles = articles
	return worksheet
}

// --- Tests ---

func TestCreateWorksheetGeneratesSequentialReference(t *testing.T) {
	f := newWorksheetFixture()
	f.worksheetRepo.count = 2

	res, err := f.service.CreateWorksheet(context.Background(), uuid.NewString(), CreateWorksheetRequest{
		DossierID: uuid.NewString(),
	})
	require.NoError(t, err)

	expected := fmt.Sprintf("ND-%s-00003", time.Now().Format("20060102"))
	assert.Equal(t, expected, res.Reference)
	require.Len(t, f.auditRepo.entries, 1)
	assert.Equal(t, model.ActionCreateWorksheet, f.auditRepo.entries[0].Action)
}

func TestOpenWorksheetLoadsElevenSlots(t *testing.T) {
	f := newWorksheetFixture()
	worksheet := f.seedWorksheet(t,
		model.Article{NTSCode: "8703.21", FOBValue: decimal.NewFromInt(1000), Revision: 3},
		model.Article{NTSCode: "6403.99", FOBValue: decimal.NewFromInt(250)},
	)

	state, warnings, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.Len(t, state.Articles, valuation.SlotCount)
	assert.Equal(t, "8703.21", state.Articles[0].NTSCode)
	assert.Equal(t, int64(3), state.Articles[0].Revision)
	assert.Equal(t, "6403.99", state.Articles[1].NTSCode)
	assert.Equal(t, "", state.Articles[2].NTSCode)
	assert.Equal(t, "1250.0000", state.TotalFOB)
	assert.Equal(t, 0, state.ActiveSlot)
	assert.Equal(t, liquidation.StateIdle, state.Liquidation.State)
}

func TestOpenWorksheetUnknownID(t *testing.T) {
	f := newWorksheetFixture()

	_, _, err := f.service.OpenWorksheet(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worksheet not found")
}

func TestSetFieldRequiresActiveSlot(t *testing.T) {
	f := newWorksheetFixture()
	worksheet := f.seedWorksheet(t)
	_, _, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)

	_, _, err = f.service.SetField(context.Background(), worksheet.ID.String(), SetFieldRequest{
		Slot: 1, Field: "fob_value", Value: "100",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active slot")

	_, _, err = f.service.SwitchSlot(context.Background(), worksheet.ID.String(), 2)
	require.NoError(t, err)

	_, _, err = f.service.SetField(context.Background(), worksheet.ID.String(), SetFieldRequest{
		Slot: 1, Field: "fob_value", Value: "100",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not active")
}

func TestSetFieldPrefillsDescriptionFromTariff(t *testing.T) {
	f := newWorksheetFixture()
	f.tariffRepo.products["8703.21"] = &model.TariffProduct{
		NTSCode:     "8703.21",
		Description: "Voitures de tourisme, cylindrée <= 1000 cm3",
	}
	worksheet := f.seedWorksheet(t)
	_, _, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)
	_, _, err = f.service.SwitchSlot(context.Background(), worksheet.ID.String(), 1)
	require.NoError(t, err)

	view, _, err := f.service.SetField(context.Background(), worksheet.ID.String(), SetFieldRequest{
		Slot: 1, Field: "nts_code", Value: "8703.21",
	})
	require.NoError(t, err)
	assert.Equal(t, "8703.21", view.NTSCode)
	assert.Equal(t, "Voitures de tourisme, cylindrée <= 1000 cm3", view.Description)
}

func TestSwitchSlotFlushesPreviousSlot(t *testing.T) {
	f := newWorksheetFixture()
	worksheet := f.seedWorksheet(t)
	_, _, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)

	_, _, err = f.service.SwitchSlot(context.Background(), worksheet.ID.String(), 1)
	require.NoError(t, err)
	_, _, err = f.service.SetField(context.Background(), worksheet.ID.String(), SetFieldRequest{
		Slot: 1, Field: "fob_value", Value: "500",
	})
	require.NoError(t, err)

	state, _, err := f.service.SwitchSlot(context.Background(), worksheet.ID.String(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, state.ActiveSlot)

	// Slot 1 was written to storage before slot 2 became active
	require.Len(t, f.articleRepo.articles, 1)
	require.NotNil(t, state.Articles[0].ID)
	for _, stored := range f.articleRepo.articles {
		assert.Equal(t, 1, stored.SlotIndex)
		assert.True(t, stored.FOBValue.Equal(decimal.NewFromInt(500)))
	}
}

func TestSwitchSlotAbortsWhenFlushFails(t *testing.T) {
	f := newWorksheetFixture()
	worksheet := f.seedWorksheet(t)
	_, _, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)

	_, _, err = f.service.SwitchSlot(context.Background(), worksheet.ID.String(), 1)
	require.NoError(t, err)
	_, _, err = f.service.SetField(context.Background(), worksheet.ID.String(), SetFieldRequest{
		Slot: 1, Field: "fob_value", Value: "500",
	})
	require.NoError(t, err)

	f.articleRepo.createErr = errors.New("connection lost")
	_, _, err = f.service.SwitchSlot(context.Background(), worksheet.ID.String(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot leave slot 1")

	// The previous slot stays active so the edit is not dropped
	f.articleRepo.createErr = nil
	view, _, err := f.service.SetField(context.Background(), worksheet.ID.String(), SetFieldRequest{
		Slot: 1, Field: "fob_value", Value: "600",
	})
	require.NoError(t, err)
	assert.Equal(t, "600.0000", view.FOBValue)
}

func TestSwitchSlotRejectsOutOfRange(t *testing.T) {
	f := newWorksheetFixture()
	worksheet := f.seedWorksheet(t)
	_, _, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)

	for _, slot := range []int{0, 12, -1} {
		_, _, err := f.service.SwitchSlot(context.Background(), worksheet.ID.String(), slot)
		var invalidSlot *valuation.InvalidSlotError
		require.ErrorAs(t, err, &invalidSlot)
	}
}

func TestSaveAllSkipsBlankSlots(t *testing.T) {
	f := newWorksheetFixture()
	worksheet := f.seedWorksheet(t)
	_, _, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)

	_, _, err = f.service.SwitchSlot(context.Background(), worksheet.ID.String(), 3)
	require.NoError(t, err)
	_, _, err = f.service.SetField(context.Background(), worksheet.ID.String(), SetFieldRequest{
		Slot: 3, Field: "nts_code", Value: "8703.21",
	})
	require.NoError(t, err)

	state, _, err := f.service.SaveAll(context.Background(), worksheet.ID.String(), uuid.NewString())
	require.NoError(t, err)

	// Only the occupied slot produced a row
	assert.Len(t, f.articleRepo.articles, 1)
	require.NotNil(t, state.Articles[2].ID)
	assert.Nil(t, state.Articles[0].ID)
}

func TestSaveAllReportsStaleRevision(t *testing.T) {
	f := newWorksheetFixture()
	worksheet := f.seedWorksheet(t,
		model.Article{NTSCode: "8703.21", FOBValue: decimal.NewFromInt(1000)},
	)

	_, _, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)

	// Another session bumps the stored revision behind our back
	for id, stored := range f.articleRepo.articles {
		stored.Revision = 7
		f.articleRepo.articles[id] = stored
	}

	_, _, err = f.service.SaveAll(context.Background(), worksheet.ID.String(), uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrStaleArticle)
	assert.Contains(t, err.Error(), "slot 1")
}

func TestSaveAllIsIdempotentOnRevisions(t *testing.T) {
	f := newWorksheetFixture()
	worksheet := f.seedWorksheet(t,
		model.Article{NTSCode: "8703.21", FOBValue: decimal.NewFromInt(1000)},
	)

	_, _, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)

	// Saving twice succeeds because the bumped revision is written back
	// into the session after each flush
	state, _, err := f.service.SaveAll(context.Background(), worksheet.ID.String(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.Articles[0].Revision)

	state, _, err = f.service.SaveAll(context.Background(), worksheet.ID.String(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), state.Articles[0].Revision)
}

func TestDistributeSpreadsGlobalsAcrossOccupiedSlots(t *testing.T) {
	f := newWorksheetFixture()
	worksheet := f.seedWorksheet(t,
		model.Article{NTSCode: "8703.21", FOBValue: decimal.NewFromInt(750)},
		model.Article{NTSCode: "6403.99", FOBValue: decimal.NewFromInt(250)},
	)

	_, _, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)

	state, _, err := f.service.Distribute(context.Background(), worksheet.ID.String(), uuid.NewString(), DistributeRequest{
		GlobalFreight:   "100",
		GlobalInsurance: "20",
	})
	require.NoError(t, err)

	assert.Equal(t, "75.0000", state.Articles[0].FreightValue)
	assert.Equal(t, "25.0000", state.Articles[1].FreightValue)
	assert.Equal(t, "15.0000", state.Articles[0].InsuranceValue)
	assert.Equal(t, "5.0000", state.Articles[1].InsuranceValue)
}

func TestDistributeRejectsMalformedAmount(t *testing.T) {
	f := newWorksheetFixture()
	worksheet := f.seedWorksheet(t,
		model.Article{NTSCode: "8703.21", FOBValue: decimal.NewFromInt(100)},
	)
	_, _, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)

	_, _, err = f.service.Distribute(context.Background(), worksheet.ID.String(), "", DistributeRequest{
		GlobalFreight: "not-a-number",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "global_freight")
}

func TestUnknownCurrencyProducesWarning(t *testing.T) {
	f := newWorksheetFixture()
	ghostCurrency := uuid.New()
	worksheet := f.seedWorksheet(t,
		model.Article{NTSCode: "8703.21", FOBValue: decimal.NewFromInt(100), FOBCurrencyID: &ghostCurrency},
	)

	_, warnings, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "converted at 1")
}

func TestCloseWorksheetDropsSession(t *testing.T) {
	f := newWorksheetFixture()
	worksheet := f.seedWorksheet(t)
	_, _, err := f.service.OpenWorksheet(context.Background(), worksheet.ID.String())
	require.NoError(t, err)

	require.NoError(t, f.service.CloseWorksheet(context.Background(), worksheet.ID.String()))

	_, _, err = f.service.SetField(context.Background(), worksheet.ID.String(), SetFieldRequest{
		Slot: 1, Field: "fob_value", Value: "100",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not open")
}
