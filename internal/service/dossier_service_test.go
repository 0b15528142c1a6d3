package service

import (
	"context"
	"testing"
	"time"

	"transit-backend/internal/model"
	"transit-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeDossierRepo struct {
	dossiers map[uuid.UUID]*model.Dossier
	orders   map[uuid.UUID]*model.TransitOrder
	count    int64
}

func newFakeDossierRepo() *fakeDossierRepo {
	return &fakeDossierRepo{
		dossiers: make(map[uuid.UUID]*model.Dossier),
		orders:   make(map[uuid.UUID]*model.TransitOrder),
	}
}

func (f *fakeDossierRepo) Create(_ context.Context, dossier *model.Dossier) error {
	dossier.ID = uuid.New()
	f.dossiers[dossier.ID] = dossier
	return nil
}

func (f *fakeDossierRepo) Update(_ context.Context, dossier *model.Dossier) error {
	f.dossiers[dossier.ID] = dossier
	return nil
}

func (f *fakeDossierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Dossier, error) {
	dossier, ok := f.dossiers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *dossier
	return &copied, nil
}

func (f *fakeDossierRepo) List(_ context.Context, _ repository.DossierListFilter) ([]model.Dossier, int64, error) {
	var out []model.Dossier
	for _, d := range f.dossiers {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (f *fakeDossierRepo) CountByPrefix(_ context.Context, _ string) (int64, error) {
	return f.count, nil
}

func (f *fakeDossierRepo) CreateOrder(_ context.Context, order *model.TransitOrder) error {
	order.ID = uuid.New()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeDossierRepo) UpdateOrder(_ context.Context, order *model.TransitOrder) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeDossierRepo) FindOrderByID(_ context.Context, id uuid.UUID) (*model.TransitOrder, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeDossierRepo) ListOrders(_ context.Context, dossierID uuid.UUID) ([]model.TransitOrder, error) {
	var out []model.TransitOrder
	for _, o := range f.orders {
		if o.DossierID == dossierID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func newDossierService() (DossierService, *fakeDossierRepo, *fakeAuditRepo) {
	repo := newFakeDossierRepo()
	audit := &fakeAuditRepo{}
	return NewDossierService(repo, audit, nil), repo, audit
}

func TestCreateDossierGeneratesNumberAndOpens(t *testing.T) {
	svc, repo, audit := newDossierService()
	repo.count = 4

	res, err := svc.CreateDossier(context.Background(), uuid.NewString(), CreateDossierRequest{
		Direction: model.TransitDirectionImport,
	})
	require.NoError(t, err)

	assert.Equal(t, "DOS-"+time.Now().Format("20060102")+"-00005", res.DossierNo)
	assert.Equal(t, model.DossierStatusOpen, res.Status)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.ActionCreateDossier, audit.entries[0].Action)
}

func TestCreateDossierRejectsUnknownDirection(t *testing.T) {
	svc, _, _ := newDossierService()

	_, err := svc.CreateDossier(context.Background(), "", CreateDossierRequest{Direction: "SIDEWAYS"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMPORT or EXPORT")
}

func TestDossierStatusLifecycle(t *testing.T) {
	svc, _, _ := newDossierService()

	res, err := svc.CreateDossier(context.Background(), "", CreateDossierRequest{
		Direction: model.TransitDirectionImport,
	})
	require.NoError(t, err)
	id := res.ID.String()

	setStatus := func(status string) error {
		_, err := svc.UpdateDossier(context.Background(), id, "", UpdateDossierRequest{Status: &status})
		return err
	}

	// OPEN cannot jump straight to LIQUIDATED
	require.Error(t, setStatus(model.DossierStatusLiquidated))

	require.NoError(t, setStatus(model.DossierStatusInCustoms))
	require.NoError(t, setStatus(model.DossierStatusLiquidated))
	require.NoError(t, setStatus(model.DossierStatusClosed))

	// CLOSED is terminal
	err = setStatus(model.DossierStatusOpen)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot move dossier")
}

func TestDossierCanBeClosedWhileOpen(t *testing.T) {
	svc, _, _ := newDossierService()

	res, err := svc.CreateDossier(context.Background(), "", CreateDossierRequest{
		Direction: model.TransitDirectionExport,
	})
	require.NoError(t, err)

	closed := model.DossierStatusClosed
	updated, err := svc.UpdateDossier(context.Background(), res.ID.String(), "", UpdateDossierRequest{Status: &closed})
	require.NoError(t, err)
	assert.Equal(t, model.DossierStatusClosed, updated.Status)
}

func TestTransitOrderDocumentFlow(t *testing.T) {
	svc, _, _ := newDossierService()

	dossier, err := svc.CreateDossier(context.Background(), "", CreateDossierRequest{
		Direction: model.TransitDirectionImport,
	})
	require.NoError(t, err)

	order, err := svc.AddOrder(context.Background(), dossier.ID.String(), CreateTransitOrderRequest{
		DocumentType: "BL",
		DocumentNo:   "BL-2026-0042",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransitOrderPending, order.Status)
	assert.Nil(t, order.ReceivedAt)

	// Clearing before receipt is rejected
	cleared := model.TransitOrderCleared
	_, err = svc.UpdateOrder(context.Background(), order.ID.String(), UpdateTransitOrderRequest{Status: &cleared})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "received before clearing")

	received := model.TransitOrderReceived
	updated, err := svc.UpdateOrder(context.Background(), order.ID.String(), UpdateTransitOrderRequest{Status: &received})
	require.NoError(t, err)
	require.NotNil(t, updated.ReceivedAt)

	updated, err = svc.UpdateOrder(context.Background(), order.ID.String(), UpdateTransitOrderRequest{Status: &cleared})
	require.NoError(t, err)
	assert.Equal(t, model.TransitOrderCleared, updated.Status)

	// No way back to pending
	pending := model.TransitOrderPending
	_, err = svc.UpdateOrder(context.Background(), order.ID.String(), UpdateTransitOrderRequest{Status: &pending})
	require.Error(t, err)
}
