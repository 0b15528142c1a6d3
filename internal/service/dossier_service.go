package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"transit-backend/internal/model"
	"transit-backend/internal/repository"
	ws "transit-backend/internal/websocket"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateDossierRequest struct {
	Direction string `json:"direction" binding:"required"`
	ClientID  string `json:"client_id"`
	Note      string `json:"note"`
}

type UpdateDossierRequest struct {
	Status   *string `json:"status"`
	ClientID *string `json:"client_id"`
	Note     *string `json:"note"`
}

type CreateTransitOrderRequest struct {
	DocumentType string `json:"document_type" binding:"required"`
	DocumentNo   string `json:"document_no" binding:"required"`
	Note         string `json:"note"`
}

type UpdateTransitOrderRequest struct {
	Status *string `json:"status"`
	Note   *string `json:"note"`
}

type TransitOrderResponse struct {
	ID           uuid.UUID  `json:"id"`
	DossierID    uuid.UUID  `json:"dossier_id"`
	DocumentType string     `json:"document_type"`
	DocumentNo   string     `json:"document_no"`
	Status       string     `json:"status"`
	ReceivedAt   *time.Time `json:"received_at"`
	Note         string     `json:"note"`
	CreatedAt    time.Time  `json:"created_at"`
}

type DossierResponse struct {
	ID            uuid.UUID              `json:"id"`
	DossierNo     string                 `json:"dossier_no"`
	Direction     string                 `json:"direction"`
	Status        string                 `json:"status"`
	ClientID      *uuid.UUID             `json:"client_id"`
	ClientName    string                 `json:"client_name,omitempty"`
	DeclarantID   *uuid.UUID             `json:"declarant_id"`
	DeclarantName string                 `json:"declarant_name,omitempty"`
	Note          string                 `json:"note"`
	Orders        []TransitOrderResponse `json:"orders,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// DossierEvent is broadcast over the WebSocket hub on dossier changes
type DossierEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// --- Interface ---

type DossierService interface {
	CreateDossier(ctx context.Context, userID string, req CreateDossierRequest) (DossierResponse, error)
	UpdateDossier(ctx context.Context, id, userID string, req UpdateDossierRequest) (DossierResponse, error)
	GetDossier(ctx context.Context, id string) (DossierResponse, error)
	ListDossiers(ctx context.Context, filter repository.DossierListFilter) ([]DossierResponse, int64, error)
	AddOrder(ctx context.Context, dossierID string, req CreateTransitOrderRequest) (TransitOrderResponse, error)
	UpdateOrder(ctx context.Context, orderID string, req UpdateTransitOrderRequest) (TransitOrderResponse, error)
	ListOrders(ctx context.Context, dossierID string) ([]TransitOrderResponse, error)
}

// --- Implementation ---

type dossierService struct {
	dossierRepo repository.DossierRepository
	auditRepo   repository.AuditRepository
	hub         *ws.Hub
}

func NewDossierService(dossierRepo repository.DossierRepository, auditRepo repository.AuditRepository, hub *ws.Hub) DossierService {
	return &dossierService{dossierRepo: dossierRepo, auditRepo: auditRepo, hub: hub}
}

// allowedStatusTransitions holds the forward-only dossier lifecycle. A
// dossier can be closed early from OPEN when the client cancels.
var allowedStatusTransitions = map[string][]string{
	model.DossierStatusOpen:       {model.DossierStatusInCustoms, model.DossierStatusClosed},
	model.DossierStatusInCustoms:  {model.DossierStatusLiquidated},
	model.DossierStatusLiquidated: {model.DossierStatusClosed},
	model.DossierStatusClosed:     {},
}

func validateStatusTransition(from, to string) error {
	for _, allowed := range allowedStatusTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("cannot move dossier from %s to %s", from, to)
}

func (s *dossierService) CreateDossier(ctx context.Context, userID string, req CreateDossierRequest) (DossierResponse, error) {
	if req.Direction != model.TransitDirectionImport && req.Direction != model.TransitDirectionExport {
		return DossierResponse{}, errors.New("direction must be IMPORT or EXPORT")
	}

	dossier := &model.Dossier{
		Direction: req.Direction,
		Status:    model.DossierStatusOpen,
		Note:      req.Note,
	}
	if req.ClientID != "" {
		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			return DossierResponse{}, errors.New("invalid client id")
		}
		dossier.ClientID = &clientID
	}

	prefix := "DOS-" + time.Now().Format("20060102") + "-"
	count, err := s.dossierRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return DossierResponse{}, err
	}
	dossier.DossierNo = fmt.Sprintf("%s%05d", prefix, count+1)

	if err := s.dossierRepo.Create(ctx, dossier); err != nil {
		return DossierResponse{}, err
	}

	s.audit(ctx, userID, model.ActionCreateDossier, dossier)
	s.broadcast("dossier.created", map[string]interface{}{
		"dossier_id": dossier.ID.String(),
		"dossier_no": dossier.DossierNo,
	})

	return mapToDossierResponse(dossier), nil
}

func (s *dossierService) UpdateDossier(ctx context.Context, id, userID string, req UpdateDossierRequest) (DossierResponse, error) {
	dossierID, err := uuid.Parse(id)
	if err != nil {
		return DossierResponse{}, errors.New("invalid dossier id")
	}

	dossier, err := s.dossierRepo.FindByID(ctx, dossierID)
	if err != nil {
		return DossierResponse{}, errors.New("dossier not found")
	}

	if req.Status != nil && *req.Status != dossier.Status {
		if err := validateStatusTransition(dossier.Status, *req.Status); err != nil {
			return DossierResponse{}, err
		}
		dossier.Status = *req.Status
	}
	if req.ClientID != nil {
		if *req.ClientID == "" {
			dossier.ClientID = nil
		} else {
			clientID, err := uuid.Parse(*req.ClientID)
			if err != nil {
				return DossierResponse{}, errors.New("invalid client id")
			}
			dossier.ClientID = &clientID
		}
	}
	if req.Note != nil {
		dossier.Note = *req.Note
	}

	if err := s.dossierRepo.Update(ctx, dossier); err != nil {
		return DossierResponse{}, err
	}

	s.audit(ctx, userID, model.ActionUpdateDossier, dossier)
	s.broadcast("dossier.updated", map[string]interface{}{
		"dossier_id": dossier.ID.String(),
		"status":     dossier.Status,
	})

	return mapToDossierResponse(dossier), nil
}

func (s *dossierService) GetDossier(ctx context.Context, id string) (DossierResponse, error) {
	dossierID, err := uuid.Parse(id)
	if err != nil {
		return DossierResponse{}, errors.New("invalid dossier id")
	}

	dossier, err := s.dossierRepo.FindByID(ctx, dossierID)
	if err != nil {
		return DossierResponse{}, errors.New("dossier not found")
	}
	return mapToDossierResponse(dossier), nil
}

func (s *dossierService) ListDossiers(ctx context.Context, filter repository.DossierListFilter) ([]DossierResponse, int64, error) {
	dossiers, total, err := s.dossierRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]DossierResponse, 0, len(dossiers))
	for i := range dossiers {
		responses = append(responses, mapToDossierResponse(&dossiers[i]))
	}
	return responses, total, nil
}

func (s *dossierService) AddOrder(ctx context.Context, dossierID string, req CreateTransitOrderRequest) (TransitOrderResponse, error) {
	id, err := uuid.Parse(dossierID)
	if err != nil {
		return TransitOrderResponse{}, errors.New("invalid dossier id")
	}
	if _, err := s.dossierRepo.FindByID(ctx, id); err != nil {
		return TransitOrderResponse{}, errors.New("dossier not found")
	}

	order := &model.TransitOrder{
		DossierID:    id,
		DocumentType: req.DocumentType,
		DocumentNo:   req.DocumentNo,
		Status:       model.TransitOrderPending,
		Note:         req.Note,
	}
	if err := s.dossierRepo.CreateOrder(ctx, order); err != nil {
		return TransitOrderResponse{}, err
	}
	return mapToOrderResponse(order), nil
}

func (s *dossierService) UpdateOrder(ctx context.Context, orderID string, req UpdateTransitOrderRequest) (TransitOrderResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return TransitOrderResponse{}, errors.New("invalid order id")
	}

	order, err := s.dossierRepo.FindOrderByID(ctx, id)
	if err != nil {
		return TransitOrderResponse{}, errors.New("transit order not found")
	}

	if req.Status != nil && *req.Status != order.Status {
		switch *req.Status {
		case model.TransitOrderReceived:
			now := time.Now()
			order.ReceivedAt = &now
		case model.TransitOrderCleared:
			if order.Status != model.TransitOrderReceived {
				return TransitOrderResponse{}, errors.New("order must be received before clearing")
			}
		case model.TransitOrderPending:
			return TransitOrderResponse{}, errors.New("order cannot return to pending")
		default:
			return TransitOrderResponse{}, errors.New("invalid order status")
		}
		order.Status = *req.Status
	}
	if req.Note != nil {
		order.Note = *req.Note
	}

	if err := s.dossierRepo.UpdateOrder(ctx, order); err != nil {
		return TransitOrderResponse{}, err
	}
	return mapToOrderResponse(order), nil
}

func (s *dossierService) ListOrders(ctx context.Context, dossierID string) ([]TransitOrderResponse, error) {
	id, err := uuid.Parse(dossierID)
	if err != nil {
		return nil, errors.New("invalid dossier id")
	}

	orders, err := s.dossierRepo.ListOrders(ctx, id)
	if err != nil {
		return nil, err
	}

	responses := make([]TransitOrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, mapToOrderResponse(&orders[i]))
	}
	return responses, nil
}

// --- Helpers ---

func (s *dossierService) audit(ctx context.Context, userID, action string, dossier *model.Dossier) {
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   dossier.ID.String(),
		EntityName: dossier.DossierNo,
	}
	if parsed, err := uuid.Parse(userID); err == nil {
		entry.UserID = &parsed
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"status":    dossier.Status,
		"direction": dossier.Direction,
	})
	entry.Details = string(payload)
	_ = s.auditRepo.Log(ctx, entry)
}

func (s *dossierService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(DossierEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- ws.Event{Payload: payload}
}

func mapToDossierResponse(d *model.Dossier) DossierResponse {
	resp := DossierResponse{
		ID:          d.ID,
		DossierNo:   d.DossierNo,
		Direction:   d.Direction,
		Status:      d.Status,
		ClientID:    d.ClientID,
		DeclarantID: d.DeclarantID,
		Note:        d.Note,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Client != nil {
		resp.ClientName = d.Client.Name
	}
	if d.Declarant != nil {
		resp.DeclarantName = d.Declarant.Username
	}
	for i := range d.Orders {
		resp.Orders = append(resp.Orders, mapToOrderResponse(&d.Orders[i]))
	}
	return resp
}

func mapToOrderResponse(o *model.TransitOrder) TransitOrderResponse {
	return TransitOrderResponse{
		ID:           o.ID,
		DossierID:    o.DossierID,
		DocumentType: o.DocumentType,
		DocumentNo:   o.DocumentNo,
		Status:       o.Status,
		ReceivedAt:   o.ReceivedAt,
		Note:         o.Note,
		CreatedAt:    o.CreatedAt,
	}
}
