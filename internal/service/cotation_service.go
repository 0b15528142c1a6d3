package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"transit-backend/internal/model"
	"transit-backend/internal/repository"
	ws "transit-backend/internal/websocket"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateCotationRequest struct {
	DossierID string `json:"dossier_id" binding:"required"`
}

type AssignCotationRequest struct {
	DeclarantID string `json:"declarant_id" binding:"required"`
}

type RejectCotationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type CotationResponse struct {
	ID              uuid.UUID  `json:"id"`
	DossierID       uuid.UUID  `json:"dossier_id"`
	DossierNo       string     `json:"dossier_no,omitempty"`
	Status          string     `json:"status"`
	RequestedBy     *uuid.UUID `json:"requested_by"`
	RequesterName   string     `json:"requester_name,omitempty"`
	DeclarantID     *uuid.UUID `json:"declarant_id"`
	DeclarantName   string     `json:"declarant_name,omitempty"`
	AssignedAt      *time.Time `json:"assigned_at"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// --- Interface ---

// CotationService manages declarant assignment requests. A dossier needs an
// assigned declarant before customs processing can begin.
type CotationService interface {
	CreateCotation(ctx context.Context, userID string, req CreateCotationRequest) (CotationResponse, error)
	AssignCotation(ctx context.Context, id, userID string, req AssignCotationRequest) (CotationResponse, error)
	RejectCotation(ctx context.Context, id, userID string, req RejectCotationRequest) (CotationResponse, error)
	ListCotations(ctx context.Context, status string, page, limit int) ([]CotationResponse, int64, error)
}

// --- Implementation ---

type cotationService struct {
	cotationRepo repository.CotationRepository
	dossierRepo  repository.DossierRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewCotationService(
	cotationRepo repository.CotationRepository,
	dossierRepo repository.DossierRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) CotationService {
	return &cotationService{
		cotationRepo: cotationRepo,
		dossierRepo:  dossierRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func (s *cotationService) CreateCotation(ctx context.Context, userID string, req CreateCotationRequest) (CotationResponse, error) {
	dossierID, err := uuid.Parse(req.DossierID)
	if err != nil {
		return CotationResponse{}, errors.New("invalid dossier id")
	}

	dossier, err := s.dossierRepo.FindByID(ctx, dossierID)
	if err != nil {
		return CotationResponse{}, errors.New("dossier not found")
	}
	if dossier.DeclarantID != nil {
		return CotationResponse{}, errors.New("dossier already has a declarant assigned")
	}
	if pending, err := s.cotationRepo.FindPendingByDossier(ctx, dossierID); err == nil && pending != nil {
		return CotationResponse{}, errors.New("a cotation request is already pending for this dossier")
	}

	request := &model.CotationRequest{
		DossierID: dossierID,
		Status:    model.CotationPending,
	}
	if requester, err := uuid.Parse(userID); err == nil {
		request.RequestedBy = &requester
	}

	if err := s.cotationRepo.Create(ctx, request); err != nil {
		return CotationResponse{}, err
	}

	s.audit(ctx, userID, model.ActionCreateCotation, request, dossier.DossierNo)
	s.broadcast("cotation.created", map[string]interface{}{
		"cotation_id": request.ID.String(),
		"dossier_id":  dossierID.String(),
	})

	return mapToCotationResponse(request), nil
}

// AssignCotation accepts a pending request and writes the declarant onto the
// dossier in the same transaction, so a half-assigned dossier never exists.
func (s *cotationService) AssignCotation(ctx context.Context, id, userID string, req AssignCotationRequest) (CotationResponse, error) {
	cotationID, err := uuid.Parse(id)
	if err != nil {
		return CotationResponse{}, errors.New("invalid cotation id")
	}
	declarantID, err := uuid.Parse(req.DeclarantID)
	if err != nil {
		return CotationResponse{}, errors.New("invalid declarant id")
	}

	request, err := s.cotationRepo.FindByID(ctx, cotationID)
	if err != nil {
		return CotationResponse{}, errors.New("cotation request not found")
	}
	if request.Status != model.CotationPending {
		return CotationResponse{}, errors.New("cotation request is not pending")
	}

	declarant, err := s.userRepo.GetByID(ctx, declarantID.String())
	if err != nil {
		return CotationResponse{}, errors.New("declarant not found")
	}
	if declarant.Role != "declarant" {
		return CotationResponse{}, errors.New("assigned user must have the declarant role")
	}

	dossier, err := s.dossierRepo.FindByID(ctx, request.DossierID)
	if err != nil {
		return CotationResponse{}, errors.New("dossier not found")
	}

	now := time.Now()
	request.Status = model.CotationAssigned
	request.DeclarantID = &declarantID
	request.AssignedAt = &now
	if assigner, err := uuid.Parse(userID); err == nil {
		request.AssignedBy = &assigner
	}
	dossier.DeclarantID = &declarantID

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.cotationRepo.Update(txCtx, request); err != nil {
			return err
		}
		return s.dossierRepo.Update(txCtx, dossier)
	})
	if err != nil {
		return CotationResponse{}, err
	}

	s.audit(ctx, userID, model.ActionAssignCotation, request, dossier.DossierNo)
	s.broadcast("cotation.assigned", map[string]interface{}{
		"cotation_id":  request.ID.String(),
		"dossier_id":   dossier.ID.String(),
		"declarant_id": declarantID.String(),
	})

	return mapToCotationResponse(request), nil
}

func (s *cotationService) RejectCotation(ctx context.Context, id, userID string, req RejectCotationRequest) (CotationResponse, error) {
	cotationID, err := uuid.Parse(id)
	if err != nil {
		return CotationResponse{}, errors.New("invalid cotation id")
	}

	request, err := s.cotationRepo.FindByID(ctx, cotationID)
	if err != nil {
		return CotationResponse{}, errors.New("cotation request not found")
	}
	if request.Status != model.CotationPending {
		return CotationResponse{}, errors.New("cotation request is not pending")
	}

	request.Status = model.CotationRejected
	request.RejectionReason = req.Reason
	if err := s.cotationRepo.Update(ctx, request); err != nil {
		return CotationResponse{}, err
	}

	s.audit(ctx, userID, model.ActionRejectCotation, request, "")
	return mapToCotationResponse(request), nil
}

func (s *cotationService) ListCotations(ctx context.Context, status string, page, limit int) ([]CotationResponse, int64, error) {
	requests, total, err := s.cotationRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CotationResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, mapToCotationResponse(&requests[i]))
	}
	return responses, total, nil
}

// --- Helpers ---

func (s *cotationService) audit(ctx context.Context, userID, action string, request *model.CotationRequest, dossierNo string) {
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   request.ID.String(),
		EntityName: dossierNo,
	}
	if parsed, err := uuid.Parse(userID); err == nil {
		entry.UserID = &parsed
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"dossier_id": request.DossierID.String(),
		"status":     request.Status,
	})
	entry.Details = string(payload)
	_ = s.auditRepo.Log(ctx, entry)
}

func (s *cotationService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(DossierEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- ws.Event{Payload: payload}
}

func mapToCotationResponse(r *model.CotationRequest) CotationResponse {
	resp := CotationResponse{
		ID:              r.ID,
		DossierID:       r.DossierID,
		Status:          r.Status,
		RequestedBy:     r.RequestedBy,
		DeclarantID:     r.DeclarantID,
		AssignedAt:      r.AssignedAt,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
	}
	if r.Dossier != nil {
		resp.DossierNo = r.Dossier.DossierNo
	}
	if r.Requester != nil {
		resp.RequesterName = r.Requester.Username
	}
	if r.Declarant != nil {
		resp.DeclarantName = r.Declarant.Username
	}
	return resp
}
