package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"transit-backend/internal/model"
	"transit-backend/internal/repository"
	ws "transit-backend/internal/websocket"

	"github.com/google/uuid"
)

type ToggleExclusionRequest struct {
	TaxCode string `json:"tax_code" binding:"required"`
}

// LiquidationService drives tax liquidation for the active slot of an open
// worksheet session
type LiquidationService interface {
	Liquidate(ctx context.Context, worksheetID, userID string) (LiquidationView, error)
	ToggleExclusion(ctx context.Context, worksheetID string, req ToggleExclusionRequest) (LiquidationView, error)
	Reset(ctx context.Context, worksheetID, userID string) error
	Status(ctx context.Context, worksheetID string) (LiquidationView, error)
}

type liquidationService struct {
	registry  *SessionRegistry
	auditRepo repository.AuditRepository
	hub       *ws.Hub
}

func NewLiquidationService(registry *SessionRegistry, auditRepo repository.AuditRepository, hub *ws.Hub) LiquidationService {
	return &liquidationService{registry: registry, auditRepo: auditRepo, hub: hub}
}

func (s *liquidationService) Liquidate(ctx context.Context, worksheetID, userID string) (LiquidationView, error) {
	session, err := openSession(s.registry, worksheetID)
	if err != nil {
		return LiquidationView{}, err
	}

	session.lock()
	defer session.unlock()

	articleID, err := activeArticleID(session)
	if err != nil {
		return LiquidationView{}, err
	}

	result, err := session.Engine.Liquidate(ctx, articleID)
	if err != nil {
		return LiquidationView{}, err
	}

	s.audit(ctx, userID, model.ActionLiquidate, session, map[string]interface{}{
		"nts_code": session.Engine.NTSCode(),
		"total":    result.Total.StringFixed(4),
	})
	s.broadcast(session.WorksheetID.String(), "liquidation.completed", map[string]interface{}{
		"worksheet_id": session.WorksheetID.String(),
		"slot_index":   session.ActiveSlot,
		"total":        result.Total.StringFixed(4),
	})

	return mapToLiquidationView(session.Engine), nil
}

func (s *liquidationService) ToggleExclusion(ctx context.Context, worksheetID string, req ToggleExclusionRequest) (LiquidationView, error) {
	session, err := openSession(s.registry, worksheetID)
	if err != nil {
		return LiquidationView{}, err
	}

	session.lock()
	defer session.unlock()

	articleID, err := activeArticleID(session)
	if err != nil {
		return LiquidationView{}, err
	}

	if _, err := session.Engine.ToggleExclusion(ctx, req.TaxCode, articleID); err != nil {
		return LiquidationView{}, err
	}

	return mapToLiquidationView(session.Engine), nil
}

func (s *liquidationService) Reset(ctx context.Context, worksheetID, userID string) error {
	session, err := openSession(s.registry, worksheetID)
	if err != nil {
		return err
	}

	session.lock()
	defer session.unlock()

	var articleID *uuid.UUID
	if session.ActiveSlot != 0 {
		article, err := session.Matrix.Article(session.ActiveSlot)
		if err != nil {
			return err
		}
		articleID = article.PersistedID
	}

	if err := session.Engine.Reset(ctx, articleID); err != nil {
		return err
	}

	s.audit(ctx, userID, model.ActionResetLiquidation, session, nil)
	s.broadcast(session.WorksheetID.String(), "liquidation.reset", map[string]interface{}{
		"worksheet_id": session.WorksheetID.String(),
		"slot_index":   session.ActiveSlot,
	})
	return nil
}

func (s *liquidationService) Status(ctx context.Context, worksheetID string) (LiquidationView, error) {
	session, err := openSession(s.registry, worksheetID)
	if err != nil {
		return LiquidationView{}, err
	}

	session.lock()
	defer session.unlock()
	return mapToLiquidationView(session.Engine), nil
}

// --- Helpers ---

// activeArticleID returns the persisted id behind the active slot; a slot
// that was never saved has none and cannot be liquidated
func activeArticleID(session *WorksheetSession) (*uuid.UUID, error) {
	if session.ActiveSlot == 0 {
		return nil, errors.New("no active slot: switch to a slot first")
	}
	article, err := session.Matrix.Article(session.ActiveSlot)
	if err != nil {
		return nil, err
	}
	return article.PersistedID, nil
}

func (s *liquidationService) audit(ctx context.Context, userID, action string, session *WorksheetSession, details map[string]interface{}) {
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   session.WorksheetID.String(),
		EntityName: fmt.Sprintf("slot %d", session.ActiveSlot),
	}
	if parsed, err := uuid.Parse(userID); err == nil {
		entry.UserID = &parsed
	}
	if details != nil {
		payload, _ := json.Marshal(details)
		entry.Details = string(payload)
	}
	_ = s.auditRepo.Log(ctx, entry)
}

func (s *liquidationService) broadcast(topic, event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(WorksheetEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- ws.Event{Topic: topic, Payload: payload}
}
