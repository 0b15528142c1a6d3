package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"transit-backend/internal/model"
	"transit-backend/internal/repository"

	"github.com/google/uuid"
)

// --- Address DTO ---

type AddressPayload struct {
	AddressType string `json:"address_type"`
	FullAddress string `json:"full_address"`
	IsDefault   bool   `json:"is_default"`
}

type AddressResponse struct {
	ID          uuid.UUID `json:"id"`
	TiersID     uuid.UUID `json:"tiers_id"`
	AddressType string    `json:"address_type"`
	FullAddress string    `json:"full_address"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Tiers DTOs ---

type CreateTiersRequest struct {
	Name          string           `json:"name" binding:"required"`
	Type          string           `json:"type" binding:"required"`
	TaxCode       string           `json:"tax_code"`
	CompanyName   string           `json:"company_name"`
	BankAccount   string           `json:"bank_account"`
	ContactPerson string           `json:"contact_person"`
	Phone         string           `json:"phone"`
	Email         string           `json:"email"`
	Addresses     []AddressPayload `json:"addresses"`
}

type UpdateTiersRequest struct {
	Name          *string           `json:"name"`
	Type          *string           `json:"type"`
	TaxCode       *string           `json:"tax_code"`
	CompanyName   *string           `json:"company_name"`
	BankAccount   *string           `json:"bank_account"`
	ContactPerson *string           `json:"contact_person"`
	Phone         *string           `json:"phone"`
	Email         *string           `json:"email"`
	IsActive      *bool             `json:"is_active"`
	Addresses     *[]AddressPayload `json:"addresses"` // pointer so nil = not sent, [] = clear all
}

type TiersResponse struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Type          string            `json:"type"`
	TaxCode       string            `json:"tax_code"`
	CompanyName   string            `json:"company_name"`
	BankAccount   string            `json:"bank_account"`
	ContactPerson string            `json:"contact_person"`
	Phone         string            `json:"phone"`
	Email         string            `json:"email"`
	IsActive      bool              `json:"is_active"`
	Addresses     []AddressResponse `json:"addresses"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// --- Interface ---

type TiersService interface {
	CreateTiers(ctx context.Context, userID string, req CreateTiersRequest) (TiersResponse, error)
	UpdateTiers(ctx context.Context, id, userID string, req UpdateTiersRequest) (TiersResponse, error)
	DeleteTiers(ctx context.Context, id string) error
	GetTiersByID(ctx context.Context, id string) (TiersResponse, error)
	ListTiers(ctx context.Context, tiersType, search string, page, limit int) ([]TiersResponse, int64, error)
}

// --- Implementation ---

type tiersService struct {
	tiersRepo repository.TiersRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewTiersService(tiersRepo repository.TiersRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) TiersService {
	return &tiersService{tiersRepo: tiersRepo, auditRepo: auditRepo, txManager: txManager}
}

// --- Validation helpers ---

var validTiersTypes = map[string]bool{
	model.TiersTypeClient:    true,
	model.TiersTypeSupplier:  true,
	model.TiersTypeForwarder: true,
}

var validAddressTypes = map[string]bool{
	model.AddressTypeBilling:  true,
	model.AddressTypeDelivery: true,
	model.AddressTypeOrigin:   true,
}

func validateAddresses(addresses []AddressPayload) error {
	for i, addr := range addresses {
		if !validAddressTypes[addr.AddressType] {
			return fmt.Errorf("addresses[%d]: address_type must be one of: BILLING, DELIVERY, ORIGIN", i)
		}
		if addr.FullAddress == "" {
			return fmt.Errorf("addresses[%d]: full_address is required", i)
		}
	}
	return nil
}

func toAddressModels(tiersID uuid.UUID, payloads []AddressPayload) []model.TiersAddress {
	addresses := make([]model.TiersAddress, 0, len(payloads))
	for _, p := range payloads {
		addresses = append(addresses, model.TiersAddress{
			TiersID:     tiersID,
			AddressType: p.AddressType,
			FullAddress: p.FullAddress,
			IsDefault:   p.IsDefault,
		})
	}
	return addresses
}

// --- CRUD ---

func (s *tiersService) CreateTiers(ctx context.Context, userID string, req CreateTiersRequest) (TiersResponse, error) {
	if !validTiersTypes[req.Type] {
		return TiersResponse{}, errors.New("type must be one of: CLIENT, SUPPLIER, FORWARDER")
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return TiersResponse{}, errors.New("invalid email format")
		}
	}
	if err := validateAddresses(req.Addresses); err != nil {
		return TiersResponse{}, err
	}

	tiers := &model.Tiers{
		Name:          req.Name,
		Type:          req.Type,
		TaxCode:       req.TaxCode,
		CompanyName:   req.CompanyName,
		BankAccount:   req.BankAccount,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
		Addresses:     toAddressModels(uuid.Nil, req.Addresses),
	}

	if err := s.tiersRepo.Create(ctx, tiers); err != nil {
		return TiersResponse{}, err
	}

	s.audit(ctx, userID, model.ActionCreateTiers, tiers)
	return mapToTiersResponse(tiers), nil
}

func (s *tiersService) UpdateTiers(ctx context.Context, id, userID string, req UpdateTiersRequest) (TiersResponse, error) {
	tiersID, err := uuid.Parse(id)
	if err != nil {
		return TiersResponse{}, errors.New("invalid tiers id")
	}

	tiers, err := s.tiersRepo.FindByID(ctx, tiersID)
	if err != nil {
		return TiersResponse{}, errors.New("tiers not found")
	}

	if req.Type != nil {
		if !validTiersTypes[*req.Type] {
			return TiersResponse{}, errors.New("type must be one of: CLIENT, SUPPLIER, FORWARDER")
		}
		tiers.Type = *req.Type
	}
	if req.Email != nil && *req.Email != "" {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return TiersResponse{}, errors.New("invalid email format")
		}
		tiers.Email = *req.Email
	}
	if req.Name != nil {
		tiers.Name = *req.Name
	}
	if req.TaxCode != nil {
		tiers.TaxCode = *req.TaxCode
	}
	if req.CompanyName != nil {
		tiers.CompanyName = *req.CompanyName
	}
	if req.BankAccount != nil {
		tiers.BankAccount = *req.BankAccount
	}
	if req.ContactPerson != nil {
		tiers.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		tiers.Phone = *req.Phone
	}
	if req.IsActive != nil {
		tiers.IsActive = *req.IsActive
	}
	if req.Addresses != nil {
		if err := validateAddresses(*req.Addresses); err != nil {
			return TiersResponse{}, err
		}
	}

	// Replace addresses and update the row in one transaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.Addresses != nil {
			if err := s.tiersRepo.DeleteAddressesByTiersID(txCtx, tiersID); err != nil {
				return err
			}
			newAddresses := toAddressModels(tiersID, *req.Addresses)
			if len(newAddresses) > 0 {
				if err := s.tiersRepo.CreateAddresses(txCtx, newAddresses); err != nil {
					return err
				}
			}
			tiers.Addresses = newAddresses
		}
		return s.tiersRepo.Update(txCtx, tiers)
	})
	if err != nil {
		return TiersResponse{}, err
	}

	s.audit(ctx, userID, model.ActionUpdateTiers, tiers)
	return mapToTiersResponse(tiers), nil
}

func (s *tiersService) DeleteTiers(ctx context.Context, id string) error {
	tiersID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid tiers id")
	}
	if _, err := s.tiersRepo.FindByID(ctx, tiersID); err != nil {
		return errors.New("tiers not found")
	}
	return s.tiersRepo.Delete(ctx, tiersID)
}

func (s *tiersService) GetTiersByID(ctx context.Context, id string) (TiersResponse, error) {
	tiersID, err := uuid.Parse(id)
	if err != nil {
		return TiersResponse{}, errors.New("invalid tiers id")
	}
	tiers, err := s.tiersRepo.FindByID(ctx, tiersID)
	if err != nil {
		return TiersResponse{}, errors.New("tiers not found")
	}
	return mapToTiersResponse(tiers), nil
}

func (s *tiersService) ListTiers(ctx context.Context, tiersType, search string, page, limit int) ([]TiersResponse, int64, error) {
	if tiersType != "" && !validTiersTypes[tiersType] {
		return nil, 0, errors.New("invalid type filter")
	}

	list, total, err := s.tiersRepo.List(ctx, tiersType, search, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TiersResponse, 0, len(list))
	for i := range list {
		responses = append(responses, mapToTiersResponse(&list[i]))
	}
	return responses, total, nil
}

// --- Helpers ---

func (s *tiersService) audit(ctx context.Context, userID, action string, tiers *model.Tiers) {
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   tiers.ID.String(),
		EntityName: tiers.Name,
	}
	if parsed, err := uuid.Parse(userID); err == nil {
		entry.UserID = &parsed
	}
	payload, _ := json.Marshal(map[string]interface{}{"type": tiers.Type})
	entry.Details = string(payload)
	_ = s.auditRepo.Log(ctx, entry)
}

func mapToTiersResponse(t *model.Tiers) TiersResponse {
	addresses := make([]AddressResponse, 0, len(t.Addresses))
	for _, a := range t.Addresses {
		addresses = append(addresses, AddressResponse{
			ID:          a.ID,
			TiersID:     a.TiersID,
			AddressType: a.AddressType,
			FullAddress: a.FullAddress,
			IsDefault:   a.IsDefault,
			CreatedAt:   a.CreatedAt,
			UpdatedAt:   a.UpdatedAt,
		})
	}

	return TiersResponse{
		ID:            t.ID,
		Name:          t.Name,
		Type:          t.Type,
		TaxCode:       t.TaxCode,
		CompanyName:   t.CompanyName,
		BankAccount:   t.BankAccount,
		ContactPerson: t.ContactPerson,
		Phone:         t.Phone,
		Email:         t.Email,
		IsActive:      t.IsActive,
		Addresses:     addresses,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
