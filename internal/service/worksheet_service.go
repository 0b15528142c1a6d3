package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"transit-backend/internal/liquidation"
	"transit-backend/internal/model"
	"transit-backend/internal/repository"
	"transit-backend/internal/valuation"
	ws "transit-backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateWorksheetRequest struct {
	DossierID string `json:"dossier_id" binding:"required"`
}

type WorksheetResponse struct {
	ID        uuid.UUID `json:"id"`
	DossierID uuid.UUID `json:"dossier_id"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

type SetFieldRequest struct {
	Slot  int    `json:"slot" binding:"required"`
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type DistributeRequest struct {
	GlobalFreight     string `json:"global_freight"`
	GlobalInsurance   string `json:"global_insurance"`
	GlobalGrossWeight string `json:"global_gross_weight"`
}

// ArticleView is the wire shape of one matrix slot; amounts are decimal
// strings and CIF is derived at read time, never stored on the slot.
type ArticleView struct {
	SlotIndex             int        `json:"slot_index"`
	ID                    *uuid.UUID `json:"id,omitempty"`
	Revision              int64      `json:"revision"`
	NTSCode               string     `json:"nts_code"`
	Description           string     `json:"description"`
	DeclarationRegimeCode string     `json:"declaration_regime_code"`
	OriginCountryCode     string     `json:"origin_country_code"`
	ProvenanceCountryCode string     `json:"provenance_country_code"`
	FOBValue              string     `json:"fob_value"`
	FOBCurrencyID         *uuid.UUID `json:"fob_currency_id,omitempty"`
	FreightValue          string     `json:"freight_value"`
	FreightCurrencyID     *uuid.UUID `json:"freight_currency_id,omitempty"`
	InsuranceValue        string     `json:"insurance_value"`
	InsuranceCurrencyID   *uuid.UUID `json:"insurance_currency_id,omitempty"`
	GrossWeight           string     `json:"gross_weight"`
	NetWeight             string     `json:"net_weight"`
	PackageCount          int        `json:"package_count"`
	ComplementaryQty      string     `json:"complementary_qty"`
	MerchandiseQty        string     `json:"merchandise_qty"`
	SupplierCommission    string     `json:"supplier_commission"`
	CIFValue              string     `json:"cif_value"`
}

type TaxLineView struct {
	TaxCode  string `json:"tax_code"`
	Label    string `json:"label"`
	Rate     string `json:"rate"`
	Amount   string `json:"amount"`
	Excluded bool   `json:"excluded"`
}

type LiquidationView struct {
	State   string        `json:"state"`
	NTSCode string        `json:"nts_code"`
	Lines   []TaxLineView `json:"lines"`
	Total   string        `json:"total"`
}

type WorksheetStateResponse struct {
	WorksheetID uuid.UUID       `json:"worksheet_id"`
	Reference   string          `json:"reference"`
	ActiveSlot  int             `json:"active_slot"`
	Articles    []ArticleView   `json:"articles"`
	TotalFOB    string          `json:"total_fob"`
	Liquidation LiquidationView `json:"liquidation"`
}

// WorksheetEvent is the payload broadcast over the WebSocket hub when a
// worksheet changes
type WorksheetEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// --- Interface ---

type WorksheetService interface {
	CreateWorksheet(ctx context.Context, userID string, req CreateWorksheetRequest) (WorksheetResponse, error)
	ListByDossier(ctx context.Context, dossierID string) ([]WorksheetResponse, error)
	// OpenWorksheet loads (or resumes) the editing session for a worksheet
	OpenWorksheet(ctx context.Context, id string) (WorksheetStateResponse, []string, error)
	SwitchSlot(ctx context.Context, id string, slot int) (WorksheetStateResponse, []string, error)
	SetField(ctx context.Context, id string, req SetFieldRequest) (ArticleView, []string, error)
	Distribute(ctx context.Context, id, userID string, req DistributeRequest) (WorksheetStateResponse, []string, error)
	SaveAll(ctx context.Context, id, userID string) (WorksheetStateResponse, []string, error)
	CloseWorksheet(ctx context.Context, id string) error
}

// --- Implementation ---

type worksheetService struct {
	worksheetRepo repository.WorksheetRepository
	articleRepo   repository.ArticleRepository
	tariffRepo    repository.TariffRepository
	currencyRepo  repository.CurrencyRepository
	auditRepo     repository.AuditRepository
	registry      *SessionRegistry
	calc          TaxCalculator
	hub           *ws.Hub
}

func NewWorksheetService(
	worksheetRepo repository.WorksheetRepository,
	articleRepo repository.ArticleRepository,
	tariffRepo repository.TariffRepository,
	currencyRepo repository.CurrencyRepository,
	auditRepo repository.AuditRepository,
	registry *SessionRegistry,
	calc TaxCalculator,
	hub *ws.Hub,
) WorksheetService {
	return &worksheetService{
		worksheetRepo: worksheetRepo,
		articleRepo:   articleRepo,
		tariffRepo:    tariffRepo,
		currencyRepo:  currencyRepo,
		auditRepo:     auditRepo,
		registry:      registry,
		calc:          calc,
		hub:           hub,
	}
}

func (s *worksheetService) CreateWorksheet(ctx context.Context, userID string, req CreateWorksheetRequest) (WorksheetResponse, error) {
	dossierID, err := uuid.Parse(req.DossierID)
	if err != nil {
		return WorksheetResponse{}, errors.New("invalid dossier id")
	}

	prefix := "ND-" + time.Now().Format("20060102") + "-"
	count, err := s.worksheetRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return WorksheetResponse{}, err
	}

	worksheet := &model.Worksheet{
		DossierID: dossierID,
		Reference: fmt.Sprintf("%s%05d", prefix, count+1),
	}
	if err := s.worksheetRepo.Create(ctx, worksheet); err != nil {
		return WorksheetResponse{}, err
	}

	s.audit(ctx, userID, model.ActionCreateWorksheet, worksheet.ID.String(), worksheet.Reference, map[string]interface{}{
		"dossier_id": worksheet.DossierID.String(),
	})

	return mapToWorksheetResponse(worksheet), nil
}

func (s *worksheetService) ListByDossier(ctx context.Context, dossierID string) ([]WorksheetResponse, error) {
	id, err := uuid.Parse(dossierID)
	if err != nil {
		return nil, errors.New("invalid dossier id")
	}

	worksheets, err := s.worksheetRepo.ListByDossier(ctx, id)
	if err != nil {
		return nil, err
	}

	responses := make([]WorksheetResponse, 0, len(worksheets))
	for i := range worksheets {
		responses = append(responses, mapToWorksheetResponse(&worksheets[i]))
	}
	return responses, nil
}

func (s *worksheetService) OpenWorksheet(ctx context.Context, id string) (WorksheetStateResponse, []string, error) {
	worksheetID, err := uuid.Parse(id)
	if err != nil {
		return WorksheetStateResponse{}, nil, errors.New("invalid worksheet id")
	}

	session, err := s.registry.GetOrCreate(worksheetID, func() (*WorksheetSession, error) {
		worksheet, err := s.worksheetRepo.FindByID(ctx, worksheetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("worksheet not found")
			}
			return nil, err
		}

		matrix := valuation.NewMatrix()
		records := make([]valuation.Article, 0, len(worksheet.Articles))
		for i := range worksheet.Articles {
			records = append(records, toValuationArticle(worksheet.Articles[i]))
		}
		if err := matrix.LoadFromPersisted(records); err != nil {
			return nil, err
		}

		return &WorksheetSession{
			WorksheetID: worksheetID,
			Matrix:      matrix,
			Engine:      liquidation.NewEngine(s.calc, s.calc),
		}, nil
	})
	if err != nil {
		return WorksheetStateResponse{}, nil, err
	}

	session.lock()
	defer session.unlock()
	return s.buildState(ctx, session)
}

// SwitchSlot changes the active slot. The previous active slot is flushed
// to storage first; a flush failure aborts the switch and keeps the previous
// slot active, so unsaved edits are never silently dropped.
func (s *worksheetService) SwitchSlot(ctx context.Context, id string, slot int) (WorksheetStateResponse, []string, error) {
	session, err := openSession(s.registry, id)
	if err != nil {
		return WorksheetStateResponse{}, nil, err
	}

	session.lock()
	defer session.unlock()

	if slot < 1 || slot > valuation.SlotCount {
		return WorksheetStateResponse{}, nil, &valuation.InvalidSlotError{Slot: slot}
	}

	if session.ActiveSlot != slot {
		if session.ActiveSlot != 0 {
			if err := s.flushSlot(ctx, session, session.ActiveSlot, ""); err != nil {
				return WorksheetStateResponse{}, nil, fmt.Errorf("cannot leave slot %d: %w", session.ActiveSlot, err)
			}
		}
		session.ActiveSlot = slot

		article, err := session.Matrix.Article(slot)
		if err != nil {
			return WorksheetStateResponse{}, nil, err
		}
		if err := session.Engine.LoadSchedule(ctx, article.NTSCode); err != nil {
			return WorksheetStateResponse{}, nil, err
		}
	}

	return s.buildState(ctx, session)
}

func (s *worksheetService) SetField(ctx context.Context, id string, req SetFieldRequest) (ArticleView, []string, error) {
	session, err := openSession(s.registry, id)
	if err != nil {
		return ArticleView{}, nil, err
	}

	session.lock()
	defer session.unlock()

	if session.ActiveSlot == 0 {
		return ArticleView{}, nil, errors.New("no active slot: switch to a slot first")
	}
	if req.Slot != session.ActiveSlot {
		return ArticleView{}, nil, fmt.Errorf("slot %d is not active: switch slots first", req.Slot)
	}

	field := valuation.Field(req.Field)
	article, err := session.Matrix.SetField(req.Slot, field, req.Value)
	if err != nil {
		return ArticleView{}, nil, err
	}

	if field == valuation.FieldNTSCode {
		// Entering a known tariff code prefills the description and swaps
		// the slot's tax schedule
		if req.Value != "" {
			if product, err := s.tariffRepo.FindByNTSCode(ctx, req.Value); err == nil {
				article, err = session.Matrix.SetField(req.Slot, valuation.FieldDescription, product.Description)
				if err != nil {
					return ArticleView{}, nil, err
				}
			}
		}
		if err := session.Engine.LoadSchedule(ctx, req.Value); err != nil {
			return ArticleView{}, nil, err
		}
	}

	rates, codes, err := s.rateTables(ctx)
	if err != nil {
		return ArticleView{}, nil, err
	}

	cif := valuation.ComputeCIF(article, rates)
	view := mapToArticleView(article, cif.Value)
	return view, currencyWarnings(cif.UnknownCurrencies, codes), nil
}

func (s *worksheetService) Distribute(ctx context.Context, id, userID string, req DistributeRequest) (WorksheetStateResponse, []string, error) {
	session, err := openSession(s.registry, id)
	if err != nil {
		return WorksheetStateResponse{}, nil, err
	}

	input, err := parseDistributionInput(req)
	if err != nil {
		return WorksheetStateResponse{}, nil, err
	}

	session.lock()
	defer session.unlock()

	if err := valuation.Distribute(session.Matrix, input); err != nil {
		return WorksheetStateResponse{}, nil, err
	}

	s.audit(ctx, userID, model.ActionDistributeTotals, session.WorksheetID.String(), "", map[string]interface{}{
		"global_freight":      req.GlobalFreight,
		"global_insurance":    req.GlobalInsurance,
		"global_gross_weight": req.GlobalGrossWeight,
	})
	s.broadcast(session.WorksheetID.String(), "worksheet.distributed", map[string]interface{}{
		"worksheet_id": session.WorksheetID.String(),
	})

	return s.buildState(ctx, session)
}

// SaveAll persists every non-blank slot. Stale revisions abort the save so
// the caller can reload before overwriting another session's work.
func (s *worksheetService) SaveAll(ctx context.Context, id, userID string) (WorksheetStateResponse, []string, error) {
	session, err := openSession(s.registry, id)
	if err != nil {
		return WorksheetStateResponse{}, nil, err
	}

	session.lock()
	defer session.unlock()

	for slot := 1; slot <= valuation.SlotCount; slot++ {
		if err := s.flushSlot(ctx, session, slot, userID); err != nil {
			return WorksheetStateResponse{}, nil, fmt.Errorf("slot %d: %w", slot, err)
		}
	}

	s.broadcast(session.WorksheetID.String(), "worksheet.saved", map[string]interface{}{
		"worksheet_id": session.WorksheetID.String(),
	})

	return s.buildState(ctx, session)
}

func (s *worksheetService) CloseWorksheet(ctx context.Context, id string) error {
	worksheetID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid worksheet id")
	}
	s.registry.Remove(worksheetID)
	return nil
}

// --- Helpers ---

// flushSlot writes one slot to storage. Blank slots are skipped entirely;
// persisted ids and bumped revisions are written back into the matrix. The
// caller holds the session lock.
func (s *worksheetService) flushSlot(ctx context.Context, session *WorksheetSession, slot int, userID string) error {
	persistable, err := session.Matrix.ToPersistable(slot)
	if err != nil {
		return err
	}
	if persistable == nil {
		return nil
	}

	record := toModelArticle(session.WorksheetID, *persistable)
	if persistable.PersistedID == nil {
		if err := s.articleRepo.Create(ctx, &record); err != nil {
			return err
		}
	} else {
		if err := s.articleRepo.UpdateChecked(ctx, &record); err != nil {
			return err
		}
	}

	persistable.PersistedID = &record.ID
	persistable.Revision = record.Revision
	if err := session.Matrix.Apply(*persistable); err != nil {
		return err
	}

	if userID != "" {
		s.audit(ctx, userID, model.ActionSaveArticle, record.ID.String(), record.NTSCode, map[string]interface{}{
			"worksheet_id": session.WorksheetID.String(),
			"slot_index":   slot,
		})
	}
	return nil
}

// rateTables loads the currency table once and returns both the conversion
// rates and an id-to-code map for warning messages
func (s *worksheetService) rateTables(ctx context.Context) (valuation.Rates, map[uuid.UUID]string, error) {
	currencies, err := s.currencyRepo.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch currencies: %w", err)
	}

	rates := make(valuation.Rates, len(currencies))
	codes := make(map[uuid.UUID]string, len(currencies))
	for _, cur := range currencies {
		rates[cur.ID] = cur.RateToReference
		codes[cur.ID] = cur.Code
	}
	return rates, codes, nil
}

func (s *worksheetService) buildState(ctx context.Context, session *WorksheetSession) (WorksheetStateResponse, []string, error) {
	rates, codes, err := s.rateTables(ctx)
	if err != nil {
		return WorksheetStateResponse{}, nil, err
	}

	worksheet, err := s.worksheetRepo.FindByID(ctx, session.WorksheetID)
	if err != nil {
		return WorksheetStateResponse{}, nil, err
	}

	var warnings []string
	articles := session.Matrix.Articles()
	views := make([]ArticleView, 0, len(articles))
	for _, a := range articles {
		cif := valuation.ComputeCIF(a, rates)
		warnings = append(warnings, currencyWarnings(cif.UnknownCurrencies, codes)...)
		views = append(views, mapToArticleView(a, cif.Value))
	}

	return WorksheetStateResponse{
		WorksheetID: session.WorksheetID,
		Reference:   worksheet.Reference,
		ActiveSlot:  session.ActiveSlot,
		Articles:    views,
		TotalFOB:    session.Matrix.TotalFOB().StringFixed(4),
		Liquidation: mapToLiquidationView(session.Engine),
	}, dedupe(warnings), nil
}

func (s *worksheetService) audit(ctx context.Context, userID, action, entityID, entityName string, details map[string]interface{}) {
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if parsed, err := uuid.Parse(userID); err == nil {
		entry.UserID = &parsed
	}
	if details != nil {
		payload, _ := json.Marshal(details)
		entry.Details = string(payload)
	}
	// Audit failures never block the business operation
	_ = s.auditRepo.Log(ctx, entry)
}

func (s *worksheetService) broadcast(topic, event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(WorksheetEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- ws.Event{Topic: topic, Payload: payload}
}

func parseDistributionInput(req DistributeRequest) (valuation.DistributionInput, error) {
	parse := func(name, value string) (decimal.Decimal, error) {
		if value == "" {
			return decimal.Zero, nil
		}
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid %s: %w", name, err)
		}
		return parsed, nil
	}

	var input valuation.DistributionInput
	var err error
	if input.GlobalFreight, err = parse("global_freight", req.GlobalFreight); err != nil {
		return input, err
	}
	if input.GlobalInsurance, err = parse("global_insurance", req.GlobalInsurance); err != nil {
		return input, err
	}
	if input.GlobalGrossWeight, err = parse("global_gross_weight", req.GlobalGrossWeight); err != nil {
		return input, err
	}
	return input, nil
}

func currencyWarnings(unknown []uuid.UUID, codes map[uuid.UUID]string) []string {
	warnings := make([]string, 0, len(unknown))
	for _, id := range unknown {
		label := id.String()
		if code, ok := codes[id]; ok {
			label = code
		}
		warnings = append(warnings, fmt.Sprintf("currency %s has no conversion rate, converted at 1", label))
	}
	return warnings
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// --- Mapping ---

func mapToWorksheetResponse(w *model.Worksheet) WorksheetResponse {
	return WorksheetResponse{
		ID:        w.ID,
		DossierID: w.DossierID,
		Reference: w.Reference,
		CreatedAt: w.CreatedAt,
	}
}

func toValuationArticle(a model.Article) valuation.Article {
	id := a.ID
	return valuation.Article{
		SlotIndex:           a.SlotIndex,
		PersistedID:         &id,
		Revision:            a.Revision,
		NTSCode:             a.NTSCode,
		Description:         a.Description,
		RegimeCode:          a.DeclarationRegimeCode,
		OriginCountry:       a.OriginCountryCode,
		ProvenanceCountry:   a.ProvenanceCountryCode,
		FOBValue:            a.FOBValue,
		FOBCurrencyID:       a.FOBCurrencyID,
		FreightValue:        a.FreightValue,
		FreightCurrencyID:   a.FreightCurrencyID,
		InsuranceValue:      a.InsuranceValue,
		InsuranceCurrencyID: a.InsuranceCurrencyID,
		GrossWeight:         a.GrossWeight,
		NetWeight:           a.NetWeight,
		PackageCount:        a.PackageCount,
		ComplementaryQty:    a.ComplementaryQty,
		MerchandiseQty:      a.MerchandiseQty,
		SupplierCommission:  a.SupplierCommission,
	}
}

func toModelArticle(worksheetID uuid.UUID, a valuation.Article) model.Article {
	record := model.Article{
		WorksheetID:           worksheetID,
		SlotIndex:             a.SlotIndex,
		NTSCode:               a.NTSCode,
		Description:           a.Description,
		DeclarationRegimeCode: a.RegimeCode,
		OriginCountryCode:     a.OriginCountry,
		ProvenanceCountryCode: a.ProvenanceCountry,
		FOBValue:              a.FOBValue,
		FOBCurrencyID:         a.FOBCurrencyID,
		FreightValue:          a.FreightValue,
		FreightCurrencyID:     a.FreightCurrencyID,
		InsuranceValue:        a.InsuranceValue,
		InsuranceCurrencyID:   a.InsuranceCurrencyID,
		GrossWeight:           a.GrossWeight,
		NetWeight:             a.NetWeight,
		PackageCount:          a.PackageCount,
		ComplementaryQty:      a.ComplementaryQty,
		MerchandiseQty:        a.MerchandiseQty,
		SupplierCommission:    a.SupplierCommission,
		Revision:              a.Revision,
	}
	if a.PersistedID != nil {
		record.ID = *a.PersistedID
	}
	return record
}

func mapToArticleView(a valuation.Article, cif decimal.Decimal) ArticleView {
	return ArticleView{
		SlotIndex:             a.SlotIndex,
		ID:                    a.PersistedID,
		Revision:              a.Revision,
		NTSCode:               a.NTSCode,
		Description:           a.Description,
		DeclarationRegimeCode: a.RegimeCode,
		OriginCountryCode:     a.OriginCountry,
		ProvenanceCountryCode: a.ProvenanceCountry,
		FOBValue:              a.FOBValue.StringFixed(4),
		FOBCurrencyID:         a.FOBCurrencyID,
		FreightValue:          a.FreightValue.StringFixed(4),
		FreightCurrencyID:     a.FreightCurrencyID,
		InsuranceValue:        a.InsuranceValue.StringFixed(4),
		InsuranceCurrencyID:   a.InsuranceCurrencyID,
		GrossWeight:           a.GrossWeight.StringFixed(2),
		NetWeight:             a.NetWeight.StringFixed(2),
		PackageCount:          a.PackageCount,
		ComplementaryQty:      a.ComplementaryQty.String(),
		MerchandiseQty:        a.MerchandiseQty.String(),
		SupplierCommission:    a.SupplierCommission.StringFixed(4),
		CIFValue:              cif.StringFixed(4),
	}
}

func mapToLiquidationView(engine *liquidation.Engine) LiquidationView {
	lines := engine.Lines()
	views := make([]TaxLineView, 0, len(lines))
	for _, line := range lines {
		views = append(views, TaxLineView{
			TaxCode:  line.TaxCode,
			Label:    line.Label,
			Rate:     line.Rate.String(),
			Amount:   line.Amount.StringFixed(4),
			Excluded: line.Excluded,
		})
	}
	return LiquidationView{
		State:   engine.State(),
		NTSCode: engine.NTSCode(),
		Lines:   views,
		Total:   engine.Total().StringFixed(4),
	}
}
