package valuation

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SlotCount is the fixed width of a note de détail. Every worksheet has
// exactly this many slots; blank slots are valid articles with zeroed fields.
const SlotCount = 11

// Field identifies one editable article field for SetField
type Field string

const (
	FieldNTSCode            Field = "nts_code"
	FieldDescription        Field = "description"
	FieldRegimeCode         Field = "declaration_regime_code"
	FieldOriginCountry      Field = "origin_country_code"
	FieldProvenanceCountry  Field = "provenance_country_code"
	FieldFOBValue           Field = "fob_value"
	FieldFOBCurrency        Field = "fob_currency_id"
	FieldFreightValue       Field = "freight_value"
	FieldFreightCurrency    Field = "freight_currency_id"
	FieldInsuranceValue     Field = "insurance_value"
	FieldInsuranceCurrency  Field = "insurance_currency_id"
	FieldGrossWeight        Field = "gross_weight"
	FieldNetWeight          Field = "net_weight"
	FieldPackageCount       Field = "package_count"
	FieldComplementaryQty   Field = "complementary_qty"
	FieldMerchandiseQty     Field = "merchandise_qty"
	FieldSupplierCommission Field = "supplier_commission"
)

// Article is one goods line of the in-memory matrix. PersistedID is nil until
// the slot has been saved; Revision mirrors the stored optimistic-lock counter.
type Article struct {
	SlotIndex   int
	PersistedID *uuid.UUID
	Revision    int64

	NTSCode           string
	Description       string
	RegimeCode        string
	OriginCountry     string
	ProvenanceCountry string

	FOBValue            decimal.Decimal
	FOBCurrencyID       *uuid.UUID
	FreightValue        decimal.Decimal
	FreightCurrencyID   *uuid.UUID
	InsuranceValue      decimal.Decimal
	InsuranceCurrencyID *uuid.UUID

	GrossWeight        decimal.Decimal
	NetWeight          decimal.Decimal
	PackageCount       int
	ComplementaryQty   decimal.Decimal
	MerchandiseQty     decimal.Decimal
	SupplierCommission decimal.Decimal
}

// IsBlank reports whether the slot carries nothing worth persisting:
// no tariff code, no description and no FOB value.
func (a Article) IsBlank() bool {
	return a.NTSCode == "" && a.Description == "" && a.FOBValue.IsZero()
}

// Matrix holds the fixed 11-slot article collection of one worksheet session.
// It is plain in-memory state; callers serialize access to it.
type Matrix struct {
	slots [SlotCount]Article
}

// NewMatrix returns a matrix of 11 blank articles indexed 1..11
func NewMatrix() *Matrix {
	m := &Matrix{}
	for i := range m.slots {
		m.slots[i] = Article{SlotIndex: i + 1}
	}
	return m
}

func (m *Matrix) checkSlot(slot int) error {
	if slot < 1 || slot > SlotCount {
		return &InvalidSlotError{Slot: slot}
	}
	return nil
}

// Article returns a copy of the article at the given slot
func (m *Matrix) Article(slot int) (Article, error) {
	if err := m.checkSlot(slot); err != nil {
		return Article{}, err
	}
	return m.slots[slot-1], nil
}

// Articles returns a copy of all 11 slots in order
func (m *Matrix) Articles() []Article {
	out := make([]Article, SlotCount)
	copy(out, m.slots[:])
	return out
}

// SetField updates a single field of one slot from its string form and
// returns the updated article. Other slots are never touched. The matrix does
// not recompute derived values (CIF); that is the caller's job after the edit.
func (m *Matrix) SetField(slot int, field Field, value string) (Article, error) {
	if err := m.checkSlot(slot); err != nil {
		return Article{}, err
	}

	a := m.slots[slot-1]
	switch field {
	case FieldNTSCode:
		a.NTSCode = value
	case FieldDescription:
		a.Description = value
	case FieldRegimeCode:
		a.RegimeCode = value
	case FieldOriginCountry:
		a.OriginCountry = value
	case FieldProvenanceCountry:
		a.ProvenanceCountry = value
	case FieldFOBValue, FieldFreightValue, FieldInsuranceValue,
		FieldGrossWeight, FieldNetWeight, FieldComplementaryQty,
		FieldMerchandiseQty, FieldSupplierCommission:
		parsed, err := parseAmount(field, value)
		if err != nil {
			return Article{}, err
		}
		switch field {
		case FieldFOBValue:
			a.FOBValue = parsed
		case FieldFreightValue:
			a.FreightValue = parsed
		case FieldInsuranceValue:
			a.InsuranceValue = parsed
		case FieldGrossWeight:
			a.GrossWeight = parsed
		case FieldNetWeight:
			a.NetWeight = parsed
		case FieldComplementaryQty:
			a.ComplementaryQty = parsed
		case FieldMerchandiseQty:
			a.MerchandiseQty = parsed
		case FieldSupplierCommission:
			a.SupplierCommission = parsed
		}
	case FieldFOBCurrency, FieldFreightCurrency, FieldInsuranceCurrency:
		id, err := parseCurrencyID(field, value)
		if err != nil {
			return Article{}, err
		}
		switch field {
		case FieldFOBCurrency:
			a.FOBCurrencyID = id
		case FieldFreightCurrency:
			a.FreightCurrencyID = id
		case FieldInsuranceCurrency:
			a.InsuranceCurrencyID = id
		}
	case FieldPackageCount:
		count, err := parseCount(value)
		if err != nil {
			return Article{}, err
		}
		a.PackageCount = count
	default:
		return Article{}, &UnknownFieldError{Field: field}
	}

	m.slots[slot-1] = a
	return a, nil
}

// LoadFromPersisted maps up to 11 stored records onto slots 1..N in the order
// received, zero-filling the remaining slots. More than 11 records is an
// error and leaves the matrix untouched.
func (m *Matrix) LoadFromPersisted(records []Article) error {
	if len(records) > SlotCount {
		return fmt.Errorf("%w: got %d records", ErrTooManyArticles, len(records))
	}

	for i := range m.slots {
		if i < len(records) {
			a := records[i]
			a.SlotIndex = i + 1
			m.slots[i] = a
		} else {
			m.slots[i] = Article{SlotIndex: i + 1}
		}
	}
	return nil
}

// ToPersistable returns the slot's data in save shape, or nil when the slot
// is blank. Blank trailing slots are deliberately never persisted.
func (m *Matrix) ToPersistable(slot int) (*Article, error) {
	if err := m.checkSlot(slot); err != nil {
		return nil, err
	}

	a := m.slots[slot-1]
	if a.IsBlank() {
		return nil, nil
	}
	return &a, nil
}

// Apply replaces the article at its own slot index. Used by callers to write
// back persistence results (id, revision) or distribution output.
func (m *Matrix) Apply(a Article) error {
	if err := m.checkSlot(a.SlotIndex); err != nil {
		return err
	}
	m.slots[a.SlotIndex-1] = a
	return nil
}

// TotalFOB sums the FOB values of all slots; blank slots contribute zero
func (m *Matrix) TotalFOB() decimal.Decimal {
	total := decimal.Zero
	for i := range m.slots {
		total = total.Add(m.slots[i].FOBValue)
	}
	return total
}

func parseAmount(field Field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", string(field), err)
	}
	if parsed.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", string(field))
	}
	return parsed, nil
}

func parseCurrencyID(field Field, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", string(field), err)
	}
	return &id, nil
}

func parseCount(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	count, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid package_count value: %w", err)
	}
	if count < 0 {
		return 0, fmt.Errorf("package_count must not be negative")
	}
	return count, nil
}
