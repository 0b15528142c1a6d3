package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorksheetSlotCount is the fixed width of a note de détail: exactly 11
// article slots exist per worksheet, blank slots included.
const WorksheetSlotCount = 11

// Worksheet represents one note de détail attached to a dossier
type Worksheet struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DossierID uuid.UUID  `gorm:"type:uuid;not null;index" json:"dossier_id"`
	Dossier   *Dossier   `gorm:"foreignKey:DossierID" json:"dossier,omitempty"`
	Reference string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"reference"`
	Articles  []Article  `gorm:"foreignKey:WorksheetID" json:"articles"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Article is one goods line of a worksheet, keyed by its NTS tariff code.
// Revision is an optimistic-concurrency counter bumped on every update;
// saving with a stale revision is rejected.
type Article struct {
	ID                    uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorksheetID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"worksheet_id"`
	SlotIndex             int             `gorm:"type:int;not null" json:"slot_index"` // 1..11, never reassigned
	NTSCode               string          `gorm:"column:nts_code;type:varchar(20);index" json:"nts_code"`
	Description           string          `gorm:"type:varchar(255)" json:"description"`
	DeclarationRegimeCode string          `gorm:"type:varchar(10)" json:"declaration_regime_code"`
	OriginCountryCode     string          `gorm:"type:varchar(3)" json:"origin_country_code"`
	ProvenanceCountryCode string          `gorm:"type:varchar(3)" json:"provenance_country_code"`
	FOBValue              decimal.Decimal `gorm:"column:fob_value;type:decimal(18,4);not null;default:0" json:"fob_value"`
	FOBCurrencyID         *uuid.UUID      `gorm:"column:fob_currency_id;type:uuid" json:"fob_currency_id"`
	FreightValue          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"freight_value"`
	FreightCurrencyID     *uuid.UUID      `gorm:"type:uuid" json:"freight_currency_id"`
	InsuranceValue        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"insurance_value"`
	InsuranceCurrencyID   *uuid.UUID      `gorm:"type:uuid" json:"insurance_currency_id"`
	GrossWeight           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"gross_weight"`
	NetWeight             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"net_weight"`
	PackageCount          int             `gorm:"type:int;not null;default:0" json:"package_count"`
	ComplementaryQty      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"complementary_qty"`
	MerchandiseQty        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"merchandise_qty"`
	SupplierCommission    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"supplier_commission"`
	Revision              int64           `gorm:"type:bigint;not null;default:0" json:"revision"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// TaxLiquidation is one computed tax line for a persisted article.
// Rows are replaced wholesale on each liquidation run.
type TaxLiquidation struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ArticleID uuid.UUID       `gorm:"type:uuid;not null;index" json:"article_id"`
	TaxCode   string          `gorm:"type:varchar(20);not null" json:"tax_code"`
	Label     string          `gorm:"type:varchar(255);not null" json:"label"`
	Rate      decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
	Excluded  bool            `gorm:"not null;default:false" json:"excluded"`
	CreatedAt time.Time       `json:"created_at"`
}
