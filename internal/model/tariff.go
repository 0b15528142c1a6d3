package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxBase enum constants. CIF bases the tax on the article's CIF value alone;
// CIF_PLUS_TAXES adds the amounts of lower-sequence taxes to the base.
const (
	TaxBaseCIF       = "CIF"
	TaxBaseCIFCumTax = "CIF_PLUS_TAXES"
)

// TariffProduct maps an NTS tariff code to its commercial description
type TariffProduct struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NTSCode     string         `gorm:"column:nts_code;type:varchar(20);uniqueIndex;not null" json:"nts_code"`
	Description string         `gorm:"type:varchar(255);not null" json:"description"`
	UnitCode    string         `gorm:"type:varchar(10)" json:"unit_code"` // complementary unit, e.g. KG, L
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TaxDefinition is one entry of the tax schedule applicable to an NTS code.
// Sequence orders the schedule; cumulative bases only ever look backwards.
type TaxDefinition struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NTSCode   string          `gorm:"column:nts_code;type:varchar(20);not null;index" json:"nts_code"`
	TaxCode   string          `gorm:"type:varchar(20);not null" json:"tax_code"` // e.g. DD, RS, TVA
	Label     string          `gorm:"type:varchar(255);not null" json:"label"`
	Rate      decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"` // e.g. 0.18 = 18%
	BaseType  string          `gorm:"type:varchar(20);not null;default:'CIF'" json:"base_type"`
	Sequence  int             `gorm:"type:int;not null;default:0" json:"sequence"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
