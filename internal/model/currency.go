package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency stores a quotable currency and its conversion rate to the
// reference currency used by customs valuation (e.g. XOF).
type Currency struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code            string          `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"` // ISO code, e.g. EUR
	Symbol          string          `gorm:"type:varchar(10);not null" json:"symbol"`
	Label           string          `gorm:"type:varchar(100)" json:"label"`
	RateToReference decimal.Decimal `gorm:"type:decimal(18,6);not null;default:1" json:"rate_to_reference"` // units of reference per 1 unit of this currency
	IsReference     bool            `gorm:"default:false" json:"is_reference"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
