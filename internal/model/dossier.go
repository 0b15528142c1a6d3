package model

import (
	"time"

	"github.com/google/uuid"
)

// DossierStatus constants
const (
	DossierStatusOpen       = "OPEN"
	DossierStatusInCustoms  = "IN_CUSTOMS"
	DossierStatusLiquidated = "LIQUIDATED"
	DossierStatusClosed     = "CLOSED"
)

// TransitDirection enum constants
const (
	TransitDirectionImport = "IMPORT"
	TransitDirectionExport = "EXPORT"
)

// Dossier represents one shipment/customs case handled by the agency
type Dossier struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DossierNo    string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"dossier_no"`
	Direction    string     `gorm:"type:varchar(20);not null" json:"direction"` // IMPORT, EXPORT
	Status       string     `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
	ClientID     *uuid.UUID `gorm:"type:uuid;index" json:"client_id"`
	Client       *Tiers     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	DeclarantID  *uuid.UUID `gorm:"type:uuid;index" json:"declarant_id"` // Set by cotation
	Declarant    *User      `gorm:"foreignKey:DeclarantID" json:"declarant,omitempty"`
	Note         string     `gorm:"type:text" json:"note"`
	Orders       []TransitOrder `gorm:"foreignKey:DossierID" json:"orders,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TransitOrderStatus constants
const (
	TransitOrderPending  = "PENDING"
	TransitOrderReceived = "RECEIVED"
	TransitOrderCleared  = "CLEARED"
)

// TransitOrder tracks one transit-order document attached to a dossier
// (bill of lading, commercial invoice, packing list...)
type TransitOrder struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DossierID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"dossier_id"`
	DocumentType string     `gorm:"type:varchar(50);not null" json:"document_type"`
	DocumentNo   string     `gorm:"type:varchar(100);not null" json:"document_no"`
	Status       string     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	ReceivedAt   *time.Time `json:"received_at"`
	Note         string     `gorm:"type:text" json:"note"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
