package model

import (
	"time"

	"github.com/google/uuid"
)

// CotationStatus constants
const (
	CotationPending  = "PENDING"
	CotationAssigned = "ASSIGNED"
	CotationRejected = "REJECTED"
)

// CotationRequest represents a pending declarant assignment for a dossier.
// A dossier only enters customs processing once a declarant has been assigned.
type CotationRequest struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DossierID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"dossier_id"`
	Dossier         *Dossier   `gorm:"foreignKey:DossierID" json:"dossier,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RequestedBy     *uuid.UUID `gorm:"type:uuid;index" json:"requested_by"`
	Requester       *User      `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	DeclarantID     *uuid.UUID `gorm:"type:uuid" json:"declarant_id"`
	Declarant       *User      `gorm:"foreignKey:DeclarantID" json:"declarant,omitempty"`
	AssignedBy      *uuid.UUID `gorm:"type:uuid" json:"assigned_by"`
	Assigner        *User      `gorm:"foreignKey:AssignedBy" json:"assigner,omitempty"`
	AssignedAt      *time.Time `json:"assigned_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
