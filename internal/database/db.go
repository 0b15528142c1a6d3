package database

import (
	"log"

	"transit-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Tiers{},
		&model.TiersAddress{},
		&model.Currency{},
		&model.TariffProduct{},
		&model.TaxDefinition{},
		&model.Dossier{},
		&model.TransitOrder{},
		&model.CotationRequest{},
		&model.Worksheet{},
		&model.Article{},
		&model.TaxLiquidation{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
