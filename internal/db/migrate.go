package db

import (
	"fmt"

	"github.com/schemaforge/schemaforge/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every persisted type.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.ModelDefinition{},
		&models.DynamicRecord{},
	)
}
