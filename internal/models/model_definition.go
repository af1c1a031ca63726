package models

import (
	"time"

	"gorm.io/datatypes"
)

// ModelDefinition is the persisted form of an admin-declared model. The
// field list and RBAC policy are stored as JSON so the table shape stays
// fixed while declarations vary.
type ModelDefinition struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name      string `gorm:"type:text;not null;uniqueIndex"` // Unique model name, case-preserving.
	TableName string `gorm:"type:text;not null"`             // Derived storage name.

	Fields     datatypes.JSON `gorm:"not null"` // Ordered field declarations in JSON.
	OwnerField string         `gorm:"type:text"` // Optional ownership field name.
	RBAC       datatypes.JSON `gorm:"not null"` // Role to permission-set mapping in JSON.

	CreatedAt time.Time `gorm:"not null"` // Creation timestamp, preserved across updates.
	UpdatedAt time.Time `gorm:"not null"` // Last update timestamp.
}
