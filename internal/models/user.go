package models

import "time"

// User represents an authenticated principal stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Password string `gorm:"type:text;not null"`             // Hashed password.
	Name     string `gorm:"type:text;not null"`             // Display name.

	Role string `gorm:"type:text;not null;default:'VIEWER'"` // RBAC role name.

	TOTPSecret        string `gorm:"type:text"`              // Enabled TOTP secret for MFA.
	PendingTOTPSecret string `gorm:"type:text"`              // Secret awaiting verification.
	MFAEnabled        bool   `gorm:"not null;default:false"` // Whether login requires a TOTP code.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// SafeView returns the user fields that may be returned to clients.
func (u *User) SafeView() map[string]any {
	return map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"role":       u.Role,
		"mfaEnabled": u.MFAEnabled,
	}
}
