package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/schemaforge/schemaforge/internal/apperr"
	"github.com/schemaforge/schemaforge/internal/models"
	"github.com/schemaforge/schemaforge/internal/security"
)

// MFAHandler manages the optional TOTP second factor on user accounts.
type MFAHandler struct {
	db *gorm.DB
}

// NewMFAHandler constructs an MFAHandler.
func NewMFAHandler(db *gorm.DB) *MFAHandler {
	return &MFAHandler{db: db}
}

// loadUser fetches the authenticated user's row.
func (h *MFAHandler) loadUser(c *gin.Context) (*models.User, error) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return nil, apperr.Unauthenticatedf("authentication required")
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, principal.ID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user not found")
		}
		return nil, errFind
	}
	return &user, nil
}

// Setup generates a pending TOTP secret and returns the provisioning URL.
// Enforcement begins only after Enable verifies a code.
func (h *MFAHandler) Setup(c *gin.Context) {
	user, errLoad := h.loadUser(c)
	if errLoad != nil {
		respondError(c, errLoad)
		return
	}

	secret, url, errGen := security.GenerateTOTPSecret(user.Email)
	if errGen != nil {
		respondError(c, errGen)
		return
	}

	errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{"pending_totp_secret": secret, "updated_at": time.Now().UTC()}).Error
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}

	respondOK(c, gin.H{"secret": secret, "otpauthUrl": url})
}

// codeRequest defines the request body carrying a TOTP code.
type codeRequest struct {
	Code string `json:"code"`
}

// Enable verifies a code against the pending secret and turns MFA on.
func (h *MFAHandler) Enable(c *gin.Context) {
	user, errLoad := h.loadUser(c)
	if errLoad != nil {
		respondError(c, errLoad)
		return
	}

	var body codeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, apperr.Validationf("invalid json"))
		return
	}
	code := strings.TrimSpace(body.Code)
	if code == "" {
		respondError(c, apperr.Validationf("code is required"))
		return
	}
	if user.PendingTOTPSecret == "" {
		respondError(c, apperr.Validationf("no pending mfa setup"))
		return
	}
	if !security.ValidateTOTP(code, user.PendingTOTPSecret) {
		respondError(c, apperr.Unauthenticatedf("invalid code"))
		return
	}

	errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"totp_secret":         user.PendingTOTPSecret,
			"pending_totp_secret": "",
			"mfa_enabled":         true,
			"updated_at":          time.Now().UTC(),
		}).Error
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}

	respondMessage(c, "MFA enabled")
}

// Disable verifies a code against the active secret and turns MFA off.
func (h *MFAHandler) Disable(c *gin.Context) {
	user, errLoad := h.loadUser(c)
	if errLoad != nil {
		respondError(c, errLoad)
		return
	}

	var body codeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, apperr.Validationf("invalid json"))
		return
	}
	code := strings.TrimSpace(body.Code)
	if code == "" {
		respondError(c, apperr.Validationf("code is required"))
		return
	}
	if !user.MFAEnabled {
		respondError(c, apperr.Validationf("mfa is not enabled"))
		return
	}
	if !security.ValidateTOTP(code, user.TOTPSecret) {
		respondError(c, apperr.Unauthenticatedf("invalid code"))
		return
	}

	errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"totp_secret": "",
			"mfa_enabled": false,
			"updated_at":  time.Now().UTC(),
		}).Error
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}

	respondMessage(c, "MFA disabled")
}
