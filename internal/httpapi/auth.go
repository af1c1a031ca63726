package httpapi

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/schemaforge/schemaforge/internal/apperr"
	"github.com/schemaforge/schemaforge/internal/config"
	"github.com/schemaforge/schemaforge/internal/models"
	"github.com/schemaforge/schemaforge/internal/rbac"
	"github.com/schemaforge/schemaforge/internal/security"
)

// AuthHandler handles registration, login, and the current-user endpoint.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg}
}

// registerRequest defines the request body for user registration.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Register creates a new user account. The role defaults to VIEWER.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, apperr.Validationf("invalid json"))
		return
	}

	email := strings.TrimSpace(body.Email)
	password := strings.TrimSpace(body.Password)
	name := strings.TrimSpace(body.Name)
	if email == "" || password == "" || name == "" {
		respondError(c, apperr.Validationf("email, password, and name are required"))
		return
	}

	role := strings.ToUpper(strings.TrimSpace(body.Role))
	if role == "" {
		role = rbac.RoleViewer
	}

	var existing models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&existing).Error
	if errFind == nil {
		respondError(c, apperr.Conflictf("user already exists"))
		return
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		respondError(c, errFind)
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		respondError(c, errHash)
		return
	}

	user := models.User{Email: email, Password: hash, Name: name, Role: role}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		respondError(c, errCreate)
		return
	}

	respondCreatedMessage(c, "User registered successfully", user.SafeView())
}

// loginRequest defines the request body for login. Code carries the TOTP
// one-time code for accounts with MFA enabled.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// Login verifies credentials and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, apperr.Validationf("invalid json"))
		return
	}

	email := strings.TrimSpace(body.Email)
	password := strings.TrimSpace(body.Password)
	if email == "" || password == "" {
		respondError(c, apperr.Validationf("email and password are required"))
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; errFind != nil {
		respondError(c, apperr.Unauthenticatedf("invalid credentials"))
		return
	}
	if !security.CheckPassword(user.Password, password) {
		respondError(c, apperr.Unauthenticatedf("invalid credentials"))
		return
	}

	if user.MFAEnabled {
		code := strings.TrimSpace(body.Code)
		if code == "" {
			respondError(c, apperr.Forbiddenf("mfa code required"))
			return
		}
		if !security.ValidateTOTP(code, user.TOTPSecret) {
			respondError(c, apperr.Unauthenticatedf("invalid mfa code"))
			return
		}
	}

	token, errToken := security.GenerateToken(h.jwtCfg.Secret, user.ID, user.Email, user.Role, h.jwtCfg.Expiry())
	if errToken != nil {
		respondError(c, errToken)
		return
	}

	respondOK(c, gin.H{"token": token, "user": user.SafeView()})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		respondError(c, apperr.Unauthenticatedf("authentication required"))
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, principal.ID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFoundf("user not found"))
			return
		}
		respondError(c, errFind)
		return
	}

	respondOK(c, user.SafeView())
}
