package security

import (
	"fmt"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt work factor applied to stored credentials.
const passwordCost = 12

// totpIssuer is the issuer name shown in authenticator apps.
const totpIssuer = "SchemaForge"

// HashPassword derives the stored bcrypt form of a plaintext password.
func HashPassword(password string) (string, error) {
	hashed, errHash := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if errHash != nil {
		return "", fmt.Errorf("security: hash password: %w", errHash)
	}
	return string(hashed), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// GenerateTOTPSecret creates a new TOTP secret for the account and returns
// the secret plus the otpauth provisioning URL.
func GenerateTOTPSecret(accountName string) (secret, url string, err error) {
	key, errGen := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: accountName,
	})
	if errGen != nil {
		return "", "", fmt.Errorf("security: generate totp secret: %w", errGen)
	}
	return key.Secret(), key.URL(), nil
}

// ValidateTOTP checks a one-time code against a stored secret.
func ValidateTOTP(code, secret string) bool {
	return totp.Validate(code, secret)
}
