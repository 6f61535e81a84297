package utils

import (
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/AsaielHummadi/Sustain/models/user"
)

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword verifies a plain text password against a bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken issues a signed session token carrying the identity triple
// the auth middleware turns back into a request context.
func GenerateToken(u user.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":         u.ID,
		"organization_id": u.OrganizationID,
		"role_id":         u.RoleID,
		"email":           u.Email,
		"exp":             time.Now().Add(2 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// NewInvitationToken returns an opaque token for invitation links.
func NewInvitationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
