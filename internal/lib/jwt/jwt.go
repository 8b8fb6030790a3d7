package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zanzhit/capture_studio/internal/domain/models"
)

// NewToken mints the API token carrying the user identity and type; handlers
// downstream trust these claims after signature verification.
func NewToken(user models.User, duration time.Duration, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":       user.Id,
		"email":     user.Email,
		"user_type": user.UserType,
		"exp":       time.Now().Add(duration).Unix(),
	})

	return token.SignedString([]byte(secret))
}
