package authUtils

import (
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/VicegerentPrince/Urban-Eye/models"
)

// GenerateToken mints a JWT carrying the user's id and role
func GenerateToken(secret string, userID string, role models.Role) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour * 72).Unix(), // Token expires in 72 hours
	})

	return token.SignedString([]byte(secret))
}
