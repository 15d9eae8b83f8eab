package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/VicegerentPrince/Urban-Eye/models"
	"github.com/VicegerentPrince/Urban-Eye/policy"
)

const identityKey = "identity"

// AuthMiddleware resolves the bearer token to an explicit caller identity
// (id + role) and stores it in the request context. Handlers never touch the
// token themselves.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			c.Abort()
			return
		}

		// Extracting token from "Bearer <token>" format
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			zap.L().Debug("Token validation failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		userID, _ := claims["user_id"].(string)
		role, _ := claims["role"].(string)

		objectID, err := primitive.ObjectIDFromHex(userID)
		if err != nil || !models.ValidRole(role) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		c.Set(identityKey, policy.Identity{ID: objectID, Role: models.Role(role)})
		c.Next()
	}
}

// CurrentIdentity returns the caller identity set by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (policy.Identity, bool) {
	val, exists := c.Get(identityKey)
	if !exists {
		return policy.Identity{}, false
	}
	ident, ok := val.(policy.Identity)
	return ident, ok
}
