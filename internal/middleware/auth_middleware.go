package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"go-leaveflow/internal/shared/apperror"
	"go-leaveflow/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// bearerToken pulls the access token from the Authorization header, falling
// back to the access_token cookie for browser clients.
func bearerToken(c *gin.Context) string {
	if token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); found && token != "" {
		return token
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware verifies the bearer token and establishes the acting user.
// Token issuance belongs to the identity subsystem; this side only checks
// the signature and extracts the subject.
func AuthMiddleware() gin.HandlerFunc {
	secret := []byte(os.Getenv("JWT_SECRET"))

	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "Token not found", nil)
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims,
			func(*jwt.Token) (interface{}, error) { return secret, nil },
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		)
		if err != nil || !token.Valid {
			code, message := "INVALID_TOKEN", "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				code, message = "TOKEN_EXPIRED", "Token has expired"
			}
			response.Error(c, http.StatusUnauthorized, code, message, nil)
			c.Abort()
			return
		}

		userID, _ := claims["user_id"].(string)
		if userID == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "User ID not found in token", nil)
			c.Abort()
			return
		}
		role, _ := claims["role"].(string)

		c.Set("user_id", userID)
		c.Set("role", role)

		c.Next()
	}
}
