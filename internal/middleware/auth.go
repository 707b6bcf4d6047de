package middleware

import (
	"net/http"
	"strings"

	"github.com/lorenzotomasdiez/ArcAPI/internal/apierror"
	"github.com/lorenzotomasdiez/ArcAPI/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const UserIDKey = "user_id"

// Authenticate accepts either a Bearer access token or an X-API-Key header
// and resolves both to the owning user id.
func Authenticate(secret string, auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader("X-API-Key"); key != "" {
			user, err := auth.ResolveAPIKey(c.Request.Context(), key)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Invalid API key"))
				return
			}
			c.Set(UserIDKey, user.ID)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Authentication required"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalid or expired"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalid or expired"))
			return
		}
		idStr, _ := claims["user_id"].(string)
		uid, err := uuid.Parse(idStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalid or expired"))
			return
		}

		c.Set(UserIDKey, uid)
		c.Next()
	}
}

// UserID retrieves the authenticated user id from the Gin context.
func UserID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet(UserIDKey).(uuid.UUID)
	return id
}
