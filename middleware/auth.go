// api/middleware/auth.go

package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/latticehq/lattice/api/db"
	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/util"
)

// Auth resolves the caller's identity and stores it in the request context.
// Identity comes from, in order: the X-User-ID header (trusted frontends
// behind the gateway), a Bearer JWT signed with the configured secret, or a
// Bearer opaque session id held in Redis. When required is true a request
// with no resolvable identity is rejected; otherwise it proceeds anonymous.
func Auth(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := resolveUserID(c)
		if userID != "" {
			c.Set("userID", userID)
		} else if required {
			c.JSON(http.StatusUnauthorized, util.Response{
				Success: false,
				Error:   &util.ErrorBody{Code: util.CodeAuthRequired, Message: "authentication required"},
				Meta:    util.Meta{Timestamp: time.Now().UTC()},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func resolveUserID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}

	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return ""
	}

	if sub := subjectFromJWT(token); sub != "" {
		return sub
	}

	userID, err := db.GetSessionUserID(c, token)
	if err != nil {
		logger.Debug("Session lookup failed", zap.Error(err))
		return ""
	}
	return userID
}

func subjectFromJWT(tokenString string) string {
	secret := viper.GetString("auth.jwtSecret")
	if secret == "" {
		return ""
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
