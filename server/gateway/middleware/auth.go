package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Context keys set by AuthMiddleware.
const (
	CtxPlayerID = "playerId"
	CtxName     = "name"
)

// AuthMiddleware 校验 Bearer token, 把 playerId / name 放进 context
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "NO_TOKEN"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		})
		playerID, _ := claims["playerId"].(string)
		if err != nil || !token.Valid || playerID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "AUTH_FAILED"})
			return
		}

		name, _ := claims["name"].(string)
		c.Set(CtxPlayerID, playerID)
		c.Set(CtxName, name)
		c.Next()
	}
}
