package core

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// Identity is what a verified credential tells us about a connection.
type Identity struct {
	PlayerID string
	Name     string
}

var ErrBadToken = errors.New("invalid token")

// ParseToken verifies an HS256 credential issued by the user service.
func ParseToken(secret []byte, token string) (Identity, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrBadToken
	}
	id, _ := claims["playerId"].(string)
	name, _ := claims["name"].(string)
	if id == "" {
		return Identity{}, ErrBadToken
	}
	return Identity{PlayerID: id, Name: name}, nil
}
