package service

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v4"
)

const MaxNameLength = 32

// NormalizeName trims a requested display name and cuts it to MaxNameLength
// runes. An empty name becomes Nave-NNNN.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("Nave-%04d", rand.IntN(10000))
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	return name
}

// GenerateToken 生成 JWT
func GenerateToken(secret []byte, ttl time.Duration, playerID, name string) (string, error) {
	claims := jwt.MapClaims{
		"playerId": playerID,
		"name":     name,
		"exp":      time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
