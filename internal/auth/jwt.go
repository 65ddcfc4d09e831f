package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/masjidku/masjidku-web/internal/models"
)

// DefaultCookieTTL bounds how long the browser keeps a session cookie
const DefaultCookieTTL = 7 * 24 * time.Hour

// CookieClaims is what the session cookie carries: the backend bearer token
// and the coarse role string.
type CookieClaims struct {
	Token string      `json:"tok"`
	Role  models.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies session cookie values
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec creates a codec using an HMAC secret
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultCookieTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of encoded values
func (tc *TokenCodec) TTL() time.Duration {
	return tc.ttl
}

// Encode creates a signed cookie value for a token
func (tc *TokenCodec) Encode(token string, role models.Role) (string, error) {
	if len(tc.secret) == 0 {
		return "", fmt.Errorf("session secret not initialized")
	}

	now := tc.now()
	claims := CookieClaims{
		Token: token,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tc.ttl)),
		},
	}

	signed := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return signed.SignedString(tc.secret)
}

// Decode validates a cookie value and returns its claims
func (tc *TokenCodec) Decode(value string) (*CookieClaims, error) {
	if len(tc.secret) == 0 {
		return nil, fmt.Errorf("session secret not initialized")
	}

	token, err := jwt.ParseWithClaims(value, &CookieClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tc.secret, nil
	}, jwt.WithTimeFunc(tc.now))

	if err != nil {
		return nil, fmt.Errorf("failed to parse session cookie: %w", err)
	}

	if claims, ok := token.Claims.(*CookieClaims); ok && token.Valid && claims.Token != "" {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid session cookie")
}
