package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType tags a signed token as access or refresh.
type TokenType string

const (
	TypeAccess  TokenType = "ACCESS"
	TypeRefresh TokenType = "REFRESH"
)

var (
	// ErrTokenExpired means the signature verified but the clock is past
	// the embedded expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, malformed payloads and
	// missing/corrupt type tags.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims carried by every issued token.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"typ"`
}

// Codec issues and validates signed tokens. It holds no state beyond the
// signing secret and a clock.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Issue produces a signed token embedding subject, issued-at = now,
// expiry = now+ttl and the type tag. HMAC-SHA256 over header+claims.
func (c *Codec) Issue(subject string, typ TokenType, ttl time.Duration) (string, error) {
	// jti keeps tokens issued for one subject within the same second
	// distinct; iat/exp alone have second resolution
	jti := make([]byte, 16)
	if _, err := rand.Read(jti); err != nil {
		return "", fmt.Errorf("token id: %w", err)
	}
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        hex.EncodeToString(jti),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: typ,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the signature and expiry and returns the claims.
// Failure kinds stay distinguishable: ErrTokenExpired only when the
// signature verified and the token is past expiry, ErrTokenInvalid for
// everything else. A tampered token is always invalid, never expired.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) || errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrTokenInvalid
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != TypeAccess && claims.TokenType != TypeRefresh {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IsValidFor reports whether the token decodes cleanly, is unexpired and
// belongs to the given subject. Decode failures are swallowed: validity
// probes never need to know why a token was bad.
func (c *Codec) IsValidFor(tokenStr, subject string) bool {
	claims, err := c.Decode(tokenStr)
	if err != nil {
		return false
	}
	return claims.Subject == subject
}
