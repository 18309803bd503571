package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/devtoolkit/auth-service/internal/models"
	"github.com/devtoolkit/auth-service/internal/tokens"
	"github.com/devtoolkit/auth-service/pkg/logger"
	"github.com/devtoolkit/auth-service/pkg/metrics"
	"github.com/devtoolkit/auth-service/pkg/response"
	"github.com/gin-gonic/gin"
)

// principalKey is the gin context key the gate stores the authenticated
// identity under.
const principalKey = "principal"

// Principal is the authenticated subject attached to the request
// context by the gate.
type Principal struct {
	Subject string
	Name    string
	Roles   []string
}

// TokenDecoder is the minimal codec surface the gate depends on
type TokenDecoder interface {
	Decode(token string) (*tokens.Claims, error)
	IsValidFor(token, subject string) bool
}

// Directory resolves a subject to its directory record
type Directory interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// BearerToken extracts the token from an `Authorization: Bearer <token>`
// header. Second return is false when the header is absent or not
// bearer-shaped.
func BearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", false
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// CurrentPrincipal returns the identity the gate attached, if any.
func CurrentPrincipal(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

// AuthenticationGate verifies bearer access tokens on every request it
// wraps. Requests without a bearer header pass through unauthenticated;
// the route decides whether that is acceptable. Requests with a token
// are either authenticated (principal attached) or rejected outright:
// expired tokens get A003, everything else A001 without revealing
// whether the signature, subject or revocation check failed.
func AuthenticationGate(dec TokenDecoder, store tokens.Store, dir Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := dec.Decode(raw)
		if err != nil {
			if errors.Is(err, tokens.ErrTokenExpired) {
				metrics.GateRejections.WithLabelValues(response.TokenExpired.Code).Inc()
				response.AbortFail(c, response.TokenExpired, "")
				return
			}
			metrics.GateRejections.WithLabelValues(response.Unauthorized.Code).Inc()
			response.AbortFail(c, response.Unauthorized, "invalid token")
			return
		}

		// re-entrancy guard: an identity attached upstream wins
		if _, attached := CurrentPrincipal(c); attached {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		u, err := dir.GetByEmail(ctx, claims.Subject)
		if err != nil {
			logger.Errorf("gate: directory lookup failed: %v", err)
			response.AbortFail(c, response.Error, "")
			return
		}
		rec, err := store.FindByToken(ctx, raw)
		if err != nil {
			logger.Errorf("gate: token store lookup failed: %v", err)
			response.AbortFail(c, response.Error, "")
			return
		}

		tokenActive := rec != nil && rec.Active()
		if u == nil || !dec.IsValidFor(raw, u.Email) || !tokenActive {
			metrics.GateRejections.WithLabelValues(response.Unauthorized.Code).Inc()
			response.AbortFail(c, response.Unauthorized, "invalid token")
			return
		}

		c.Set(principalKey, &Principal{Subject: u.Email, Name: u.Name, Roles: u.Roles})
		c.Next()
	}
}
