package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devtoolkit/auth-service/internal/users"
	"github.com/devtoolkit/auth-service/pkg/metrics"
)

// ErrAuthenticationFailed is returned by Login when the directory
// rejects the credentials.
var ErrAuthenticationFailed = errors.New("authentication failed")

// TokenPair is the result of a login or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service drives the token lifecycle: login issues a fresh pair and
// revokes the subject's prior lineage, refresh rotates the access token
// only, logout invalidates the presented token. It is the sole writer
// of Store state.
type Service struct {
	codec      *Codec
	store      Store
	users      *users.Service
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(codec *Codec, store Store, users *users.Service, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		codec:      codec,
		store:      store,
		users:      users,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Login verifies credentials against the directory, issues an access +
// refresh pair, revokes every prior valid access token for the subject
// and persists the new access record. Only access tokens are tracked
// for revocation; refresh tokens live by signature and expiry alone.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.users.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	access, err := s.codec.Issue(u.Email, TypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.Issue(u.Email, TypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	// one active lineage per subject: prior access tokens become
	// unusable even though they are still cryptographically valid
	if err := s.store.RevokeAllValid(ctx, u.Email); err != nil {
		return nil, fmt.Errorf("revoke prior tokens: %w", err)
	}
	if err := s.saveAccess(ctx, u.Email, access); err != nil {
		return nil, err
	}

	metrics.TokensIssued.WithLabelValues(string(TypeAccess)).Inc()
	metrics.TokensIssued.WithLabelValues(string(TypeRefresh)).Inc()
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates the access token for the subject of the presented
// refresh token. A missing, malformed, expired or mismatched refresh
// token is a silent no-op: (nil, nil), nothing written. The refresh
// token itself is never rotated and stays usable until its own expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, nil
	}
	if claims.TokenType != TypeRefresh {
		return nil, nil
	}

	u, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	if u == nil {
		return nil, nil
	}
	if !s.codec.IsValidFor(refreshToken, u.Email) {
		return nil, nil
	}

	access, err := s.codec.Issue(u.Email, TypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	if err := s.saveAccess(ctx, u.Email, access); err != nil {
		return nil, err
	}

	metrics.TokensIssued.WithLabelValues(string(TypeAccess)).Inc()
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// Logout invalidates the record for the presented token. Unknown or
// already-invalidated tokens are a no-op; logout never fails for an
// expired session.
func (s *Service) Logout(ctx context.Context, token string) error {
	rec, err := s.store.FindByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("find token: %w", err)
	}
	if rec == nil {
		return nil
	}
	if err := s.store.Invalidate(ctx, rec.Token); err != nil {
		return fmt.Errorf("invalidate token: %w", err)
	}
	return nil
}

func (s *Service) saveAccess(ctx context.Context, subject, access string) error {
	rec := &Record{
		Token:     access,
		TokenType: TypeAccess,
		Subject:   subject,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	return nil
}
