package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/devtoolkit/auth-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when the email is unknown or the
// password does not match. Callers must not reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service encapsulates directory lookups and credential verification
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// VerifyCredentials checks email+password against the directory and
// returns the matching user. Unknown email and wrong password both map
// to ErrInvalidCredentials.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureUser creates the user if it does not exist yet, hashing the
// password with bcrypt. Used for dev/test bootstrap seeding.
func (s *Service) EnsureUser(ctx context.Context, email, name, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	})
}
