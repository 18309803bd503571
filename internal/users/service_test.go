package users

import (
	"context"
	"errors"
	"testing"
)

func TestVerifyCredentials_RoundTrip(t *testing.T) {
	repo := NewMemoryUserRepository()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.EnsureUser(ctx, "alice@example.com", "Alice", "s3cret-pw")
	if err != nil {
		t.Fatalf("EnsureUser error: %v", err)
	}
	if created.PasswordHash == "s3cret-pw" {
		t.Fatal("password stored in plain text")
	}

	u, err := svc.VerifyCredentials(ctx, "alice@example.com", "s3cret-pw")
	if err != nil {
		t.Fatalf("VerifyCredentials error: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestVerifyCredentials_WrongPassword(t *testing.T) {
	repo := NewMemoryUserRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.EnsureUser(ctx, "bob@example.com", "Bob", "correct"); err != nil {
		t.Fatalf("EnsureUser error: %v", err)
	}

	_, err := svc.VerifyCredentials(ctx, "bob@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyCredentials_UnknownEmail(t *testing.T) {
	svc := NewService(NewMemoryUserRepository())

	_, err := svc.VerifyCredentials(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestEnsureUser_Idempotent(t *testing.T) {
	repo := NewMemoryUserRepository()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.EnsureUser(ctx, "carol@example.com", "Carol", "pw-one")
	if err != nil {
		t.Fatalf("EnsureUser error: %v", err)
	}
	second, err := svc.EnsureUser(ctx, "carol@example.com", "Carol", "pw-two")
	if err != nil {
		t.Fatalf("EnsureUser second call error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("second EnsureUser created a new user: %q vs %q", first.ID, second.ID)
	}
	// original password still the valid one
	if _, err := svc.VerifyCredentials(ctx, "carol@example.com", "pw-one"); err != nil {
		t.Fatalf("original password rejected: %v", err)
	}
}
