package tokens

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoTestCollection connects to a local MongoDB (or MONGODB_TEST_URI)
// and hands back a throwaway collection. Skips when no server is
// reachable so the suite stays runnable without infrastructure.
func mongoTestCollection(t *testing.T) *mongo.Collection {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("mongo unavailable: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	col := client.Database("authsvc_test").Collection(fmt.Sprintf("tokens_%d", time.Now().UnixNano()))
	t.Cleanup(func() { _ = col.Drop(context.Background()) })
	return col
}

func TestMongoStore_RevokeAllValidScoping(t *testing.T) {
	col := mongoTestCollection(t)
	s := NewMongoStore(col)
	ctx := context.Background()

	for _, tok := range []string{"a1", "a2"} {
		if err := s.Save(ctx, &Record{Token: tok, TokenType: TypeAccess, Subject: "alice@example.com"}); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}
	if err := s.Save(ctx, &Record{Token: "b1", TokenType: TypeAccess, Subject: "bob@example.com"}); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if err := s.RevokeAllValid(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RevokeAllValid error: %v", err)
	}

	valid, err := s.FindAllValid(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindAllValid error: %v", err)
	}
	if len(valid) != 0 {
		t.Fatalf("expected no valid records, got %d", len(valid))
	}

	// other subjects untouched
	bobs, err := s.FindAllValid(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("FindAllValid error: %v", err)
	}
	if len(bobs) != 1 {
		t.Fatalf("bob's records affected: %d valid", len(bobs))
	}

	// the UpdateMany filter pins the sweep to rows valid at call time:
	// a record saved afterwards stays valid
	if err := s.Save(ctx, &Record{Token: "a3", TokenType: TypeAccess, Subject: "alice@example.com"}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	valid, err = s.FindAllValid(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindAllValid error: %v", err)
	}
	if len(valid) != 1 || valid[0].Token != "a3" {
		t.Fatalf("record saved after the sweep should remain valid: %+v", valid)
	}
}

func TestMongoStore_UniqueTokenIndex(t *testing.T) {
	col := mongoTestCollection(t)
	s := NewMongoStore(col)
	ctx := context.Background()

	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes error: %v", err)
	}
	if err := s.Save(ctx, &Record{Token: "dup", TokenType: TypeAccess, Subject: "a"}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	err := s.Save(ctx, &Record{Token: "dup", TokenType: TypeAccess, Subject: "b"})
	if !errors.Is(err, ErrDuplicateToken) {
		t.Fatalf("err = %v, want ErrDuplicateToken", err)
	}
}

func TestMongoStore_InvalidateIdempotent(t *testing.T) {
	col := mongoTestCollection(t)
	s := NewMongoStore(col)
	ctx := context.Background()

	if err := s.Save(ctx, &Record{Token: "t1", TokenType: TypeAccess, Subject: "a"}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := s.Invalidate(ctx, "t1"); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}
	if err := s.Invalidate(ctx, "t1"); err != nil {
		t.Fatalf("second Invalidate error: %v", err)
	}
	if err := s.Invalidate(ctx, "missing"); err != nil {
		t.Fatalf("Invalidate of absent token error: %v", err)
	}

	rec, err := s.FindByToken(ctx, "t1")
	if err != nil {
		t.Fatalf("FindByToken error: %v", err)
	}
	if rec == nil || !rec.Expired || !rec.Revoked {
		t.Fatalf("flags not set: %+v", rec)
	}
}
