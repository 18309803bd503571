package tokens

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateToken is returned by Save when a record with the same
// token string already exists. Codec entropy makes this near impossible
// but the store still reports it rather than assuming.
var ErrDuplicateToken = errors.New("token already exists")

// Record is the persisted server-side state of an issued access token.
// Records are created by issuance and never deleted; invalidation only
// flips the flags, the token string itself is immutable.
type Record struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Token     string    `bson:"token" json:"token"`
	TokenType TokenType `bson:"tokenType" json:"tokenType"`
	Expired   bool      `bson:"expired" json:"expired"`
	Revoked   bool      `bson:"revoked" json:"revoked"`
	Subject   string    `bson:"subject" json:"subject"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Active reports whether the record still admits its token.
func (r *Record) Active() bool {
	return !r.Expired && !r.Revoked
}

// Store persists token records. Implementations must be safe for
// concurrent use from multiple request handlers.
type Store interface {
	// FindByToken returns the record for the literal token string, or
	// (nil, nil) when absent.
	FindByToken(ctx context.Context, token string) (*Record, error)

	// FindAllValid returns every record for subject that is neither
	// expired nor revoked.
	FindAllValid(ctx context.Context, subject string) ([]*Record, error)

	// Save inserts a new record. ErrDuplicateToken when the token string
	// is already present.
	Save(ctx context.Context, rec *Record) error

	// Invalidate sets expired and revoked on the matching record.
	// Idempotent: absent or already-invalidated records are a no-op.
	Invalidate(ctx context.Context, token string) error

	// RevokeAllValid invalidates every currently-valid record belonging
	// to subject. Scopes only to rows existing at call time; a record
	// saved afterwards is untouched.
	RevokeAllValid(ctx context.Context, subject string) error
}
