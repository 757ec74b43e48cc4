package ledger

import "context"

// Store is the contract the in-memory and Redis ledgers satisfy.
//
// Increment must add value to the (email, kind, date, hour) cell as one
// atomic step. Concurrent increments to the same cell are all reflected in
// the final sum; increments to different cells must not serialize on each
// other.
type Store interface {
	CreateUser(ctx context.Context, user UserRecord) error
	GetUser(ctx context.Context, email string) (UserRecord, error)
	Increment(ctx context.Context, r Reading) error
	LedgerForDate(ctx context.Context, kind Kind, email, date string) (HourRecord, error)
	Export(ctx context.Context, email string) (UserDocument, error)
	Ping(ctx context.Context) error
	Close() error
}
