package ledger

import "context"

type Repository interface {
	Append(ctx context.Context, t *Transaction) error
	// ListByUser returns the user's transactions oldest first.
	ListByUser(ctx context.Context, userID string) ([]*Transaction, error)
	Sum(ctx context.Context, userID string) (int64, error)
	// Upsert inserts the transactions or marks existing ids confirmed.
	Upsert(ctx context.Context, txns []*Transaction) error
	Delete(ctx context.Context, ids []string) error
}

// Remote is the backend ledger endpoint.
type Remote interface {
	FetchLedger(ctx context.Context, userID string) (*Snapshot, error)
	PushLedger(ctx context.Context, userID string, txns []*Transaction) error
}
