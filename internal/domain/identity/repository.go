package identity

import "context"

// Repository persists the single current-couple record of this device.
type Repository interface {
	// Current returns nil, nil when no identity has been stored yet.
	Current(ctx context.Context) (*Couple, error)
	Save(ctx context.Context, couple *Couple) error
}

// Remote is the backend pairing-status endpoint.
type Remote interface {
	PairingStatus(ctx context.Context, userID string) (*Couple, error)
}
