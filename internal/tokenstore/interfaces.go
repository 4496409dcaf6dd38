package tokenstore

import "context"

// TokenStore reads and writes the CLI's single cached credential.
//
// Implementations hold at most one token at steady state; Save is an atomic
// replace of everything stored.
type TokenStore interface {
	// Read returns the stored token. ok is false when nothing is stored;
	// absence is not an error.
	Read(ctx context.Context) (token string, ok bool, err error)

	// Save atomically replaces the stored set with a single record holding
	// token. On failure the store is left unchanged.
	Save(ctx context.Context, token string) error

	// Clear deletes every stored record. Clearing an empty store succeeds.
	Clear(ctx context.Context) error
}
