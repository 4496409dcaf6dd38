package tokenstore

import "context"

// overrideStore shadows reads with a fixed token while writes keep flowing to
// the wrapped store. Used when an auth token is supplied via configuration or
// environment instead of an interactive login.
type overrideStore struct {
	token string
	next  TokenStore
}

// Compile-time check to ensure overrideStore implements TokenStore
var _ TokenStore = (*overrideStore)(nil)

// WithOverride wraps next so that Read returns token without touching the
// underlying storage. An empty token returns next unchanged.
func WithOverride(token string, next TokenStore) TokenStore {
	if token == "" {
		return next
	}
	return &overrideStore{token: token, next: next}
}

func (o *overrideStore) Read(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	return o.token, true, nil
}

func (o *overrideStore) Save(ctx context.Context, token string) error {
	return o.next.Save(ctx, token)
}

func (o *overrideStore) Clear(ctx context.Context) error {
	return o.next.Clear(ctx)
}
