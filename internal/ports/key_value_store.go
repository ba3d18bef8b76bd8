package ports

import "context"

// KeyValueStore persists small string values. Get on a missing key returns
// an error wrapping domain.ErrValueNotFound.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
