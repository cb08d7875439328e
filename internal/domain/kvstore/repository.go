package kvstore

import "context"

// Change is delivered to watchers of a key when another origin wrote it.
type Change struct {
	Key     string
	Value   []byte
	Removed bool
	Origin  string
}

// Repository is the durable key/value port shared by execution contexts.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	// Watch streams changes made by other origins until ctx ends.
	Watch(ctx context.Context, key string) (<-chan Change, error)
}
