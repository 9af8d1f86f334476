package storage

import "context"

// Store persists image bytes and returns a publicly reachable URL for them.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, mime string) (string, error)
}
