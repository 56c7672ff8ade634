// Package storage abstracts blob storage for uploaded audio files.
package storage

import "context"

// Storage is the blob store contract. PublicURL failures mean "URL not yet
// available" and are swallowed by callers, which retry on a later access.
type Storage interface {
	// Upload stores the local file under key with the given content type and
	// removes the local file on success.
	Upload(ctx context.Context, localPath, key, contentType string) error
	// Delete removes the blob for key. Missing blobs are not an error.
	Delete(ctx context.Context, key string) error
	// PublicURL returns a publicly reachable URL for key.
	PublicURL(ctx context.Context, key string) (string, error)
}
