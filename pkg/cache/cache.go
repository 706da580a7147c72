// Package cache stores rendered layout artifacts and fetched matrices.
//
// Three backends implement [Cache]:
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: shared entries with native TTLs, for the HTTP bridge
//   - [NullCache]: never stores anything, for --no-cache
//
// Keys are built by a [Keyer] so that every caller derives the same key
// for the same inputs. [ScopedKeyer] namespaces keys per tenant.
package cache

import (
	"context"
	"time"
)

// Entry lifetimes per key type.
const (
	TTLMatrix   = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the cached bytes and whether the key was present.
	// An expired or corrupt entry is reported as a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// ArtifactKeyOpts are the render settings that affect an artifact's bytes.
type ArtifactKeyOpts struct {
	Format      string `json:"format"`
	Style       string `json:"style,omitempty"`
	RowHeight   int    `json:"row_height,omitempty"`
	ColumnWidth int    `json:"column_width,omitempty"`
	Tokens      string `json:"tokens,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// HTTPKey keys a fetched remote document.
	HTTPKey(namespace, key string) string

	// MatrixKey keys a validated matrix by the hash of its source bytes.
	MatrixKey(sourceHash string) string

	// ArtifactKey keys a rendered artifact of a matrix.
	ArtifactKey(matrixHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the unscoped [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

func (DefaultKeyer) MatrixKey(sourceHash string) string {
	return "matrix:" + sourceHash
}

func (DefaultKeyer) ArtifactKey(matrixHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", matrixHash, opts)
}
