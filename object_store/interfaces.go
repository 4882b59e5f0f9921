package object_store

import (
	"context"
	"errors"
	"io"

	"github.com/turbot/basic-cleaning/config"
)

// ErrObjectNotFound is returned by a Store when the requested key does not exist
var ErrObjectNotFound = errors.New("object not found")

// Store is an interface providing blob storage for the artifact store.
// Keys are slash separated paths relative to the root/prefix of the store.
// Stores provided: [FileSystemStore], [AwsS3BucketStore], [GcpStorageBucketStore]
type Store interface {
	Identifier() string

	// Init is called when the store is created
	// it is responsible for parsing the store config and creating any client
	Init(ctx context.Context, configData *config.Data) error

	// Get returns a reader for the object with the given key, or ErrObjectNotFound
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Put writes an object. The object must not be visible to Get until it is completely written
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Exists(ctx context.Context, key string) (bool, error)
	// List returns the keys of all objects with the given prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)

	Close() error
}
