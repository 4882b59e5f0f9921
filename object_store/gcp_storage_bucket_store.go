package object_store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/turbot/basic-cleaning/config"
	"google.golang.org/api/iterator"
)

func init() {
	// register store
	Factory.RegisterStores(NewGcpStorageBucketStore)
}

const GcpStorageBucketStoreIdentifier = "gcp_storage_bucket"

// GcpStorageBucketStoreConfig is the configuration for a [GcpStorageBucketStore]
type GcpStorageBucketStoreConfig struct {
	Bucket     string         `hcl:"bucket"`
	Prefix     string         `hcl:"prefix,optional"`
	Connection *GcpConnection `hcl:"connection,block"`
}

// GcpStorageBucketStore is a [Store] implementation that keeps objects in a GCP Storage bucket
type GcpStorageBucketStore struct {
	Config *GcpStorageBucketStoreConfig
	client *storage.Client
}

func NewGcpStorageBucketStore() Store {
	return &GcpStorageBucketStore{}
}

func (s *GcpStorageBucketStore) Init(ctx context.Context, configData *config.Data) error {
	c, err := config.ParseConfig[GcpStorageBucketStoreConfig](configData)
	if err != nil {
		return err
	}
	if c.Connection == nil {
		c.Connection = &GcpConnection{}
	}
	s.Config = &c

	if s.Config.Bucket == "" {
		return errors.New("invalid config: bucket is required")
	}

	opts, err := s.Config.Connection.clientOptions(ctx)
	if err != nil {
		return fmt.Errorf("failed setting GCP Storage client config: %w", err)
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create GCP Storage client: %w", err)
	}
	s.client = client

	slog.Info("Initialized GcpStorageBucketStore", "bucket", s.Config.Bucket, "prefix", s.Config.Prefix)
	return nil
}

func (s *GcpStorageBucketStore) Identifier() string {
	return GcpStorageBucketStoreIdentifier
}

func (s *GcpStorageBucketStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *GcpStorageBucketStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.Config.Bucket).Object(s.objectKey(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object reader: %w", err)
	}
	return reader, nil
}

// Put writes the object. GCS only makes the object visible once the writer is closed successfully,
// so a failed copy cancels the upload rather than closing the writer
func (s *GcpStorageBucketStore) Put(ctx context.Context, key string, r io.Reader, _ int64) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := s.client.Bucket(s.Config.Bucket).Object(s.objectKey(key)).NewWriter(ctx)
	if _, err := io.Copy(writer, r); err != nil {
		cancel()
		// returns the cancellation error; the object is not created
		_ = writer.Close()
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	return nil
}

func (s *GcpStorageBucketStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.Bucket(s.Config.Bucket).Object(s.objectKey(key)).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get object attributes: %w", err)
	}
	return true, nil
}

func (s *GcpStorageBucketStore) List(ctx context.Context, prefix string) ([]string, error) {
	query := &storage.Query{Prefix: s.objectKey(prefix)}

	var keys []string
	objectIterator := s.client.Bucket(s.Config.Bucket).Objects(ctx, query)
	for {
		obj, err := objectIterator.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("failed to list objects in bucket: %w", err)
		}
		keys = append(keys, s.relativeKey(obj.Name))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *GcpStorageBucketStore) objectKey(key string) string {
	if s.Config.Prefix == "" {
		return key
	}
	res := path.Join(s.Config.Prefix, key)
	if strings.HasSuffix(key, "/") {
		res += "/"
	}
	return res
}

func (s *GcpStorageBucketStore) relativeKey(objectName string) string {
	if s.Config.Prefix == "" {
		return objectName
	}
	return strings.TrimPrefix(objectName, strings.TrimSuffix(s.Config.Prefix, "/")+"/")
}
