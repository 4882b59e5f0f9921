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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/turbot/basic-cleaning/config"
	typehelpers "github.com/turbot/go-kit/types"
	"github.com/turbot/pipe-fittings/utils"
)

func init() {
	// register store
	Factory.RegisterStores(NewAwsS3BucketStore)
}

const (
	AwsS3BucketStoreIdentifier = "aws_s3_bucket"
	defaultBucketRegion        = "us-east-1"
)

// AwsS3BucketStoreConfig is the configuration for an [AwsS3BucketStore]
type AwsS3BucketStoreConfig struct {
	Bucket     string         `hcl:"bucket"`
	Prefix     string         `hcl:"prefix,optional"`
	Region     *string        `hcl:"region"`
	Connection *AwsConnection `hcl:"connection,block"`
}

func (c *AwsS3BucketStoreConfig) Validate() error {
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if strings.HasPrefix(c.Prefix, "/") {
		return fmt.Errorf("prefix must not start with '/'")
	}
	return c.Connection.Validate()
}

// AwsS3BucketStore is a [Store] implementation that keeps objects in an S3 bucket
type AwsS3BucketStore struct {
	Config *AwsS3BucketStoreConfig
	client *s3.Client
}

func NewAwsS3BucketStore() Store {
	return &AwsS3BucketStore{}
}

func (s *AwsS3BucketStore) Init(ctx context.Context, configData *config.Data) error {
	slog.Info("Initializing AwsS3BucketStore")

	c, err := config.ParseConfig[AwsS3BucketStoreConfig](configData)
	if err != nil {
		return err
	}
	if c.Connection == nil {
		c.Connection = &AwsConnection{}
	}
	s.Config = &c
	if err := s.Config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if s.Config.Region == nil {
		slog.Info("No region set, using default", "region", defaultBucketRegion)
		s.Config.Region = utils.ToStringPointer(defaultBucketRegion)
	}

	client, err := s.Config.Connection.s3Client(ctx, *s.Config.Region)
	if err != nil {
		return fmt.Errorf("unable to create S3 client, %w", err)
	}
	s.client = client

	slog.Info("Initialized AwsS3BucketStore", "bucket", s.Config.Bucket, "prefix", s.Config.Prefix, "region", typehelpers.SafeString(s.Config.Region))
	return nil
}

func (s *AwsS3BucketStore) Identifier() string {
	return AwsS3BucketStoreIdentifier
}

func (s *AwsS3BucketStore) Close() error {
	return nil
}

func (s *AwsS3BucketStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.Config.Bucket,
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object %s, %w", key, err)
	}
	return output.Body, nil
}

func (s *AwsS3BucketStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.Config.Bucket,
		Key:           aws.String(s.objectKey(key)),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s, %w", key, err)
	}
	return nil
}

func (s *AwsS3BucketStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.Config.Bucket,
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object %s, %w", key, err)
	}
	return true, nil
}

func (s *AwsS3BucketStore) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.objectKey(prefix)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: &s.Config.Bucket,
		Prefix: &fullPrefix,
	})

	var keys []string
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get page of S3 objects, %w", err)
		}
		for _, object := range output.Contents {
			keys = append(keys, s.relativeKey(aws.ToString(object.Key)))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *AwsS3BucketStore) objectKey(key string) string {
	if s.Config.Prefix == "" {
		return key
	}
	// keep a trailing slash, it is significant for List
	res := path.Join(s.Config.Prefix, key)
	if strings.HasSuffix(key, "/") {
		res += "/"
	}
	return res
}

func (s *AwsS3BucketStore) relativeKey(objectKey string) string {
	if s.Config.Prefix == "" {
		return objectKey
	}
	return strings.TrimPrefix(objectKey, strings.TrimSuffix(s.Config.Prefix, "/")+"/")
}

func isS3NotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	// HeadObject returns a bare 404 with no body
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
