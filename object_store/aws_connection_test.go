package object_store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/basic-cleaning/config"
	"github.com/turbot/pipe-fittings/utils"
)

func TestAwsConnection_Validate(t *testing.T) {
	tests := []struct {
		name    string
		conn    AwsConnection
		wantErr bool
	}{
		{name: "empty", conn: AwsConnection{}},
		{name: "keys", conn: AwsConnection{AccessKey: utils.ToStringPointer("a"), SecretKey: utils.ToStringPointer("s")}},
		{name: "access key only", conn: AwsConnection{AccessKey: utils.ToStringPointer("a")}, wantErr: true},
		{name: "secret key only", conn: AwsConnection{SecretKey: utils.ToStringPointer("s")}, wantErr: true},
		{name: "session token only", conn: AwsConnection{SessionToken: utils.ToStringPointer("t")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conn.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAwsConnection_S3Client(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")
	t.Setenv("AWS_ENDPOINT_URL", "")
	t.Setenv("AWS_MAX_ATTEMPTS", "")

	conn := &AwsConnection{
		AccessKey:    utils.ToStringPointer("AKIA"),
		SecretKey:    utils.ToStringPointer("secret"),
		EndpointUrl:  utils.ToStringPointer("http://localhost:9000"),
		UsePathStyle: aws.Bool(true),
	}
	client, err := conn.s3Client(context.Background(), "eu-west-2")
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "eu-west-2", opts.Region)
	assert.Equal(t, "http://localhost:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
	// retries are made by the artifact store
	assert.Equal(t, 1, opts.Retryer.MaxAttempts())

	creds, err := opts.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIA", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
}

func TestAwsHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tests := map[string]httpClientSettings{
		"dns cache":    {dnsRefresh: time.Hour, maxParallelLookups: 1},
		"no dns cache": {},
	}
	for name, settings := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
			require.NoError(t, err)
			resp, err := newAwsHTTPClient(settings).Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		})
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("TEST_ENV_INT", "12")
	assert.Equal(t, 12, envInt("TEST_ENV_INT", 3))
	t.Setenv("TEST_ENV_INT", "twelve")
	assert.Equal(t, 3, envInt("TEST_ENV_INT", 3))
}

func TestAwsS3BucketStore_Init(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")

	s := &AwsS3BucketStore{}
	err := s.Init(context.Background(), config.NewData(AwsS3BucketStoreIdentifier, []byte(`
bucket = "artifacts"
prefix = "nyc_airbnb"
connection {
  access_key = "AKIA"
  secret_key = "secret"
}
`)))
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", *s.Config.Region)
	assert.Equal(t, "nyc_airbnb/default/a/v0/manifest.json", s.objectKey("default/a/v0/manifest.json"))
	assert.Equal(t, "nyc_airbnb/default/a/", s.objectKey("default/a/"))
	assert.Equal(t, "default/a/v0/manifest.json", s.relativeKey("nyc_airbnb/default/a/v0/manifest.json"))

	err = (&AwsS3BucketStore{}).Init(context.Background(), config.NewData(AwsS3BucketStoreIdentifier, []byte(`bucket = ""`)))
	assert.Error(t, err)
}
