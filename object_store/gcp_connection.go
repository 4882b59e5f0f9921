package object_store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// GcpConnection is the `connection` block of a gcp_storage_bucket store.
// With no credentials the application default credentials are used.
type GcpConnection struct {
	// Credentials is a path to a service account key file, or the JSON key itself
	Credentials *string `hcl:"credentials"`
	// QuotaProject is billed for the requests; defaults to $GOOGLE_CLOUD_QUOTA_PROJECT
	QuotaProject *string `hcl:"quota_project"`
	// Impersonate is a service account the requests are made as
	Impersonate *string `hcl:"impersonate"`
}

func (c *GcpConnection) clientOptions(ctx context.Context) ([]option.ClientOption, error) {
	var opts []option.ClientOption

	if c.Credentials != nil {
		key, err := credentialsJSON(*c.Credentials)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(key))
	}

	quotaProject := os.Getenv("GOOGLE_CLOUD_QUOTA_PROJECT")
	if c.QuotaProject != nil {
		quotaProject = *c.QuotaProject
	}
	if quotaProject != "" {
		opts = append(opts, option.WithQuotaProject(quotaProject))
	}

	if c.Impersonate != nil {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: *c.Impersonate,
			Scopes:          []string{cloudPlatformScope},
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to impersonate %s: %w", *c.Impersonate, err)
		}
		opts = append(opts, option.WithTokenSource(ts))
	}
	return opts, nil
}

// credentialsJSON returns the service account key given either inline or as a path to a key file
func credentialsJSON(credentials string) ([]byte, error) {
	if strings.HasPrefix(strings.TrimSpace(credentials), "{") {
		return []byte(credentials), nil
	}
	path, err := homedir.Expand(credentials)
	if err != nil {
		return nil, err
	}
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading credentials file: %w", err)
	}
	return key, nil
}
