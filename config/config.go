package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/mitchellh/go-homedir"
	"github.com/turbot/basic-cleaning/constants"
	"github.com/turbot/basic-cleaning/rate_limiter"
	"github.com/turbot/pipe-fittings/error_helpers"
	"golang.org/x/time/rate"
)

// Config is the resolved configuration of the artifact store connection
type Config struct {
	Project     string
	CallTimeout time.Duration
	WaitTimeout time.Duration
	TmpDir      string
	Store       *Data
	RateLimit   *rate_limiter.Definition
	Retry       *rate_limiter.Backoff
}

// fileConfig is the HCL schema of the config file
type fileConfig struct {
	Project     *string         `hcl:"project"`
	Timeout     *int            `hcl:"timeout"`
	WaitTimeout *int            `hcl:"wait_timeout"`
	TmpDir      *string         `hcl:"tmp_dir"`
	Store       *storeBlock     `hcl:"store,block"`
	RateLimit   *rateLimitBlock `hcl:"rate_limit,block"`
	Retry       *retryBlock     `hcl:"retry,block"`
}

type storeBlock struct {
	Type string   `hcl:"type,label"`
	Body hcl.Body `hcl:",remain"`
}

type rateLimitBlock struct {
	FillRate       *float64 `hcl:"fill_rate"`
	BucketSize     *int64   `hcl:"bucket_size"`
	MaxConcurrency *int64   `hcl:"max_concurrency"`
}

// retryBlock delays are in milliseconds
type retryBlock struct {
	MaxAttempts *int `hcl:"max_attempts"`
	MinDelay    *int `hcl:"min_delay"`
	MaxDelay    *int `hcl:"max_delay"`
}

// Default returns the config used when no config file is given:
// a file_system store rooted at $BASIC_CLEANING_STORE_ROOT, or the default store root
func Default() *Config {
	root := os.Getenv(constants.EnvStoreRoot)
	if root == "" {
		root = constants.DefaultStoreRoot
	}
	return &Config{
		Project:     constants.DefaultProject,
		CallTimeout: constants.DefaultCallTimeout,
		WaitTimeout: constants.DefaultWaitTimeout,
		TmpDir:      constants.BaseTmpDir,
		Store:       NewData("file_system", []byte(fmt.Sprintf("root = %q", root))),
		RateLimit:   rate_limiter.DefaultDefinition(),
		Retry:       rate_limiter.DefaultBackoff(),
	}
}

// Load reads the config file at path. An empty path falls back to $BASIC_CLEANING_CONFIG,
// and if that is not set the default config is returned
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(constants.EnvConfigPath)
	}
	if path == "" {
		return Default(), nil
	}

	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(src, path)
}

// Parse parses config file contents, applying defaults for anything not set
func Parse(src []byte, filename string) (*Config, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, error_helpers.HclDiagsToError("failed to parse config", diags)
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &fc); diags.HasErrors() {
		return nil, error_helpers.HclDiagsToError("failed to parse config", diags)
	}

	c := Default()
	if fc.Project != nil {
		c.Project = *fc.Project
	}
	if fc.Timeout != nil {
		if *fc.Timeout <= 0 {
			return nil, fmt.Errorf("timeout must be greater than 0")
		}
		c.CallTimeout = time.Duration(*fc.Timeout) * time.Second
	}
	if fc.WaitTimeout != nil {
		if *fc.WaitTimeout <= 0 {
			return nil, fmt.Errorf("wait_timeout must be greater than 0")
		}
		c.WaitTimeout = time.Duration(*fc.WaitTimeout) * time.Second
	}
	if fc.TmpDir != nil {
		c.TmpDir = *fc.TmpDir
	}
	if fc.Store != nil {
		c.Store = storeData(file, filename, fc.Store.Type)
	}
	if fc.RateLimit != nil {
		if fc.RateLimit.FillRate != nil {
			c.RateLimit.FillRate = rate.Limit(*fc.RateLimit.FillRate)
		}
		if fc.RateLimit.BucketSize != nil {
			c.RateLimit.BucketSize = *fc.RateLimit.BucketSize
		}
		if fc.RateLimit.MaxConcurrency != nil {
			c.RateLimit.MaxConcurrency = *fc.RateLimit.MaxConcurrency
		}
		if validationErrors := c.RateLimit.Validate(); len(validationErrors) > 0 {
			return nil, fmt.Errorf("invalid rate_limit: %v", validationErrors)
		}
	}
	if fc.Retry != nil {
		if fc.Retry.MaxAttempts != nil {
			c.Retry.MaxAttempts = *fc.Retry.MaxAttempts
		}
		if fc.Retry.MinDelay != nil {
			c.Retry.MinDelay = time.Duration(*fc.Retry.MinDelay) * time.Millisecond
		}
		if fc.Retry.MaxDelay != nil {
			c.Retry.MaxDelay = time.Duration(*fc.Retry.MaxDelay) * time.Millisecond
		}
		if validationErrors := c.Retry.Validate(); len(validationErrors) > 0 {
			return nil, fmt.Errorf("invalid retry: %v", validationErrors)
		}
	}
	return c, nil
}

// storeData extracts the raw HCL between the braces of the store block,
// so the store can decode it into its own config type
func storeData(file *hcl.File, filename, storeType string) *Data {
	for _, block := range file.Body.(*hclsyntax.Body).Blocks {
		if block.Type != "store" {
			continue
		}
		start := block.OpenBraceRange.End
		end := block.CloseBraceRange.Start
		return &Data{
			Type:       storeType,
			ConfigData: file.Bytes[start.Byte:end.Byte],
			Filename:   filename,
			Pos:        start,
		}
	}
	return nil
}
