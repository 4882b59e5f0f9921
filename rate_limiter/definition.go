package rate_limiter

import (
	"fmt"
	"strings"

	"golang.org/x/time/rate"
)

// Definition configures the limiter applied to calls made to the artifact store
type Definition struct {
	// the limiter name
	Name string
	// requests per second, and the burst allowed above that
	FillRate   rate.Limit
	BucketSize int64
	// the max number of calls in flight
	MaxConcurrency int64
}

// DefaultDefinition is used when the config does not define a limiter
func DefaultDefinition() *Definition {
	return &Definition{
		Name:           "artifact_store",
		FillRate:       10,
		BucketSize:     10,
		MaxConcurrency: 4,
	}
}

func (d *Definition) String() string {
	limiterString := ""
	concurrencyString := ""
	if d.FillRate > 0 {
		limiterString = fmt.Sprintf("Limit(/s): %v, Burst: %d", d.FillRate, d.BucketSize)
	}
	if d.MaxConcurrency > 0 {
		concurrencyString = fmt.Sprintf("MaxConcurrency: %d", d.MaxConcurrency)
	}
	return strings.TrimSpace(strings.Join([]string{limiterString, concurrencyString}, " "))
}

func (d *Definition) Validate() []string {
	var validationErrors []string
	if d.Name == "" {
		validationErrors = append(validationErrors, "rate limiter definition must specify a name")
	}
	if (d.FillRate == 0 || d.BucketSize == 0) && d.MaxConcurrency == 0 {
		validationErrors = append(validationErrors, "rate limiter definition must define either a rate limit or max concurrency")
	}
	// a limiter with no burst rejects every call
	if d.FillRate > 0 && d.BucketSize == 0 {
		validationErrors = append(validationErrors, "rate limiter definition with a fill rate must have a bucket size greater than 0")
	}
	if d.FillRate < 0 || d.BucketSize < 0 || d.MaxConcurrency < 0 {
		validationErrors = append(validationErrors, "rate limiter values must not be negative")
	}

	return validationErrors
}
