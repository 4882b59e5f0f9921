package cleaning

import (
	"fmt"
	"math"

	"github.com/turbot/basic-cleaning/artifact"
	"github.com/turbot/basic-cleaning/constants"
	"github.com/turbot/basic-cleaning/error_types"
)

// Request is the input of a cleaning run
type Request struct {
	// InputArtifact is a reference to the raw dataset, name:version_or_alias
	InputArtifact string
	// OutputArtifact is the name of the produced artifact, and the name of the file written
	OutputArtifact    string
	OutputType        string
	OutputDescription string
	// MinPrice and MaxPrice are the inclusive bounds of the price filter
	MinPrice float64
	MaxPrice float64
}

// Validate checks the request before any work is done
func (r *Request) Validate() error {
	if r.InputArtifact == "" {
		return fmt.Errorf("%w: input artifact is required", error_types.ErrInvalidArgument)
	}
	if r.OutputType == "" {
		return fmt.Errorf("%w: output type is required", error_types.ErrInvalidArgument)
	}
	// the output name is also a file name, so it must be a single path element
	outputRef := artifact.Ref{Project: constants.DefaultProject, Name: r.OutputArtifact, Version: constants.AliasLatest}
	if err := outputRef.Validate(); err != nil {
		return fmt.Errorf("invalid output artifact: %w", err)
	}
	if math.IsNaN(r.MinPrice) || math.IsNaN(r.MaxPrice) {
		return fmt.Errorf("%w: price bounds must be numbers", error_types.ErrInvalidArgument)
	}
	if r.MinPrice > r.MaxPrice {
		return fmt.Errorf("%w: min price %v is greater than max price %v", error_types.ErrInvalidArgument, r.MinPrice, r.MaxPrice)
	}
	return nil
}
