package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/turbot/basic-cleaning/artifact"
	"github.com/turbot/basic-cleaning/dataset"
	"github.com/turbot/basic-cleaning/error_types"
	"github.com/turbot/basic-cleaning/run"
)

// Cleaner downloads a raw dataset, removes price outliers, normalises last_review
// and publishes the result as a new artifact
type Cleaner struct {
	run     *run.Run
	workDir string
}

type CleanerOption func(*Cleaner)

// WithWorkDir sets the directory the output file is written to. By default it is the working directory
func WithWorkDir(dir string) CleanerOption {
	return func(c *Cleaner) {
		c.workDir = dir
	}
}

func NewCleaner(r *run.Run, opts ...CleanerOption) *Cleaner {
	c := &Cleaner{run: r}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean runs the cleaning step, returning the ref of the committed output artifact.
// Nothing is published unless the input was downloaded, parsed and the output file written.
func (c *Cleaner) Clean(ctx context.Context, req Request) (*artifact.Ref, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := c.run.UpdateConfig(req); err != nil {
		return nil, err
	}

	info, err := c.run.UseArtifact(ctx, req.InputArtifact)
	if err != nil {
		return nil, err
	}
	inputPath, err := info.File()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", error_types.ErrMalformedInput, err)
	}

	d, err := dataset.LoadFile(inputPath)
	if err != nil {
		return nil, err
	}
	inputRows := d.Len()

	d = dataset.FilterPrice(d, req.MinPrice, req.MaxPrice)
	slog.Info("Filter price outliers outside range", "min_price", req.MinPrice, "max_price", req.MaxPrice, "rows", inputRows, "kept", d.Len())
	minPrice, maxPrice, ok := d.PriceRange()
	if ok {
		slog.Debug("Minimum price after filter", "price", minPrice)
		slog.Debug("Maximum price after filter", "price", maxPrice)
	}

	d = dataset.NormalizeLastReview(d)
	slog.Info("Format last_review to date")

	outputPath := filepath.Join(c.workDir, req.OutputArtifact)
	if err := dataset.WriteFile(outputPath, d); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}
	slog.Info("Output artifact saved", "path", outputPath)

	a := artifact.New(req.OutputArtifact, req.OutputType, req.OutputDescription)
	if err := a.AddFile(outputPath); err != nil {
		return nil, err
	}
	a.Metadata["input_artifact"] = info.Manifest.Ref.String()
	a.Metadata["input_rows"] = inputRows
	a.Metadata["output_rows"] = d.Len()
	a.Metadata["min_price"] = req.MinPrice
	a.Metadata["max_price"] = req.MaxPrice
	if ok {
		a.Metadata["observed_min_price"] = minPrice
		a.Metadata["observed_max_price"] = maxPrice
	}

	logged, err := c.run.LogArtifact(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := logged.Wait(ctx); err != nil {
		return nil, err
	}
	slog.Info("Cleaned data uploaded", "artifact", logged.Ref().String())

	ref := logged.Ref()
	return &ref, nil
}
