package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/turbot/basic-cleaning/artifact_store"
	"github.com/turbot/basic-cleaning/cleaning"
	"github.com/turbot/basic-cleaning/config"
	"github.com/turbot/basic-cleaning/constants"
	"github.com/turbot/basic-cleaning/error_types"
	"github.com/turbot/basic-cleaning/run"
	"github.com/turbot/go-kit/helpers"
)

// cleanCmd holds the state of a single invocation
type cleanCmd struct {
	viper   *viper.Viper
	req     cleaning.Request
	started bool
}

// Build the cobra command that handles our command line tool.
func rootCommand(c *cleanCmd) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "basic-cleaning [flags]",
		Short:         "A very basic data cleaning",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.started = true
			return c.run(cmd)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&c.req.InputArtifact, "input_artifact", "", "Input artifact name")
	flags.StringVar(&c.req.OutputArtifact, "output_artifact", "", "Output artifact name")
	flags.StringVar(&c.req.OutputType, "output_type", "", "Output artifact type")
	flags.StringVar(&c.req.OutputDescription, "output_description", "", "Output artifact description")
	flags.Float64Var(&c.req.MinPrice, "min_price", 0, "Minimum price accepted")
	flags.Float64Var(&c.req.MaxPrice, "max_price", 0, "Maximum price accepted")
	for _, name := range []string{"input_artifact", "output_artifact", "output_type", "output_description", "min_price", "max_price"} {
		// only fails for an unknown flag
		_ = rootCmd.MarkFlagRequired(name)
	}

	flags.String("config", "", "Artifact store config file")
	_ = c.viper.BindPFlag("config", flags.Lookup("config"))
	_ = c.viper.BindEnv("config", constants.EnvConfigPath)

	return rootCmd
}

func (c *cleanCmd) run(cmd *cobra.Command) (err error) {
	ctx := cmd.Context()

	cfg, err := config.Load(c.viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("%w: %w", error_types.ErrInvalidArgument, err)
	}
	store, err := artifact_store.NewFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", error_types.ErrInvalidArgument, err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close artifact store", "error", closeErr)
		}
	}()

	r, err := run.New(ctx, store, constants.JobTypeBasicClean)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, r.Close(ctx, err))
	}()

	ref, err := cleaning.NewCleaner(r).Clean(ctx, c.req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ref.String())
	return nil
}

// Execute runs the command with the given arguments and returns the process exit code
func Execute(args []string) int {
	return error_types.ExitCode(execute(context.Background(), args))
}

func execute(ctx context.Context, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = helpers.ToError(r)
		}
		if err != nil {
			slog.Error("basic_cleaning failed", "error", err, "retryable", error_types.IsRetryable(err))
		}
	}()

	c := &cleanCmd{viper: viper.New()}
	rootCmd := rootCommand(c)
	rootCmd.SetArgs(args)

	err = rootCmd.ExecuteContext(ctx)
	// anything failing before the command ran is a usage error
	if err != nil && !c.started {
		err = fmt.Errorf("%w: %w", error_types.ErrInvalidArgument, err)
	}
	return err
}
