package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/basic-cleaning/artifact"
	"github.com/turbot/basic-cleaning/artifact_store"
	"github.com/turbot/basic-cleaning/config"
	"github.com/turbot/basic-cleaning/constants"
	"github.com/turbot/basic-cleaning/error_types"
)

// setup points the default store at a temp dir, seeds it with sample.csv and
// changes to a temp working directory
func setup(t *testing.T) string {
	t.Helper()
	t.Setenv(constants.EnvStoreRoot, t.TempDir())
	t.Setenv(constants.EnvConfigPath, "")

	ctx := context.Background()
	cfg := config.Default()
	cfg.TmpDir = t.TempDir()
	store, err := artifact_store.NewFromConfig(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()

	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,price,last_review\n1,50,2019-01-01\n2,5000,x\n3,100,\n"), 0644))
	a := artifact.New("sample.csv", "raw_data", "raw data")
	require.NoError(t, a.AddFile(path))
	_, err = store.Publish(ctx, a, nil)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func args(overrides ...string) []string {
	res := []string{
		"--input_artifact", "sample.csv:latest",
		"--output_artifact", "clean_sample.csv",
		"--output_type", "clean_sample",
		"--output_description", "Data with outliers and null values removed",
		"--min_price", "10",
		"--max_price", "350",
	}
	return append(res, overrides...)
}

func TestExecute(t *testing.T) {
	dir := setup(t)

	assert.Equal(t, error_types.ExitCodeSuccess, Execute(args()))

	data, err := os.ReadFile(filepath.Join(dir, "clean_sample.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,price,last_review\n1,50,2019-01-01\n3,100,\n", string(data))
}

func TestExecute_Failures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{
			name: "missing required flag",
			args: []string{"--input_artifact", "sample.csv:latest"},
			want: error_types.ExitCodeInvalidArgument,
		},
		{
			name: "non numeric price",
			args: args("--min_price", "ten"),
			want: error_types.ExitCodeInvalidArgument,
		},
		{
			name: "min greater than max",
			args: args("--min_price", "500"),
			want: error_types.ExitCodeInvalidArgument,
		},
		{
			name: "input not found",
			args: args("--input_artifact", "missing.csv:latest"),
			want: error_types.ExitCodeFailure,
		},
		{
			name: "input reference unparsable",
			args: args("--input_artifact", "sample csv:latest"),
			want: error_types.ExitCodeFailure,
		},
		{
			name: "missing config file",
			args: args("--config", "does-not-exist.hcl"),
			want: error_types.ExitCodeInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setup(t)
			assert.Equal(t, tt.want, Execute(tt.args))
			assert.NoFileExists(t, filepath.Join(dir, "clean_sample.csv"))
		})
	}
}
