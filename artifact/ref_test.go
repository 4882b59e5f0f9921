package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/basic-cleaning/error_types"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Ref
		wantErr bool
	}{
		{name: "name and version", input: "sample.csv:v3", want: Ref{Project: "default", Name: "sample.csv", Version: "v3"}},
		{name: "name and alias", input: "sample.csv:latest", want: Ref{Project: "default", Name: "sample.csv", Version: "latest"}},
		{name: "name only", input: "sample.csv", want: Ref{Project: "default", Name: "sample.csv", Version: "latest"}},
		{name: "project", input: "nyc_airbnb/sample.csv:reference", want: Ref{Project: "nyc_airbnb", Name: "sample.csv", Version: "reference"}},
		{name: "empty", input: "", wantErr: true},
		{name: "empty version", input: "sample.csv:", wantErr: true},
		{name: "path traversal", input: "../sample.csv", wantErr: true},
		{name: "nested path", input: "a/b/c:v0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRef(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, error_types.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRef_String(t *testing.T) {
	assert.Equal(t, "sample.csv:v1", Ref{Project: "default", Name: "sample.csv", Version: "v1"}.String())
	assert.Equal(t, "p/sample.csv:latest", Ref{Project: "p", Name: "sample.csv", Version: "latest"}.String())
}

func TestVersionNumber(t *testing.T) {
	n, ok := VersionNumber("v12")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = VersionNumber("latest")
	assert.False(t, ok)
	assert.Equal(t, "v7", VersionString(7))
}
