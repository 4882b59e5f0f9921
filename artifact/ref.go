package artifact

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/turbot/basic-cleaning/constants"
	"github.com/turbot/basic-cleaning/error_types"
)

var (
	namePattern    = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
	versionPattern = regexp.MustCompile(`^v(\d+)$`)
)

// Ref identifies an artifact revision, in the form [project/]name[:version_or_alias]
type Ref struct {
	Project string `json:"project"`
	Name    string `json:"name"`
	// Version is either a version (v0, v1...) or an alias (latest, reference...)
	Version string `json:"version"`
}

// ParseRef parses an artifact reference.
// If no project is given the default project is used, if no version is given the latest alias is used
func ParseRef(s string) (Ref, error) {
	ref := Ref{Project: constants.DefaultProject, Version: constants.AliasLatest}

	rest := strings.TrimSpace(s)
	if idx := strings.Index(rest, "/"); idx != -1 {
		ref.Project, rest = rest[:idx], rest[idx+1:]
	}
	if idx := strings.LastIndex(rest, ":"); idx != -1 {
		ref.Name, ref.Version = rest[:idx], rest[idx+1:]
	} else {
		ref.Name = rest
	}

	if err := ref.Validate(); err != nil {
		return Ref{}, fmt.Errorf("invalid artifact reference %q: %w", s, err)
	}
	return ref, nil
}

// Validate checks each part of the reference is a valid path segment
func (r Ref) Validate() error {
	for _, part := range []struct{ kind, value string }{
		{"project", r.Project},
		{"name", r.Name},
		{"version", r.Version},
	} {
		if !namePattern.MatchString(part.value) || part.value == "." || part.value == ".." {
			return fmt.Errorf("%w: invalid %s '%s'", error_types.ErrInvalidArgument, part.kind, part.value)
		}
	}
	return nil
}

// IsVersion returns whether the ref points at a concrete version rather than an alias
func (r Ref) IsVersion() bool {
	return versionPattern.MatchString(r.Version)
}

// WithVersion returns a copy of the ref pointing at the given version or alias
func (r Ref) WithVersion(version string) Ref {
	r.Version = version
	return r
}

func (r Ref) String() string {
	if r.Project == constants.DefaultProject {
		return fmt.Sprintf("%s:%s", r.Name, r.Version)
	}
	return fmt.Sprintf("%s/%s:%s", r.Project, r.Name, r.Version)
}

// VersionString returns the version string for a version number
func VersionString(n int) string {
	return "v" + strconv.Itoa(n)
}

// VersionNumber parses a version string, returning false if it is not a version
func VersionNumber(version string) (int, bool) {
	m := versionPattern.FindStringSubmatch(version)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
