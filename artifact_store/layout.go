package artifact_store

import (
	"path"
	"strings"

	"github.com/turbot/basic-cleaning/artifact"
	"github.com/turbot/basic-cleaning/constants"
)

// object layout within the object store:
//
//	<project>/<name>/<version>/files/<file>
//	<project>/<name>/<version>/manifest.json
//	<project>/<name>/aliases/<alias>.json
//	<project>/runs/<run_id>.json
//
// the manifest is written last and is the commit point of a version

func artifactPrefix(ref artifact.Ref) string {
	return path.Join(ref.Project, ref.Name) + "/"
}

func manifestKey(ref artifact.Ref) string {
	return path.Join(ref.Project, ref.Name, ref.Version, constants.ManifestFileName)
}

func fileKey(ref artifact.Ref, fileName string) string {
	return path.Join(ref.Project, ref.Name, ref.Version, "files", fileName)
}

func aliasKey(ref artifact.Ref, alias string) string {
	return path.Join(ref.Project, ref.Name, "aliases", alias+".json")
}

func runKey(project, runId string) string {
	return path.Join(project, "runs", runId+".json")
}

// versionFromManifestKey returns the version number of a manifest key under the artifact prefix
func versionFromManifestKey(prefix, key string) (int, bool) {
	rest := strings.TrimPrefix(key, prefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != constants.ManifestFileName {
		return 0, false
	}
	return artifact.VersionNumber(parts[0])
}
