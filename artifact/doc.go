// Package artifact provides the types describing versioned artifacts:
//   - Ref: a reference to an artifact version or alias, [project/]name[:version_or_alias]
//   - Artifact: a new artifact to be published, with its local files
//   - Manifest: the record of a published version, including its lineage
package artifact
