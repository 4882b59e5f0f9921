package events

import (
	"github.com/turbot/basic-cleaning/artifact"
)

// ArtifactResolved is raised when a reference has been resolved to a committed manifest
type ArtifactResolved struct {
	Base
	RunId     string
	Requested artifact.Ref
	Manifest  *artifact.Manifest
}

func NewArtifactResolvedEvent(runId string, requested artifact.Ref, manifest *artifact.Manifest) *ArtifactResolved {
	return &ArtifactResolved{
		RunId:     runId,
		Requested: requested,
		Manifest:  manifest,
	}
}

// ArtifactDownloaded is raised when the files of an artifact have been downloaded and verified
type ArtifactDownloaded struct {
	Base
	RunId string
	Info  *artifact.DownloadedArtifactInfo
}

func NewArtifactDownloadedEvent(runId string, info *artifact.DownloadedArtifactInfo) *ArtifactDownloaded {
	return &ArtifactDownloaded{
		RunId: runId,
		Info:  info,
	}
}

// ArtifactPublished is raised when the files and manifest of a new version have been written
type ArtifactPublished struct {
	Base
	RunId    string
	Manifest *artifact.Manifest
}

func NewArtifactPublishedEvent(runId string, manifest *artifact.Manifest) *ArtifactPublished {
	return &ArtifactPublished{
		RunId:    runId,
		Manifest: manifest,
	}
}

// ArtifactCommitted is raised once the store confirms a published version is visible
type ArtifactCommitted struct {
	Base
	RunId string
	Ref   artifact.Ref
}

func NewArtifactCommittedEvent(runId string, ref artifact.Ref) *ArtifactCommitted {
	return &ArtifactCommitted{
		RunId: runId,
		Ref:   ref,
	}
}
