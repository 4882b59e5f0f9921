package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"
)

type State string

const (
	StateCommitted State = "committed"
)

// Manifest describes a published artifact version.
// It is written after all files have been uploaded, so a visible committed manifest
// means the version is complete
type Manifest struct {
	Ref         Ref            `json:"ref"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Aliases     []string       `json:"aliases,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Files       []*FileEntry   `json:"files"`
	// UsedArtifacts is the lineage of the artifact - the inputs of the run which produced it
	UsedArtifacts []Ref     `json:"used_artifacts,omitempty"`
	RunId         string    `json:"run_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	State         State     `json:"state"`
}

type FileEntry struct {
	Name   string `json:"name"`
	Digest string `json:"digest"`
	Size   int64  `json:"size"`
}

func (m *Manifest) File(name string) (*FileEntry, bool) {
	for _, f := range m.Files {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// DownloadedArtifactInfo contains the resolved manifest of an artifact and the local paths of its files
type DownloadedArtifactInfo struct {
	Manifest *Manifest
	// LocalDir is the directory the files were downloaded to
	LocalDir string
	// LocalNames maps file name to local path
	LocalNames map[string]string
}

// File returns the local path of the only file of the artifact,
// or an error if the artifact does not have exactly one file
func (d *DownloadedArtifactInfo) File() (string, error) {
	if len(d.Manifest.Files) != 1 {
		return "", fmt.Errorf("artifact %s has %d files, expected 1", d.Manifest.Ref, len(d.Manifest.Files))
	}
	return d.LocalNames[d.Manifest.Files[0].Name], nil
}

// FileDigest returns the sha256 digest and size of a local file
func FileDigest(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), size, nil
}
