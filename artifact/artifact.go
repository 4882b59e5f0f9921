package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Artifact is a new artifact which has not yet been published.
// Once published the files are immutable; republishing creates a new version
type Artifact struct {
	Name        string
	Type        string
	Description string
	Metadata    map[string]any
	// Aliases are applied to the published version in addition to latest
	Aliases []string
	Files   []*LocalFile
}

// LocalFile is a file on the local file system which is to be added to an artifact
type LocalFile struct {
	// Name is the name of the file within the artifact
	Name string
	Path string
}

func New(name, artifactType, description string) *Artifact {
	return &Artifact{
		Name:        name,
		Type:        artifactType,
		Description: description,
		Metadata:    make(map[string]any),
	}
}

// AddFile adds a local file to the artifact, named by its base name
func (a *Artifact) AddFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error adding file to artifact %s: %w", a.Name, err)
	}
	if info.IsDir() {
		return fmt.Errorf("error adding file to artifact %s: %s is a directory", a.Name, path)
	}
	name := filepath.Base(path)
	for _, f := range a.Files {
		if f.Name == name {
			return fmt.Errorf("artifact %s already contains a file named %s", a.Name, name)
		}
	}
	a.Files = append(a.Files, &LocalFile{Name: name, Path: path})
	return nil
}

func (a *Artifact) Validate() error {
	if a.Type == "" {
		return fmt.Errorf("artifact %s has no type", a.Name)
	}
	if len(a.Files) == 0 {
		return fmt.Errorf("artifact %s has no files", a.Name)
	}
	ref := Ref{Project: "p", Name: a.Name, Version: "v0"}
	for _, alias := range a.Aliases {
		ref.Version = alias
		if err := ref.Validate(); err != nil {
			return err
		}
		if ref.IsVersion() {
			return fmt.Errorf("alias '%s' of artifact %s looks like a version", alias, a.Name)
		}
	}
	return ref.WithVersion("v0").Validate()
}
