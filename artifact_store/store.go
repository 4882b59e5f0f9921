package artifact_store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/turbot/basic-cleaning/artifact"
	"github.com/turbot/basic-cleaning/config"
	"github.com/turbot/basic-cleaning/constants"
	"github.com/turbot/basic-cleaning/context_values"
	"github.com/turbot/basic-cleaning/error_types"
	"github.com/turbot/basic-cleaning/events"
	"github.com/turbot/basic-cleaning/object_store"
	"github.com/turbot/basic-cleaning/observable"
	"github.com/turbot/basic-cleaning/rate_limiter"
	"golang.org/x/time/rate"
)

// ArtifactStore tracks versioned artifacts, their aliases and lineage, on top of an object store.
// Published versions are immutable: publishing always creates a new version.
type ArtifactStore struct {
	observable.ObservableImpl

	objects      object_store.Store
	project      string
	callTimeout  time.Duration
	waitTimeout  time.Duration
	pollInterval time.Duration
	tmpDir       string
	limiter      *rate_limiter.APILimiter
	retry        *rate_limiter.Backoff

	// downloadDir is created under tmpDir on the first download and removed by Close
	downloadDir string
}

func New(objects object_store.Store, opts ...StoreOption) *ArtifactStore {
	s := &ArtifactStore{
		objects:      objects,
		project:      constants.DefaultProject,
		callTimeout:  constants.DefaultCallTimeout,
		waitTimeout:  constants.DefaultWaitTimeout,
		pollInterval: constants.DefaultPollInterval,
		tmpDir:       constants.BaseTmpDir,
		limiter:      rate_limiter.NewAPILimiter(rate_limiter.DefaultDefinition()),
		retry:        rate_limiter.DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig creates the object store described by the config and wraps it in an ArtifactStore
func NewFromConfig(ctx context.Context, c *config.Config) (*ArtifactStore, error) {
	objects, err := object_store.Factory.GetStore(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	return New(objects,
		WithProject(c.Project),
		WithCallTimeout(c.CallTimeout),
		WithWaitTimeout(c.WaitTimeout),
		WithTmpDir(c.TmpDir),
		WithRateLimiter(c.RateLimit),
		WithRetry(c.Retry),
	), nil
}

func (s *ArtifactStore) Project() string {
	return s.project
}

// Close closes the object store and removes any downloaded files
func (s *ArtifactStore) Close() error {
	err := s.objects.Close()
	if s.downloadDir != "" {
		err = errors.Join(err, os.RemoveAll(s.downloadDir))
		s.downloadDir = ""
	}
	return err
}

// ParseRef parses an artifact reference, using the project of the store if none is given
func (s *ArtifactStore) ParseRef(ref string) (artifact.Ref, error) {
	res, err := artifact.ParseRef(ref)
	if err != nil {
		return res, err
	}
	if res.Project == constants.DefaultProject {
		res.Project = s.project
	}
	return res, nil
}

// Resolve resolves a reference (by version or alias) to the manifest of a committed version
func (s *ArtifactStore) Resolve(ctx context.Context, ref artifact.Ref) (*artifact.Manifest, error) {
	version := ref.Version
	if !ref.IsVersion() {
		var target aliasTarget
		if err := s.getJSON(ctx, aliasKey(ref, ref.Version), &target); err != nil {
			return nil, s.notFound(ref, err)
		}
		version = target.Version
	}

	var manifest artifact.Manifest
	if err := s.getJSON(ctx, manifestKey(ref.WithVersion(version)), &manifest); err != nil {
		return nil, s.notFound(ref, err)
	}
	if manifest.State != artifact.StateCommitted {
		return nil, fmt.Errorf("%w: %s is not committed", error_types.ErrArtifactNotFound, ref)
	}

	slog.Debug("Resolved artifact", "ref", ref.String(), "version", manifest.Ref.Version)
	if err := s.NotifyObservers(ctx, events.NewArtifactResolvedEvent(runId(ctx), ref, &manifest)); err != nil {
		return nil, fmt.Errorf("error notifying observers of resolved artifact: %w", err)
	}
	return &manifest, nil
}

// Download resolves a reference and downloads all files of the version to the local tmp dir,
// verifying each against the digest recorded in the manifest
func (s *ArtifactStore) Download(ctx context.Context, ref artifact.Ref) (*artifact.DownloadedArtifactInfo, error) {
	manifest, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if s.downloadDir == "" {
		if err := os.MkdirAll(s.tmpDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create tmp dir, %w", err)
		}
		if s.downloadDir, err = os.MkdirTemp(s.tmpDir, "download-*"); err != nil {
			return nil, fmt.Errorf("failed to create download dir, %w", err)
		}
	}
	localDir := filepath.Join(s.downloadDir, manifest.Ref.Project, manifest.Ref.Name, manifest.Ref.Version)
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for artifact, %w", err)
	}

	info := &artifact.DownloadedArtifactInfo{
		Manifest:   manifest,
		LocalDir:   localDir,
		LocalNames: make(map[string]string),
	}
	for _, f := range manifest.Files {
		localPath := filepath.Join(localDir, f.Name)
		if err := s.downloadFile(ctx, fileKey(manifest.Ref, f.Name), localPath); err != nil {
			return nil, s.notFound(manifest.Ref, err)
		}
		digest, _, err := artifact.FileDigest(localPath)
		if err != nil {
			return nil, err
		}
		if digest != f.Digest {
			return nil, fmt.Errorf("%w: digest mismatch for %s of %s", error_types.ErrStoreUnavailable, f.Name, manifest.Ref)
		}
		info.LocalNames[f.Name] = localPath
	}

	slog.Info("Downloaded artifact", "ref", manifest.Ref.String(), "files", len(manifest.Files), "dir", localDir)
	if err := s.NotifyObservers(ctx, events.NewArtifactDownloadedEvent(runId(ctx), info)); err != nil {
		return nil, fmt.Errorf("error notifying observers of downloaded artifact: %w", err)
	}
	return info, nil
}

// Publish uploads the files of a new artifact as the next version, then writes its manifest and
// moves the latest alias (and any aliases of the artifact) to it.
// usedArtifacts is recorded in the manifest as the lineage of the new version.
func (s *ArtifactStore) Publish(ctx context.Context, a *artifact.Artifact, usedArtifacts []artifact.Ref) (*artifact.Manifest, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", error_types.ErrInvalidArgument, err)
	}

	// digest the files before anything is written
	var files []*artifact.FileEntry
	for _, f := range a.Files {
		digest, size, err := artifact.FileDigest(f.Path)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", f.Path, err)
		}
		files = append(files, &artifact.FileEntry{Name: f.Name, Digest: digest, Size: size})
	}

	base := artifact.Ref{Project: s.project, Name: a.Name}
	version, err := s.nextVersion(ctx, base)
	if err != nil {
		return nil, err
	}
	ref := base.WithVersion(artifact.VersionString(version))

	// versions are immutable; another publisher may have taken this version since it was listed
	var exists bool
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		exists, err = s.objects.Exists(ctx, manifestKey(ref))
		return err
	})
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: version %s already exists", error_types.ErrStoreUnavailable, ref)
	}

	for i, f := range a.Files {
		if err := s.uploadFile(ctx, fileKey(ref, f.Name), f.Path, files[i].Size); err != nil {
			return nil, err
		}
	}

	aliases := append([]string{constants.AliasLatest}, a.Aliases...)
	manifest := &artifact.Manifest{
		Ref:           ref,
		Type:          a.Type,
		Description:   a.Description,
		Aliases:       aliases,
		Metadata:      a.Metadata,
		Files:         files,
		UsedArtifacts: usedArtifacts,
		RunId:         runId(ctx),
		CreatedAt:     time.Now().UTC(),
		State:         artifact.StateCommitted,
	}
	if err := s.putJSON(ctx, manifestKey(ref), manifest); err != nil {
		return nil, err
	}
	for _, alias := range aliases {
		if err := s.putJSON(ctx, aliasKey(ref, alias), aliasTarget{Version: ref.Version}); err != nil {
			return nil, err
		}
	}

	slog.Info("Published artifact", "ref", ref.String(), "type", a.Type, "aliases", aliases)
	if err := s.NotifyObservers(ctx, events.NewArtifactPublishedEvent(runId(ctx), manifest)); err != nil {
		return nil, fmt.Errorf("error notifying observers of published artifact: %w", err)
	}
	return manifest, nil
}

// WaitCommitted blocks until the manifest of the given version is visible and committed.
// It returns ErrStoreUnavailable if this does not happen within the wait timeout
func (s *ArtifactStore) WaitCommitted(ctx context.Context, ref artifact.Ref) error {
	ctx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()

	poll := rate.NewLimiter(rate.Every(s.pollInterval), 1)
	for {
		if err := poll.Wait(ctx); err != nil {
			return fmt.Errorf("%w: timed out waiting for %s to commit: %w", error_types.ErrStoreUnavailable, ref, err)
		}

		var manifest artifact.Manifest
		err := s.getJSON(ctx, manifestKey(ref), &manifest)
		switch {
		case err == nil && manifest.State == artifact.StateCommitted:
			slog.Debug("Artifact committed", "ref", ref.String())
			return s.NotifyObservers(ctx, events.NewArtifactCommittedEvent(runId(ctx), ref))
		case err == nil, errors.Is(err, object_store.ErrObjectNotFound):
			slog.Debug("Waiting for artifact to commit", "ref", ref.String())
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return fmt.Errorf("timed out waiting for %s to commit: %w", ref, err)
		default:
			return err
		}
	}
}

// Versions returns the committed versions of the named artifact, in ascending order
func (s *ArtifactStore) Versions(ctx context.Context, name string) ([]artifact.Ref, error) {
	base := artifact.Ref{Project: s.project, Name: name}
	numbers, err := s.versionNumbers(ctx, base)
	if err != nil {
		return nil, err
	}
	res := make([]artifact.Ref, len(numbers))
	for i, n := range numbers {
		res[i] = base.WithVersion(artifact.VersionString(n))
	}
	return res, nil
}

// SaveRun writes the record of a run
func (s *ArtifactStore) SaveRun(ctx context.Context, record *RunRecord) error {
	return s.putJSON(ctx, runKey(record.Project, record.Id), record)
}

// LoadRun reads the record of a run
func (s *ArtifactStore) LoadRun(ctx context.Context, id string) (*RunRecord, error) {
	var record RunRecord
	if err := s.getJSON(ctx, runKey(s.project, id), &record); err != nil {
		if errors.Is(err, object_store.ErrObjectNotFound) {
			return nil, fmt.Errorf("run %s not found: %w", id, err)
		}
		return nil, err
	}
	return &record, nil
}

func (s *ArtifactStore) nextVersion(ctx context.Context, base artifact.Ref) (int, error) {
	numbers, err := s.versionNumbers(ctx, base)
	if err != nil {
		return 0, err
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	return numbers[len(numbers)-1] + 1, nil
}

func (s *ArtifactStore) versionNumbers(ctx context.Context, base artifact.Ref) ([]int, error) {
	prefix := artifactPrefix(base)
	var keys []string
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		keys, err = s.objects.List(ctx, prefix)
		return err
	})
	if err != nil {
		return nil, err
	}

	var numbers []int
	for _, key := range keys {
		if n, ok := versionFromManifestKey(prefix, key); ok {
			numbers = append(numbers, n)
		}
	}
	slices.Sort(numbers)
	return numbers, nil
}

// call runs f against the object store, applying the rate limiter and per-call timeout.
// Failed calls are retried with backoff; a missing object is returned at once.
// Any failure other than a missing object is reported as ErrStoreUnavailable
func (s *ArtifactStore) call(ctx context.Context, f func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.limiter.Do(ctx, func(ctx context.Context) error {
			callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
			defer cancel()
			return f(callCtx)
		})
		if err == nil || errors.Is(err, object_store.ErrObjectNotFound) {
			return err
		}
		if attempt+1 >= s.retry.MaxAttempts || !s.sleep(ctx, s.retry.Delay(attempt)) {
			break
		}
		slog.Debug("Retrying artifact store call", "attempt", attempt+1, "error", err)
	}
	if err = error_types.FromContextError(err); errors.Is(err, error_types.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", error_types.ErrStoreUnavailable, err)
}

// sleep waits for d, returning false if the context is done first
func (s *ArtifactStore) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *ArtifactStore) getJSON(ctx context.Context, key string, target any) error {
	return s.call(ctx, func(ctx context.Context) error {
		r, err := s.objects.Get(ctx, key)
		if err != nil {
			return err
		}
		defer r.Close()
		// read within the call, as the body is bound to the call context
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, target); err != nil {
			return fmt.Errorf("invalid object %s: %w", key, err)
		}
		return nil
	})
}

func (s *ArtifactStore) putJSON(ctx context.Context, key string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return s.call(ctx, func(ctx context.Context) error {
		return s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)))
	})
}

func (s *ArtifactStore) uploadFile(ctx context.Context, key, localPath string, size int64) error {
	return s.call(ctx, func(ctx context.Context) error {
		f, err := os.Open(localPath)
		if err != nil {
			return err
		}
		defer f.Close()
		return s.objects.Put(ctx, key, f, size)
	})
}

func (s *ArtifactStore) downloadFile(ctx context.Context, key, localPath string) error {
	return s.call(ctx, func(ctx context.Context) error {
		r, err := s.objects.Get(ctx, key)
		if err != nil {
			return err
		}
		defer r.Close()

		outFile, err := os.Create(localPath)
		if err != nil {
			return fmt.Errorf("failed to create file, %w", err)
		}
		defer outFile.Close()

		if _, err := io.Copy(outFile, r); err != nil {
			return fmt.Errorf("failed to write data to file, %w", err)
		}
		return nil
	})
}

// notFound converts a missing object into ErrArtifactNotFound for the given ref
func (s *ArtifactStore) notFound(ref artifact.Ref, err error) error {
	if errors.Is(err, object_store.ErrObjectNotFound) {
		return fmt.Errorf("%w: %s", error_types.ErrArtifactNotFound, ref)
	}
	return err
}

type aliasTarget struct {
	Version string `json:"version"`
}

func runId(ctx context.Context) string {
	id, err := context_values.RunIdFromContext(ctx)
	if err != nil {
		return ""
	}
	return id
}
