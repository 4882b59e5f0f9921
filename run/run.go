package run

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/turbot/basic-cleaning/artifact"
	"github.com/turbot/basic-cleaning/artifact_store"
	"github.com/turbot/basic-cleaning/context_values"
	"github.com/turbot/basic-cleaning/error_types"
	"github.com/turbot/basic-cleaning/events"
)

// Run is the session of a single job: the artifacts it uses and logs are recorded against it,
// and its record is persisted to the artifact store when it is closed.
// A Run must be closed by the caller.
type Run struct {
	Id string

	store  *artifact_store.ArtifactStore
	mut    sync.Mutex
	record *artifact_store.RunRecord
	closed bool
}

// New starts a run of the given job type against the store.
// The run registers itself as an observer of the store to record lineage
func New(ctx context.Context, store *artifact_store.ArtifactStore, jobType string) (*Run, error) {
	r := &Run{
		Id:    uuid.NewString(),
		store: store,
		record: &artifact_store.RunRecord{
			Project:   store.Project(),
			JobType:   jobType,
			Config:    make(map[string]any),
			Status:    artifact_store.RunStatusRunning,
			StartedAt: time.Now().UTC(),
		},
	}
	r.record.Id = r.Id

	if err := store.AddObserver(r); err != nil {
		return nil, err
	}
	if err := store.SaveRun(ctx, r.record); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	slog.Info("Started run", "run_id", r.Id, "job_type", jobType, "project", store.Project())
	return r, nil
}

// Context returns a context carrying the run id
func (r *Run) Context(ctx context.Context) context.Context {
	return context_values.WithRunId(ctx, r.Id)
}

// UseArtifact resolves and downloads an artifact, recording it as an input of the run
func (r *Run) UseArtifact(ctx context.Context, ref string) (*artifact.DownloadedArtifactInfo, error) {
	parsed, err := r.store.ParseRef(ref)
	if err != nil {
		// a reference that cannot be parsed cannot be resolved either
		return nil, fmt.Errorf("%w: %v", error_types.ErrArtifactNotFound, err)
	}
	return r.store.Download(r.Context(ctx), parsed)
}

// LogArtifact publishes an artifact produced by the run.
// The used artifacts of the run are recorded as its lineage.
// Wait must be called on the returned handle to confirm the commit.
func (r *Run) LogArtifact(ctx context.Context, a *artifact.Artifact) (*LoggedArtifact, error) {
	manifest, err := r.store.Publish(r.Context(ctx), a, r.UsedArtifacts())
	if err != nil {
		return nil, err
	}
	return &LoggedArtifact{run: r, Manifest: manifest}, nil
}

// UsedArtifacts returns the artifacts downloaded by the run so far
func (r *Run) UsedArtifacts() []artifact.Ref {
	r.mut.Lock()
	defer r.mut.Unlock()
	return slices.Clone(r.record.UsedArtifacts)
}

// LoggedArtifacts returns the artifacts logged by the run whose commit has been confirmed
func (r *Run) LoggedArtifacts() []artifact.Ref {
	r.mut.Lock()
	defer r.mut.Unlock()
	return slices.Clone(r.record.LoggedArtifacts)
}

// Notify implements observable.Observer, recording the store events raised for this run
func (r *Run) Notify(_ context.Context, e events.Event) error {
	r.mut.Lock()
	defer r.mut.Unlock()

	switch ev := e.(type) {
	case *events.ArtifactDownloaded:
		if ev.RunId == r.Id {
			r.record.UsedArtifacts = appendRef(r.record.UsedArtifacts, ev.Info.Manifest.Ref)
		}
	case *events.ArtifactCommitted:
		if ev.RunId == r.Id {
			r.record.LoggedArtifacts = appendRef(r.record.LoggedArtifacts, ev.Ref)
		}
	}
	return nil
}

// Close finishes the run, persisting its record with the outcome given by runErr
func (r *Run) Close(ctx context.Context, runErr error) error {
	r.mut.Lock()
	if r.closed {
		r.mut.Unlock()
		return nil
	}
	r.closed = true
	finished := time.Now().UTC()
	r.record.FinishedAt = &finished
	r.record.Status = artifact_store.RunStatusFinished
	if runErr != nil {
		r.record.Status = artifact_store.RunStatusFailed
		r.record.Error = runErr.Error()
	}
	record := *r.record
	r.mut.Unlock()

	slog.Info("Finished run", "run_id", r.Id, "status", record.Status, "duration", finished.Sub(record.StartedAt))
	if err := r.store.SaveRun(ctx, &record); err != nil {
		return fmt.Errorf("failed to save run %s: %w", r.Id, err)
	}
	return nil
}

// LoggedArtifact is an artifact published by a run, whose commit may not yet be confirmed
type LoggedArtifact struct {
	run      *Run
	Manifest *artifact.Manifest
}

func (l *LoggedArtifact) Ref() artifact.Ref {
	return l.Manifest.Ref
}

// Wait blocks until the store confirms the artifact is committed
func (l *LoggedArtifact) Wait(ctx context.Context) error {
	return l.run.store.WaitCommitted(l.run.Context(ctx), l.Manifest.Ref)
}

func appendRef(refs []artifact.Ref, ref artifact.Ref) []artifact.Ref {
	if slices.Contains(refs, ref) {
		return refs
	}
	return append(refs, ref)
}
