package artifact_store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/basic-cleaning/artifact"
	"github.com/turbot/basic-cleaning/config"
	"github.com/turbot/basic-cleaning/context_values"
	"github.com/turbot/basic-cleaning/error_types"
	"github.com/turbot/basic-cleaning/events"
	"github.com/turbot/basic-cleaning/object_store"
	"github.com/turbot/basic-cleaning/rate_limiter"
)

func newTestStore(t *testing.T, opts ...StoreOption) *ArtifactStore {
	t.Helper()
	objects := object_store.NewFileSystemStore()
	configData := config.NewData(object_store.FileSystemStoreIdentifier, []byte(fmt.Sprintf("root = %q", t.TempDir())))
	require.NoError(t, objects.Init(context.Background(), configData))

	opts = append([]StoreOption{
		WithProject("test"),
		WithTmpDir(t.TempDir()),
		WithPollInterval(time.Millisecond),
		WithWaitTimeout(time.Second),
	}, opts...)
	s := New(objects, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestArtifact(t *testing.T, name, contents string) *artifact.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	a := artifact.New(name, "clean_sample", "cleaned data")
	require.NoError(t, a.AddFile(path))
	return a
}

type recordingObserver struct {
	events []events.Event
}

func (r *recordingObserver) Notify(_ context.Context, e events.Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestArtifactStore_PublishAndDownload(t *testing.T) {
	ctx := context_values.WithRunId(context.Background(), "run-1")
	s := newTestStore(t)
	observer := &recordingObserver{}
	require.NoError(t, s.AddObserver(observer))

	input := artifact.Ref{Project: "test", Name: "sample.csv", Version: "v3"}
	manifest, err := s.Publish(ctx, newTestArtifact(t, "clean.csv", "price\n50\n"), []artifact.Ref{input})
	require.NoError(t, err)
	assert.Equal(t, "test/clean.csv:v0", manifest.Ref.String())
	assert.Equal(t, []artifact.Ref{input}, manifest.UsedArtifacts)
	assert.Equal(t, "run-1", manifest.RunId)
	require.NoError(t, s.WaitCommitted(ctx, manifest.Ref))

	ref, err := s.ParseRef("clean.csv:latest")
	require.NoError(t, err)
	info, err := s.Download(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "v0", info.Manifest.Ref.Version)
	assert.Equal(t, "clean_sample", info.Manifest.Type)

	path, err := info.File()
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "price\n50\n", string(data))

	require.Len(t, observer.events, 4)
	assert.IsType(t, &events.ArtifactPublished{}, observer.events[0])
	assert.IsType(t, &events.ArtifactCommitted{}, observer.events[1])
	assert.IsType(t, &events.ArtifactResolved{}, observer.events[2])
	assert.IsType(t, &events.ArtifactDownloaded{}, observer.events[3])
}

func TestArtifactStore_RepublishCreatesNewVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := newTestArtifact(t, "clean.csv", "price\n50\n")
	first, err := s.Publish(ctx, a, nil)
	require.NoError(t, err)
	a.Aliases = []string{"reviewed"}
	second, err := s.Publish(ctx, a, nil)
	require.NoError(t, err)

	assert.Equal(t, "v0", first.Ref.Version)
	assert.Equal(t, "v1", second.Ref.Version)
	assert.Equal(t, first.Files, second.Files)

	versions, err := s.Versions(ctx, "clean.csv")
	require.NoError(t, err)
	assert.Equal(t, []artifact.Ref{first.Ref, second.Ref}, versions)

	for _, alias := range []string{"latest", "reviewed"} {
		m, err := s.Resolve(ctx, second.Ref.WithVersion(alias))
		require.NoError(t, err)
		assert.Equal(t, "v1", m.Ref.Version, alias)
	}

	// earlier versions stay resolvable
	m, err := s.Resolve(ctx, first.Ref)
	require.NoError(t, err)
	assert.Equal(t, []string{"latest"}, m.Aliases)
}

func TestArtifactStore_ResolveNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Publish(ctx, newTestArtifact(t, "clean.csv", "price\n"), nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		ref  string
	}{
		{name: "unknown artifact", ref: "missing.csv:latest"},
		{name: "unknown version", ref: "clean.csv:v7"},
		{name: "unknown alias", ref: "clean.csv:prod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := s.ParseRef(tt.ref)
			require.NoError(t, err)
			_, err = s.Download(ctx, ref)
			assert.ErrorIs(t, err, error_types.ErrArtifactNotFound)
		})
	}
}

func TestArtifactStore_PublishInvalid(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Publish(context.Background(), artifact.New("clean.csv", "clean_sample", ""), nil)
	assert.ErrorIs(t, err, error_types.ErrInvalidArgument)

	versions, err := s.Versions(context.Background(), "clean.csv")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestArtifactStore_WaitCommittedTimeout(t *testing.T) {
	s := newTestStore(t, WithWaitTimeout(20*time.Millisecond))
	err := s.WaitCommitted(context.Background(), artifact.Ref{Project: "test", Name: "clean.csv", Version: "v0"})
	assert.ErrorIs(t, err, error_types.ErrStoreUnavailable)
	assert.True(t, error_types.IsRetryable(err))
}

func TestArtifactStore_RunRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	started := time.Now().UTC().Truncate(time.Second)
	record := &RunRecord{
		Id:        "run-1",
		Project:   "test",
		JobType:   "basic_cleaning",
		Config:    map[string]any{"min_price": 10.0},
		Status:    RunStatusFinished,
		StartedAt: started,
	}
	require.NoError(t, s.SaveRun(ctx, record))

	loaded, err := s.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, record, loaded)

	_, err = s.LoadRun(ctx, "run-2")
	assert.ErrorIs(t, err, object_store.ErrObjectNotFound)
}

// failingStore is an object store whose backend is unreachable
type failingStore struct{}

func (failingStore) Identifier() string { return "failing" }
func (failingStore) Init(context.Context, *config.Data) error { return nil }
func (failingStore) Get(context.Context, string) (io.ReadCloser, error) { return nil, errors.New("connection refused") }
func (failingStore) Put(context.Context, string, io.Reader, int64) error { return errors.New("connection refused") }
func (failingStore) Exists(context.Context, string) (bool, error) { return false, errors.New("connection refused") }
func (failingStore) List(context.Context, string) ([]string, error) { return nil, errors.New("connection refused") }
func (failingStore) Close() error { return nil }

func TestArtifactStore_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	s := New(failingStore{}, WithTmpDir(t.TempDir()))

	_, err := s.Resolve(ctx, artifact.Ref{Project: "default", Name: "sample.csv", Version: "latest"})
	assert.ErrorIs(t, err, error_types.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, error_types.ErrArtifactNotFound)

	_, err = s.Publish(ctx, newTestArtifact(t, "clean.csv", "price\n"), nil)
	assert.ErrorIs(t, err, error_types.ErrStoreUnavailable)
}

func TestArtifactStore_CallTimeout(t *testing.T) {
	s := New(blockingStore{}, WithTmpDir(t.TempDir()), WithCallTimeout(10*time.Millisecond))
	_, err := s.Resolve(context.Background(), artifact.Ref{Project: "default", Name: "sample.csv", Version: "v0"})
	assert.ErrorIs(t, err, error_types.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// blockingStore never responds until the context is done
type blockingStore struct {
	failingStore
}

func (blockingStore) Get(ctx context.Context, _ string) (io.ReadCloser, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// flakyStore fails the first failures calls to Get and Put, then passes through
type flakyStore struct {
	object_store.Store
	failures int
	calls    int
}

func (f *flakyStore) fail() error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection reset by peer")
	}
	return nil
}

func (f *flakyStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.Store.Put(ctx, key, r, size)
}

func TestArtifactStore_Retry(t *testing.T) {
	ctx := context.Background()
	backoff := &rate_limiter.Backoff{MaxAttempts: 3, MinDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		wantErr   error
		wantCalls int
	}{
		{name: "recovers", failures: 2, wantCalls: 3},
		{name: "gives up", failures: 10, wantErr: error_types.ErrStoreUnavailable, wantCalls: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := object_store.NewFileSystemStore()
			configData := config.NewData(object_store.FileSystemStoreIdentifier, []byte(fmt.Sprintf("root = %q", t.TempDir())))
			require.NoError(t, objects.Init(ctx, configData))
			flaky := &flakyStore{Store: objects, failures: tt.failures}
			s := New(flaky, WithTmpDir(t.TempDir()), WithRetry(backoff))

			err := s.SaveRun(ctx, &RunRecord{Id: "run-1", Project: "default"})
			assert.Equal(t, tt.wantCalls, flaky.calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			_, err = s.LoadRun(ctx, "run-1")
			assert.NoError(t, err)
		})
	}
}

func TestArtifactStore_NotFoundIsNotRetried(t *testing.T) {
	s := newTestStore(t)
	flaky := &flakyStore{Store: s.objects}
	s.objects = flaky

	_, err := s.LoadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, object_store.ErrObjectNotFound)
	assert.Equal(t, 1, flaky.calls)
}
