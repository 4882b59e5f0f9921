package artifact_store

import (
	"log/slog"
	"time"

	"github.com/turbot/basic-cleaning/rate_limiter"
)

type StoreOption func(*ArtifactStore)

func WithProject(project string) StoreOption {
	return func(s *ArtifactStore) {
		s.project = project
	}
}

// WithCallTimeout sets the timeout applied to each call to the object store
func WithCallTimeout(d time.Duration) StoreOption {
	return func(s *ArtifactStore) {
		s.callTimeout = d
	}
}

// WithWaitTimeout sets how long WaitCommitted waits for a version to become visible
func WithWaitTimeout(d time.Duration) StoreOption {
	return func(s *ArtifactStore) {
		s.waitTimeout = d
	}
}

func WithPollInterval(d time.Duration) StoreOption {
	return func(s *ArtifactStore) {
		s.pollInterval = d
	}
}

func WithTmpDir(dir string) StoreOption {
	return func(s *ArtifactStore) {
		s.tmpDir = dir
	}
}

func WithRateLimiter(def *rate_limiter.Definition) StoreOption {
	return func(s *ArtifactStore) {
		if def != nil {
			s.limiter = rate_limiter.NewAPILimiter(def)
			slog.Debug("Artifact store rate limiter", "name", s.limiter.Name, "limits", s.limiter.String())
		}
	}
}

// WithRetry sets the retry policy for failed calls to the object store
func WithRetry(b *rate_limiter.Backoff) StoreOption {
	return func(s *ArtifactStore) {
		if b != nil {
			s.retry = b
		}
	}
}
