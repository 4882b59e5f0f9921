package artifact_store

import (
	"time"

	"github.com/turbot/basic-cleaning/artifact"
)

type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusFinished RunStatus = "finished"
	RunStatusFailed   RunStatus = "failed"
)

// RunRecord is the persisted record of a run: its config and the artifacts it used and logged
type RunRecord struct {
	Id              string         `json:"id"`
	Project         string         `json:"project"`
	JobType         string         `json:"job_type"`
	Config          map[string]any `json:"config,omitempty"`
	UsedArtifacts   []artifact.Ref `json:"used_artifacts,omitempty"`
	LoggedArtifacts []artifact.Ref `json:"logged_artifacts,omitempty"`
	Status          RunStatus      `json:"status"`
	Error           string         `json:"error,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      *time.Time     `json:"finished_at,omitempty"`
}
