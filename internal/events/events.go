// Package events defines the pipeline event vocabulary and the broadcast
// bus carrying it. Events are plain immutable data: they can be fanned out
// to any number of subscribers and serialized as-is for the SSE surface.
package events

import "cellar/internal/model"

// Event is the closed set of pipeline events. Every variant is a value
// type carrying only data; Kind returns its stable wire name.
type Event interface {
	Kind() string

	pipelineEvent()
}

// PipelineStarted marks the beginning of a run, after planning succeeded.
type PipelineStarted struct {
	TotalJobs int `json:"total_jobs"`
}

// PlanningStarted marks the beginning of the planning phase.
type PlanningStarted struct{}

// PlanningFinished carries the number of jobs the planner produced.
type PlanningFinished struct {
	JobCount int `json:"job_count"`
}

// DependencyResolutionStarted marks the beginning of dependency resolution.
type DependencyResolutionStarted struct{}

// DependencyResolutionFinished marks the end of dependency resolution.
type DependencyResolutionFinished struct{}

// DownloadStarted reports that a fetch began for a job.
type DownloadStarted struct {
	TargetID string `json:"target_id"`
	URL      string `json:"url"`
}

// DownloadProgressUpdate reports incremental transfer progress.
// TotalSize is zero or negative when the server did not report a length.
type DownloadProgressUpdate struct {
	TargetID   string `json:"target_id"`
	BytesSoFar int64  `json:"bytes_so_far"`
	TotalSize  int64  `json:"total_size"`
}

// DownloadFinished reports a fresh fetch completing.
type DownloadFinished struct {
	TargetID  string `json:"target_id"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

// DownloadCached reports an artifact served from the local cache without
// a transfer.
type DownloadCached struct {
	TargetID  string `json:"target_id"`
	SizeBytes int64  `json:"size_bytes"`
}

// DownloadFailed reports a failed acquisition. URL is empty when the
// failure was detected before any fetch was attempted.
type DownloadFailed struct {
	TargetID string `json:"target_id"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error"`
}

// JobProcessingStarted marks the hand-off of an acquired artifact to the
// install stage.
type JobProcessingStarted struct {
	TargetID string `json:"target_id"`
}

// BuildStarted marks the beginning of a from-source build.
type BuildStarted struct {
	TargetID string `json:"target_id"`
}

// InstallStarted marks the beginning of the unpack step.
type InstallStarted struct {
	TargetID string `json:"target_id"`
}

// LinkStarted marks the beginning of the link step.
type LinkStarted struct {
	TargetID string `json:"target_id"`
}

// JobSuccess is the terminal success event for one job.
type JobSuccess struct {
	TargetID string            `json:"target_id"`
	Action   model.JobAction   `json:"action"`
	PkgType  model.PackageType `json:"pkg_type"`
}

// JobFailed is the terminal failure event for one job.
type JobFailed struct {
	TargetID string `json:"target_id"`
	Error    string `json:"error"`
}

// LogInfo carries a free-text informational line.
type LogInfo struct {
	Message string `json:"message"`
}

// LogWarn carries a free-text warning line.
type LogWarn struct {
	Message string `json:"message"`
}

// LogError carries a free-text error line.
type LogError struct {
	Message string `json:"message"`
}

// PipelineFinished marks the end of a run.
type PipelineFinished struct {
	DurationSecs float64 `json:"duration_secs"`
	SuccessCount int     `json:"success_count"`
	FailCount    int     `json:"fail_count"`
}

func (PipelineStarted) Kind() string              { return "pipeline_started" }
func (PlanningStarted) Kind() string              { return "planning_started" }
func (PlanningFinished) Kind() string             { return "planning_finished" }
func (DependencyResolutionStarted) Kind() string  { return "dependency_resolution_started" }
func (DependencyResolutionFinished) Kind() string { return "dependency_resolution_finished" }
func (DownloadStarted) Kind() string              { return "download_started" }
func (DownloadProgressUpdate) Kind() string       { return "download_progress" }
func (DownloadFinished) Kind() string             { return "download_finished" }
func (DownloadCached) Kind() string               { return "download_cached" }
func (DownloadFailed) Kind() string               { return "download_failed" }
func (JobProcessingStarted) Kind() string         { return "job_processing_started" }
func (BuildStarted) Kind() string                 { return "build_started" }
func (InstallStarted) Kind() string               { return "install_started" }
func (LinkStarted) Kind() string                  { return "link_started" }
func (JobSuccess) Kind() string                   { return "job_success" }
func (JobFailed) Kind() string                    { return "job_failed" }
func (LogInfo) Kind() string                      { return "log_info" }
func (LogWarn) Kind() string                      { return "log_warn" }
func (LogError) Kind() string                     { return "log_error" }
func (PipelineFinished) Kind() string             { return "pipeline_finished" }

func (PipelineStarted) pipelineEvent()              {}
func (PlanningStarted) pipelineEvent()              {}
func (PlanningFinished) pipelineEvent()             {}
func (DependencyResolutionStarted) pipelineEvent()  {}
func (DependencyResolutionFinished) pipelineEvent() {}
func (DownloadStarted) pipelineEvent()              {}
func (DownloadProgressUpdate) pipelineEvent()       {}
func (DownloadFinished) pipelineEvent()             {}
func (DownloadCached) pipelineEvent()               {}
func (DownloadFailed) pipelineEvent()               {}
func (JobProcessingStarted) pipelineEvent()         {}
func (BuildStarted) pipelineEvent()                 {}
func (InstallStarted) pipelineEvent()               {}
func (LinkStarted) pipelineEvent()                  {}
func (JobSuccess) pipelineEvent()                   {}
func (JobFailed) pipelineEvent()                    {}
func (LogInfo) pipelineEvent()                      {}
func (LogWarn) pipelineEvent()                      {}
func (LogError) pipelineEvent()                     {}
func (PipelineFinished) pipelineEvent()             {}
