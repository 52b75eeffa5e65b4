package cellar

import "cellar/internal/events"

// Re-exported event types for consumers.
type Event = events.Event
type Subscription = events.Subscription

type PipelineStarted = events.PipelineStarted
type PlanningStarted = events.PlanningStarted
type PlanningFinished = events.PlanningFinished
type DependencyResolutionStarted = events.DependencyResolutionStarted
type DependencyResolutionFinished = events.DependencyResolutionFinished
type DownloadStarted = events.DownloadStarted
type DownloadProgressUpdate = events.DownloadProgressUpdate
type DownloadFinished = events.DownloadFinished
type DownloadCached = events.DownloadCached
type DownloadFailed = events.DownloadFailed
type JobProcessingStarted = events.JobProcessingStarted
type BuildStarted = events.BuildStarted
type InstallStarted = events.InstallStarted
type LinkStarted = events.LinkStarted
type JobSuccess = events.JobSuccess
type JobFailed = events.JobFailed
type LogInfo = events.LogInfo
type LogWarn = events.LogWarn
type LogError = events.LogError
type PipelineFinished = events.PipelineFinished
