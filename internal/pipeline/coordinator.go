// Package pipeline runs planned jobs through the download and install
// stages, reporting everything that happens on the event bus.
package pipeline

import (
	"cellar/internal/events"
	"cellar/internal/fetch"
	"cellar/internal/model"
	"cellar/internal/utils"
	"context"
	"fmt"
	"os"
	"sync"
)

// PanicLabel is the job label attached to failures recovered from
// crashed download tasks, which cannot be tied back to a specific job.
const PanicLabel = "[UnknownDownloadTaskPanic]"

// Coordinate runs one download task per planned job and blocks until
// every task has finished. Each task reports lifecycle and progress
// events on the bus and delivers exactly one DownloadOutcome, except
// tasks that crash: those deliver nothing and are returned as
// TaskFailures instead. The caller owns the outcomes channel and closes
// it once Coordinate returns.
func Coordinate(ctx context.Context, jobs []PlannedJob, fetcher fetch.Fetcher, bus *events.Bus, outcomes chan<- DownloadOutcome) []TaskFailure {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []TaskFailure
	)

	for _, job := range jobs {
		wg.Add(1)
		go func(job PlannedJob) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					failures = append(failures, TaskFailure{
						Label: PanicLabel,
						Err:   fmt.Errorf("a download task panicked: %s", panicMessage(r)),
					})
					mu.Unlock()
				}
			}()

			outcome := runDownload(ctx, job, fetcher, bus)
			select {
			case outcomes <- outcome:
			case <-ctx.Done():
				// The consumer is gone; the job is lost to the pipeline.
				utils.Debug("CRITICAL: Failed to send download outcome for job %s", job.TargetID)
				bus.Publish(events.LogError{Message: "CRITICAL: failed to deliver download outcome for " + job.TargetID})
			}
		}(job)
	}

	wg.Wait()
	return failures
}

// runDownload performs the acquisition for one job.
func runDownload(ctx context.Context, job PlannedJob, fetcher fetch.Fetcher, bus *events.Bus) DownloadOutcome {
	// Pre-seeded artifacts bypass the network and emit no events.
	if job.PrivateStorePath != "" {
		return DownloadOutcome{Job: job, Path: job.PrivateStorePath}
	}

	url := DisplayURL(job)
	if url == "" && !job.SourceBuild {
		err := fmt.Errorf("download url is missing or invalid for job %s", job.TargetID)
		bus.Publish(events.DownloadFailed{TargetID: job.TargetID, Error: err.Error()})
		return DownloadOutcome{Job: job, Err: err}
	}

	bus.Publish(events.DownloadStarted{TargetID: job.TargetID, URL: url})

	progress := func(bytesSoFar, totalSize int64) {
		bus.Publish(events.DownloadProgressUpdate{
			TargetID:   job.TargetID,
			BytesSoFar: bytesSoFar,
			TotalSize:  totalSize,
		})
	}

	var (
		path   string
		cached bool
		err    error
	)
	switch target := job.Target.(type) {
	case *model.Formula:
		if job.SourceBuild {
			path, err = fetcher.FetchSource(ctx, target, progress)
		} else {
			path, cached, err = fetcher.FetchBottle(ctx, target, progress)
		}
	case *model.Cask:
		path, err = fetcher.FetchCask(ctx, target, progress)
	default:
		err = fmt.Errorf("unsupported target type %T for job %s", job.Target, job.TargetID)
	}
	if err != nil {
		utils.Debug("Download failed for %s: %v", job.TargetID, err)
		bus.Publish(events.DownloadFailed{TargetID: job.TargetID, URL: url, Error: err.Error()})
		return DownloadOutcome{Job: job, Err: err}
	}

	size := fileSize(path)
	if cached {
		bus.Publish(events.DownloadCached{TargetID: job.TargetID, SizeBytes: size})
	} else {
		bus.Publish(events.DownloadFinished{TargetID: job.TargetID, Path: path, SizeBytes: size})
	}
	return DownloadOutcome{Job: job, Path: path, Cached: cached}
}

// DisplayURL resolves the URL a job is expected to download, for event
// reporting and history rows. It mirrors what the fetcher will do
// without touching the network: bottled formulae report their bottle
// URL, falling back to the source URL when no bottle matches the
// platform.
func DisplayURL(job PlannedJob) string {
	switch target := job.Target.(type) {
	case *model.Formula:
		if job.SourceBuild {
			return target.URL
		}
		bottle, err := target.BottleFor(model.PlatformTag())
		if err != nil {
			return target.URL
		}
		return bottle.URL
	case *model.Cask:
		if target.URL == nil {
			return ""
		}
		return target.URL.URL
	default:
		return ""
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
