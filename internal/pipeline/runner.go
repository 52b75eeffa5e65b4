package pipeline

import (
	"cellar/internal/events"
	"cellar/internal/fetch"
	"context"
	"time"
)

// OutcomeHandler consumes download outcomes as they arrive and carries
// each job through its remaining stages.
type OutcomeHandler interface {
	HandleOutcomes(ctx context.Context, outcomes <-chan DownloadOutcome) (succeeded, failed int)
}

// Summary is the final accounting for one pipeline run.
type Summary struct {
	Succeeded  int
	Failed     int
	Duration   time.Duration
	TaskPanics []TaskFailure
}

// Runner owns one pipeline run end to end.
type Runner struct {
	Bus     *events.Bus
	Fetcher fetch.Fetcher
	Handler OutcomeHandler

	// QueueDepth bounds the outcome channel. Downloads that finish
	// while the handler is busy block until a slot frees up.
	QueueDepth int
}

// Run downloads and installs every planned job, publishes the final
// summary event, and closes the bus.
func (r *Runner) Run(ctx context.Context, jobs []PlannedJob) Summary {
	start := time.Now()
	r.Bus.Publish(events.PipelineStarted{TotalJobs: len(jobs)})

	depth := r.QueueDepth
	if depth <= 0 {
		depth = 1
	}
	outcomes := make(chan DownloadOutcome, depth)

	var panics []TaskFailure
	coordinatorDone := make(chan struct{})
	go func() {
		defer close(coordinatorDone)
		panics = Coordinate(ctx, jobs, r.Fetcher, r.Bus, outcomes)
		close(outcomes)
	}()

	succeeded, failed := r.Handler.HandleOutcomes(ctx, outcomes)
	<-coordinatorDone

	// Crashed tasks never produced an outcome; account for them here.
	for _, failure := range panics {
		r.Bus.Publish(events.LogError{Message: failure.Label + ": " + failure.Err.Error()})
		failed++
	}

	duration := time.Since(start)
	r.Bus.Publish(events.PipelineFinished{
		DurationSecs: duration.Seconds(),
		SuccessCount: succeeded,
		FailCount:    failed,
	})
	r.Bus.Close()

	return Summary{Succeeded: succeeded, Failed: failed, Duration: duration, TaskPanics: panics}
}
