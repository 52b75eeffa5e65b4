package pipeline

import (
	"cellar/internal/events"
	"cellar/internal/fetch"
	"cellar/internal/model"
	"context"
	"strings"
	"testing"
)

type countingHandler struct{}

func (countingHandler) HandleOutcomes(ctx context.Context, outcomes <-chan DownloadOutcome) (int, int) {
	var succeeded, failed int
	for o := range outcomes {
		if o.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	jobs := []PlannedJob{
		{TargetID: "preseeded", Target: &model.Formula{Name: "preseeded", Version: "1"}, PrivateStorePath: "/store/x"},
		{TargetID: "caskless", Target: &model.Cask{Token: "caskless"}},
		{TargetID: "crasher", Target: &model.Formula{Name: "crasher", Version: "1", URL: "https://example.com/c.tar.gz"}, SourceBuild: true},
	}

	fetcher := &fakeFetcher{
		fetchSource: func(ctx context.Context, f *model.Formula, p fetch.Progress) (string, error) {
			panic("source fetch exploded")
		},
	}

	bus := events.NewBus()
	sub := bus.Subscribe(256)

	runner := &Runner{Bus: bus, Fetcher: fetcher, Handler: countingHandler{}, QueueDepth: 8}
	summary := runner.Run(t.Context(), jobs)

	if summary.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", summary.Succeeded)
	}
	// The caskless validation failure plus the recovered panic.
	if summary.Failed != 2 {
		t.Errorf("Failed = %d, want 2", summary.Failed)
	}
	if len(summary.TaskPanics) != 1 {
		t.Fatalf("TaskPanics = %v, want one entry", summary.TaskPanics)
	}

	// Run closed the bus, so the subscription drains and ends.
	var published []events.Event
	for e := range sub.Events() {
		published = append(published, e)
	}
	if len(published) == 0 {
		t.Fatal("no events published")
	}

	if first, ok := published[0].(events.PipelineStarted); !ok || first.TotalJobs != 3 {
		t.Errorf("first event = %+v, want PipelineStarted{TotalJobs: 3}", published[0])
	}
	last, ok := published[len(published)-1].(events.PipelineFinished)
	if !ok {
		t.Fatalf("last event = %+v, want PipelineFinished", published[len(published)-1])
	}
	if last.SuccessCount != 1 || last.FailCount != 2 {
		t.Errorf("final counts = (%d, %d), want (1, 2)", last.SuccessCount, last.FailCount)
	}

	foundPanicLog := false
	for _, e := range published {
		if logErr, ok := e.(events.LogError); ok && strings.Contains(logErr.Message, PanicLabel) {
			foundPanicLog = true
		}
	}
	if !foundPanicLog {
		t.Error("expected a LogError reporting the recovered panic")
	}
}
