package events

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBusFanOut(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	first := bus.Subscribe(8)
	second := bus.Subscribe(8)

	published := []Event{
		PipelineStarted{TotalJobs: 2},
		DownloadStarted{TargetID: "wget", URL: "https://example.com/wget.tar.gz"},
		PipelineFinished{DurationSecs: 1.5, SuccessCount: 2},
	}
	for _, e := range published {
		bus.Publish(e)
	}
	bus.Close()

	for name, sub := range map[string]*Subscription{"first": first, "second": second} {
		var got []Event
		for e := range sub.Events() {
			got = append(got, e)
		}
		if diff := cmp.Diff(published, got); diff != "" {
			t.Errorf("%s subscriber events mismatch (-want +got):\n%s", name, diff)
		}
		if drops := sub.Dropped(); drops != 0 {
			t.Errorf("%s subscriber dropped %d events, want 0", name, drops)
		}
	}
}

func TestBusDropsOldestWhenFull(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	sub := bus.Subscribe(2)

	for i := 1; i <= 4; i++ {
		bus.Publish(LogInfo{Message: fmt.Sprintf("m%d", i)})
	}
	bus.Close()

	var got []Event
	for e := range sub.Events() {
		got = append(got, e)
	}

	want := []Event{LogInfo{Message: "m3"}, LogInfo{Message: "m4"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("surviving events mismatch (-want +got):\n%s", diff)
	}
	if drops := sub.Dropped(); drops != 2 {
		t.Errorf("Dropped() = %d, want 2", drops)
	}
}

func TestBusNewestEventSurvivesOverflow(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	sub := bus.Subscribe(1)

	for i := 1; i <= 10; i++ {
		bus.Publish(PlanningFinished{JobCount: i})
	}
	bus.Close()

	var last Event
	for e := range sub.Events() {
		last = e
	}
	if diff := cmp.Diff(PlanningFinished{JobCount: 10}, last); diff != "" {
		t.Errorf("last event mismatch (-want +got):\n%s", diff)
	}
	if drops := sub.Dropped(); drops != 9 {
		t.Errorf("Dropped() = %d, want 9", drops)
	}
}

func TestBusDeliveryAccounting(t *testing.T) {
	t.Parallel()

	const (
		publishers       = 4
		eventsPerPublish = 250
	)

	bus := NewBus()
	sub := bus.Subscribe(16)

	delivered := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range sub.Events() {
			delivered++
		}
	}()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < eventsPerPublish; i++ {
				bus.Publish(DownloadProgressUpdate{TargetID: fmt.Sprintf("job-%d", p), BytesSoFar: int64(i)})
			}
		}(p)
	}
	wg.Wait()
	bus.Close()
	<-done

	total := delivered + int(sub.Dropped())
	if want := publishers * eventsPerPublish; total != want {
		t.Errorf("delivered (%d) + dropped (%d) = %d, want %d", delivered, sub.Dropped(), total, want)
	}
}

func TestBusCloseSemantics(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	sub := bus.Subscribe(4)
	bus.Publish(LogWarn{Message: "buffered before close"})
	bus.Close()
	bus.Close()

	// Events buffered before Close stay readable.
	e, ok := <-sub.Events()
	if !ok {
		t.Fatal("expected buffered event after close, channel was empty")
	}
	if diff := cmp.Diff(LogWarn{Message: "buffered before close"}, e); diff != "" {
		t.Errorf("buffered event mismatch (-want +got):\n%s", diff)
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("expected channel to be closed after draining")
	}

	// Publishing on a closed bus is a no-op.
	bus.Publish(LogError{Message: "after close"})

	// Subscribing after close yields an already-closed channel.
	late := bus.Subscribe(4)
	if _, ok := <-late.Events(); ok {
		t.Error("expected late subscription channel to be closed")
	}
}

func TestSubscriptionCancel(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	canceled := bus.Subscribe(4)
	kept := bus.Subscribe(4)

	canceled.Cancel()
	canceled.Cancel()

	bus.Publish(LogInfo{Message: "after cancel"})
	bus.Close()

	if _, ok := <-canceled.Events(); ok {
		t.Error("canceled subscription still received an event")
	}

	var got []Event
	for e := range kept.Events() {
		got = append(got, e)
	}
	if diff := cmp.Diff([]Event{LogInfo{Message: "after cancel"}}, got); diff != "" {
		t.Errorf("remaining subscriber events mismatch (-want +got):\n%s", diff)
	}
}

func TestEventKinds(t *testing.T) {
	t.Parallel()

	tests := map[string]Event{
		"download_progress": DownloadProgressUpdate{},
		"download_cached":   DownloadCached{},
		"job_success":       JobSuccess{},
		"pipeline_finished": PipelineFinished{},
		"planning_started":  PlanningStarted{},
		"build_started":     BuildStarted{},
	}
	for want, e := range tests {
		if got := e.Kind(); got != want {
			t.Errorf("%T.Kind() = %q, want %q", e, got, want)
		}
	}
}
