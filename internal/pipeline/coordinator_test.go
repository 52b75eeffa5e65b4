package pipeline

import (
	"cellar/internal/events"
	"cellar/internal/fetch"
	"cellar/internal/model"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeFetcher struct {
	fetchBottle func(ctx context.Context, f *model.Formula, p fetch.Progress) (string, bool, error)
	fetchSource func(ctx context.Context, f *model.Formula, p fetch.Progress) (string, error)
	fetchCask   func(ctx context.Context, c *model.Cask, p fetch.Progress) (string, error)
}

func (ff *fakeFetcher) FetchBottle(ctx context.Context, f *model.Formula, p fetch.Progress) (string, bool, error) {
	if ff.fetchBottle == nil {
		return "", false, errors.New("unexpected FetchBottle call")
	}
	return ff.fetchBottle(ctx, f, p)
}

func (ff *fakeFetcher) FetchSource(ctx context.Context, f *model.Formula, p fetch.Progress) (string, error) {
	if ff.fetchSource == nil {
		return "", errors.New("unexpected FetchSource call")
	}
	return ff.fetchSource(ctx, f, p)
}

func (ff *fakeFetcher) FetchCask(ctx context.Context, c *model.Cask, p fetch.Progress) (string, error) {
	if ff.fetchCask == nil {
		return "", errors.New("unexpected FetchCask call")
	}
	return ff.fetchCask(ctx, c, p)
}

// targetIDOf extracts the job id an event refers to, or "" for
// pipeline-level events.
func targetIDOf(e events.Event) string {
	switch v := e.(type) {
	case events.DownloadStarted:
		return v.TargetID
	case events.DownloadProgressUpdate:
		return v.TargetID
	case events.DownloadFinished:
		return v.TargetID
	case events.DownloadCached:
		return v.TargetID
	case events.DownloadFailed:
		return v.TargetID
	default:
		return ""
	}
}

func eventsFor(all []events.Event, targetID string) []events.Event {
	var out []events.Event
	for _, e := range all {
		if targetIDOf(e) == targetID {
			out = append(out, e)
		}
	}
	return out
}

// runCoordinate drives Coordinate to completion and returns everything
// it produced.
func runCoordinate(t *testing.T, jobs []PlannedJob, fetcher fetch.Fetcher) ([]DownloadOutcome, []TaskFailure, []events.Event) {
	t.Helper()

	bus := events.NewBus()
	sub := bus.Subscribe(256)
	outcomes := make(chan DownloadOutcome, len(jobs)+1)

	failures := Coordinate(t.Context(), jobs, fetcher, bus, outcomes)
	close(outcomes)
	bus.Close()

	var got []DownloadOutcome
	for o := range outcomes {
		got = append(got, o)
	}
	var published []events.Event
	for e := range sub.Events() {
		published = append(published, e)
	}
	return got, failures, published
}

func TestCoordinateMixedJobs(t *testing.T) {
	t.Parallel()

	bottlePath := filepath.Join(t.TempDir(), "zstd-1.5.6.bottle.tar.gz")
	if err := os.WriteFile(bottlePath, []byte("bottle-bytes"), 0o644); err != nil {
		t.Fatalf("write bottle: %v", err)
	}

	jobs := []PlannedJob{
		{
			TargetID:         "preseeded",
			Target:           &model.Formula{Name: "preseeded", Version: "1.0"},
			Action:           model.ActionInstall,
			PrivateStorePath: "/store/x",
		},
		{
			TargetID: "caskless",
			Target:   &model.Cask{Token: "caskless", Version: "2.0"},
			Action:   model.ActionInstall,
		},
		{
			TargetID: "zstd",
			Target: &model.Formula{
				Name:    "zstd",
				Version: "1.5.6",
				Bottles: map[string]model.Bottle{
					"all": {URL: "https://example.com/zstd-1.5.6.bottle.tar.gz"},
				},
			},
			Action: model.ActionInstall,
		},
	}

	caskCalled := false
	fetcher := &fakeFetcher{
		fetchBottle: func(ctx context.Context, f *model.Formula, p fetch.Progress) (string, bool, error) {
			p(400000, 1000000)
			p(1000000, 1000000)
			return bottlePath, false, nil
		},
		fetchCask: func(ctx context.Context, c *model.Cask, p fetch.Progress) (string, error) {
			caskCalled = true
			return "", errors.New("should not be reached")
		},
	}

	outcomes, failures, published := runCoordinate(t, jobs, fetcher)

	if len(failures) != 0 {
		t.Fatalf("unexpected task failures: %v", failures)
	}
	if len(outcomes) != len(jobs) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(jobs))
	}
	byID := make(map[string]DownloadOutcome, len(outcomes))
	for _, o := range outcomes {
		byID[o.Job.TargetID] = o
	}

	// Pre-seeded artifacts pass straight through, silently.
	if got := byID["preseeded"]; got.Path != "/store/x" || got.Err != nil {
		t.Errorf("preseeded outcome = %+v, want path /store/x", got)
	}
	if evs := eventsFor(published, "preseeded"); len(evs) != 0 {
		t.Errorf("preseeded must emit no events, got %v", evs)
	}

	// A cask without a URL fails validation before any fetch.
	if got := byID["caskless"]; got.Err == nil {
		t.Error("caskless outcome must carry an error")
	}
	if caskCalled {
		t.Error("fetcher must not be called for a cask without a URL")
	}
	casklessEvents := eventsFor(published, "caskless")
	if len(casklessEvents) != 1 {
		t.Fatalf("caskless events = %v, want a single DownloadFailed", casklessEvents)
	}
	if failed, ok := casklessEvents[0].(events.DownloadFailed); !ok || failed.URL != "" {
		t.Errorf("caskless event = %+v, want DownloadFailed with empty URL", casklessEvents[0])
	}

	// The bottled formula reports its full lifecycle.
	want := []events.Event{
		events.DownloadStarted{TargetID: "zstd", URL: "https://example.com/zstd-1.5.6.bottle.tar.gz"},
		events.DownloadProgressUpdate{TargetID: "zstd", BytesSoFar: 400000, TotalSize: 1000000},
		events.DownloadProgressUpdate{TargetID: "zstd", BytesSoFar: 1000000, TotalSize: 1000000},
		events.DownloadFinished{TargetID: "zstd", Path: bottlePath, SizeBytes: int64(len("bottle-bytes"))},
	}
	if diff := cmp.Diff(want, eventsFor(published, "zstd")); diff != "" {
		t.Errorf("zstd events mismatch (-want +got):\n%s", diff)
	}
	if got := byID["zstd"]; got.Path != bottlePath || got.Err != nil {
		t.Errorf("zstd outcome = %+v, want path %s", got, bottlePath)
	}
}

func TestCoordinatePanicIsolation(t *testing.T) {
	t.Parallel()

	jobs := []PlannedJob{
		{TargetID: "crasher", Target: &model.Formula{Name: "crasher", Version: "1", URL: "https://example.com/crasher.tar.gz"}, SourceBuild: true},
		{TargetID: "survivor", Target: &model.Formula{Name: "survivor", Version: "1", URL: "https://example.com/survivor.tar.gz"}, SourceBuild: true},
	}

	fetcher := &fakeFetcher{
		fetchSource: func(ctx context.Context, f *model.Formula, p fetch.Progress) (string, error) {
			if f.Name == "crasher" {
				panic("boom")
			}
			return "/tmp/survivor.tar.gz", nil
		},
	}

	outcomes, failures, _ := runCoordinate(t, jobs, fetcher)

	// One outcome and one recovered panic; together they cover all jobs.
	if len(outcomes)+len(failures) != len(jobs) {
		t.Fatalf("outcomes (%d) + failures (%d) must equal jobs (%d)", len(outcomes), len(failures), len(jobs))
	}
	if len(failures) != 1 {
		t.Fatalf("failures = %v, want exactly one", failures)
	}
	if failures[0].Label != PanicLabel {
		t.Errorf("failure label = %q, want %q", failures[0].Label, PanicLabel)
	}
	if got := failures[0].Err.Error(); !strings.Contains(got, "boom") {
		t.Errorf("failure error %q must carry the panic message", got)
	}
	if len(outcomes) != 1 || outcomes[0].Job.TargetID != "survivor" {
		t.Errorf("surviving outcome = %+v, want survivor", outcomes)
	}
}

func TestCoordinateDropsOutcomeOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []PlannedJob{
		{TargetID: "preseeded", Target: &model.Formula{Name: "preseeded", Version: "1.0"}, PrivateStorePath: "/store/x"},
	}

	bus := events.NewBus()
	defer bus.Close()

	// Nobody drains the unbuffered channel; the canceled context is the
	// only way out of the outcome send.
	outcomes := make(chan DownloadOutcome)
	failures := Coordinate(ctx, jobs, &fakeFetcher{}, bus, outcomes)
	if len(failures) != 0 {
		t.Errorf("a dropped outcome is not a task failure, got %v", failures)
	}
}

func TestCoordinateCachedBottle(t *testing.T) {
	t.Parallel()

	cachedPath := filepath.Join(t.TempDir(), "jq-1.7.1.bottle.tar.gz")
	if err := os.WriteFile(cachedPath, []byte("cached"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	jobs := []PlannedJob{
		{
			TargetID: "jq",
			Target: &model.Formula{
				Name:    "jq",
				Version: "1.7.1",
				Bottles: map[string]model.Bottle{"all": {URL: "https://example.com/jq.bottle.tar.gz"}},
			},
		},
	}
	fetcher := &fakeFetcher{
		fetchBottle: func(ctx context.Context, f *model.Formula, p fetch.Progress) (string, bool, error) {
			return cachedPath, true, nil
		},
	}

	outcomes, _, published := runCoordinate(t, jobs, fetcher)

	if len(outcomes) != 1 || !outcomes[0].Cached {
		t.Errorf("outcomes = %+v, want one cached outcome", outcomes)
	}
	jqEvents := eventsFor(published, "jq")
	if len(jqEvents) != 2 {
		t.Fatalf("jq events = %v, want DownloadStarted then DownloadCached", jqEvents)
	}
	cachedEvent, ok := jqEvents[1].(events.DownloadCached)
	if !ok {
		t.Fatalf("second event = %+v, want DownloadCached", jqEvents[1])
	}
	if cachedEvent.SizeBytes != int64(len("cached")) {
		t.Errorf("cached size = %d, want %d", cachedEvent.SizeBytes, len("cached"))
	}
}

func TestDisplayURL(t *testing.T) {
	t.Parallel()

	bottled := &model.Formula{
		Name:    "zstd",
		Version: "1",
		URL:     "https://example.com/zstd-src.tar.gz",
		Bottles: map[string]model.Bottle{"all": {URL: "https://example.com/zstd.bottle.tar.gz"}},
	}
	unbottled := &model.Formula{Name: "rare", Version: "1", URL: "https://example.com/rare-src.tar.gz"}

	tests := map[string]struct {
		job  PlannedJob
		want string
	}{
		"bottle url": {
			job:  PlannedJob{TargetID: "zstd", Target: bottled},
			want: "https://example.com/zstd.bottle.tar.gz",
		},
		"source build uses source url": {
			job:  PlannedJob{TargetID: "zstd", Target: bottled, SourceBuild: true},
			want: "https://example.com/zstd-src.tar.gz",
		},
		"missing bottle falls back to source url": {
			job:  PlannedJob{TargetID: "rare", Target: unbottled},
			want: "https://example.com/rare-src.tar.gz",
		},
		"cask without url": {
			job:  PlannedJob{TargetID: "bare", Target: &model.Cask{Token: "bare"}},
			want: "",
		},
		"cask with url": {
			job:  PlannedJob{TargetID: "app", Target: &model.Cask{Token: "app", URL: &model.CaskURL{URL: "https://example.com/App.dmg"}}},
			want: "https://example.com/App.dmg",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := DisplayURL(tc.job); got != tc.want {
				t.Errorf("DisplayURL = %q, want %q", got, tc.want)
			}
		})
	}
}

