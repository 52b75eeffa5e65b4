package status

import (
	"bytes"
	"cellar/internal/events"
	"cellar/internal/model"
	"io"
	"strings"
	"testing"
)

func TestMonitorLogLineFormats(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		event events.Event
		want  string
	}{
		"download failure": {
			event: events.DownloadFailed{TargetID: "jq", Error: "connection reset"},
			want:  "Download failed: jq: connection reset",
		},
		"job success": {
			event: events.JobSuccess{TargetID: "firefox", Action: model.ActionUpgrade, PkgType: model.PackageCask},
			want:  "Upgraded: firefox (Cask)",
		},
		"job failure": {
			event: events.JobFailed{TargetID: "zstd", Error: "no bottle available"},
			want:  "✗ zstd: no bottle available",
		},
		"warning": {
			event: events.LogWarn{Message: "tap index is stale"},
			want:  "tap index is stale",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			m := NewMonitor(io.Discard)
			if done := m.handleEvent(tc.event); done {
				t.Fatal("event unexpectedly ended the monitor")
			}
			if len(m.logs) != 1 {
				t.Fatalf("buffered %d lines, want 1", len(m.logs))
			}
			if m.logs[0] != tc.want {
				t.Errorf("log line = %q, want %q", m.logs[0], tc.want)
			}
		})
	}
}

func TestMonitorCreatesRowForLateJobEvents(t *testing.T) {
	t.Parallel()

	m := NewMonitor(io.Discard)
	m.handleEvent(events.PipelineStarted{TotalJobs: 1})
	m.handleEvent(events.JobSuccess{TargetID: "jq", Action: model.ActionInstall, PkgType: model.PackageFormula})

	job := m.display.jobs["jq"]
	if job == nil {
		t.Fatal("success event did not create a row")
	}
	if job.Status != StatusSuccess {
		t.Errorf("status = %s, want Success", job.Status.State())
	}
	if job.PoolID != 1 {
		t.Errorf("pool id = %d, want 1", job.PoolID)
	}
}

func TestMonitorRunEndsOnPipelineFinished(t *testing.T) {
	t.Parallel()

	bus := events.NewBus()
	sub := bus.Subscribe(32)
	var buf bytes.Buffer
	m := NewMonitor(&buf)

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(sub)
	}()

	bus.Publish(events.PipelineStarted{TotalJobs: 1})
	bus.Publish(events.DownloadStarted{TargetID: "jq", URL: "https://example.com/jq.tar.gz"})
	bus.Publish(events.DownloadFinished{TargetID: "jq", Path: "/tmp/jq.tar.gz", SizeBytes: 1000})
	bus.Publish(events.JobSuccess{TargetID: "jq", Action: model.ActionInstall, PkgType: model.PackageFormula})
	bus.Publish(events.PipelineFinished{DurationSecs: 1.5, SuccessCount: 1, FailCount: 0})
	<-done

	out := buf.String()
	for _, want := range []string{
		"Starting pipeline.",
		"IID",
		"Pipeline finished in 1.50s (1 succeeded, 0 failed)",
		"Installed: jq (Formula)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMonitorRunFlushesLogsOnClose(t *testing.T) {
	t.Parallel()

	bus := events.NewBus()
	sub := bus.Subscribe(32)
	var buf bytes.Buffer
	m := NewMonitor(&buf)

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(sub)
	}()

	bus.Publish(events.PipelineStarted{TotalJobs: 2})
	bus.Publish(events.LogWarn{Message: "tap index is stale"})
	bus.Close()
	<-done

	if !strings.Contains(buf.String(), "tap index is stale") {
		t.Error("buffered log line was not flushed on close")
	}
}
