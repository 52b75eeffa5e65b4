package status

import (
	"cellar/internal/events"
	"cellar/internal/utils"
	"fmt"
	"io"
	"time"
)

// tickInterval paces redraws between events so elapsed-time cells and
// the throughput estimate stay live during slow transfers.
const tickInterval = 62 * time.Millisecond

// Monitor consumes pipeline events from a bus subscription and keeps
// the terminal table current. Informational lines are buffered and
// flushed after the table stops redrawing, so they never tear it.
type Monitor struct {
	display *Display
	out     io.Writer
	logs    []string
	active  bool
}

// NewMonitor returns a monitor writing to out.
func NewMonitor(out io.Writer) *Monitor {
	return &Monitor{display: NewDisplay(out), out: out}
}

// Run processes events until the pipeline reports completion or the
// subscription channel closes. It is the only goroutine touching the
// display. Ticks that arrive while an event is being handled are
// simply the next ones delivered; ticker backlog is dropped.
func (m *Monitor) Run(sub *events.Subscription) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-sub.Events():
			if !ok {
				// No more senders. Finish the drawing and hand the
				// buffered lines over before leaving the screen.
				if m.display.headerPrinted {
					m.display.Render()
				}
				m.flushLogs()
				return
			}
			if m.handleEvent(e) {
				return
			}
		case <-ticker.C:
			if m.active && m.display.headerPrinted {
				m.display.Render()
			}
		}
	}
}

// handleEvent updates state for one event and reports whether the
// monitor is done.
func (m *Monitor) handleEvent(e events.Event) bool {
	switch v := e.(type) {
	case events.PipelineStarted:
		m.active = true
		fmt.Fprintln(m.out, cyanBold.Sprint("Starting pipeline."))
	case events.PlanningStarted:
		utils.Debug("Planning operations.")
	case events.PlanningFinished:
		fmt.Fprintf(m.out, "%s %d\n\n", bold.Sprint("Planning finished. Jobs:"), v.JobCount)
	case events.DependencyResolutionStarted:
		fmt.Fprintln(m.out, cyan.Sprint("Resolving dependencies"))
	case events.DependencyResolutionFinished:
		utils.Debug("Dependency resolution complete.")
	case events.DownloadStarted:
		m.display.UpsertJob(v.TargetID, StatusDownloading, nil)
		m.renderIfActive()
	case events.DownloadProgressUpdate:
		m.display.UpdateDownloadProgress(v.TargetID, v.BytesSoFar, v.TotalSize)
		m.renderIfActive()
	case events.DownloadFinished:
		m.display.UpsertJob(v.TargetID, StatusDownloaded, &v.SizeBytes)
		m.renderIfActive()
	case events.DownloadCached:
		m.display.UpsertJob(v.TargetID, StatusCached, &v.SizeBytes)
		m.renderIfActive()
	case events.DownloadFailed:
		m.display.UpsertJob(v.TargetID, StatusFailed, nil)
		m.log(red.Sprint("Download failed:") + " " + cyan.Sprint(v.TargetID) + ": " + red.Sprint(v.Error))
		m.renderIfActive()
	case events.JobProcessingStarted:
		m.display.UpsertJob(v.TargetID, StatusProcessing, nil)
		m.renderIfActive()
	case events.BuildStarted:
		m.display.UpsertJob(v.TargetID, StatusProcessing, nil)
		m.renderIfActive()
	case events.InstallStarted:
		m.display.UpsertJob(v.TargetID, StatusInstalling, nil)
		m.renderIfActive()
	case events.LinkStarted:
		m.display.UpsertJob(v.TargetID, StatusLinking, nil)
		m.renderIfActive()
	case events.JobSuccess:
		m.display.UpsertJob(v.TargetID, StatusSuccess, nil)
		m.log(green.Sprint(v.Action.Label()) + ": " + cyan.Sprint(v.TargetID) + " (" + v.PkgType.Label() + ")")
		m.renderIfActive()
	case events.JobFailed:
		m.display.UpsertJob(v.TargetID, StatusFailed, nil)
		m.log(redBold.Sprint("✗") + " " + cyan.Sprint(v.TargetID) + ": " + red.Sprint(v.Error))
		m.renderIfActive()
	case events.LogInfo:
		m.log(v.Message)
	case events.LogWarn:
		m.log(yellow.Sprint(v.Message))
	case events.LogError:
		m.log(red.Sprint(v.Message))
	case events.PipelineFinished:
		if m.display.headerPrinted {
			m.display.Render()
		}
		fmt.Fprintln(m.out)
		fmt.Fprintf(m.out, "%s in %.2fs (%d succeeded, %d failed)\n",
			bold.Sprint("Pipeline finished"), v.DurationSecs, v.SuccessCount, v.FailCount)
		m.flushLogs()
		return true
	}
	return false
}

func (m *Monitor) renderIfActive() {
	if m.active {
		m.display.Render()
	}
}

func (m *Monitor) log(line string) {
	m.logs = append(m.logs, line)
}

func (m *Monitor) flushLogs() {
	if len(m.logs) == 0 {
		return
	}
	fmt.Fprintln(m.out)
	for _, line := range m.logs {
		fmt.Fprintln(m.out, line)
	}
}
