package status

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// speedWindow is the minimum interval between two throughput
	// samples; faster calls keep the previous estimate.
	speedWindow = 62500 * time.Microsecond

	summaryBarWidth = 8
	separatorWidth  = 49
)

// JobInfo is one tracked job row. Size and Current are pointers
// because zero is a legitimate byte count; nil means unknown.
type JobInfo struct {
	Name      string
	Status    JobStatus
	Size      *int64
	Current   *int64
	StartedAt time.Time
	PoolID    int
}

// Display owns the in-place terminal table. It is not safe for
// concurrent use; the monitor loop is its only caller.
type Display struct {
	out io.Writer

	jobs  map[string]*JobInfo
	order []string

	nextPoolID      int
	totalBytes      int64
	downloadedBytes int64
	active          map[string]struct{}

	lastSpeedUpdate    time.Time
	lastAggregateBytes int64
	currentSpeedBps    float64

	headerPrinted bool
	lastLineCount int

	summaryBar string
	speedText  string
}

// NewDisplay returns an empty display writing to out.
func NewDisplay(out io.Writer) *Display {
	return &Display{
		out:             out,
		jobs:            make(map[string]*JobInfo),
		active:          make(map[string]struct{}),
		nextPoolID:      1,
		lastSpeedUpdate: time.Now(),
	}
}

// UpsertJob creates or updates a job row. The first reference to a
// target id allocates the next sequential pool id; pool ids are never
// reused. A size passed here replaces the previous one, keeping the
// aggregate total consistent.
func (d *Display) UpsertJob(targetID string, st JobStatus, size *int64) {
	job, ok := d.jobs[targetID]
	if !ok {
		job = &JobInfo{Name: targetID, Status: StatusWaiting, PoolID: d.nextPoolID}
		d.nextPoolID++
		d.jobs[targetID] = job
		d.order = append(d.order, targetID)
	}

	wasDownloading := job.Status == StatusDownloading
	job.Status = st

	if st != StatusWaiting && job.StartedAt.IsZero() {
		job.StartedAt = time.Now()
	}
	if size != nil {
		d.setSize(job, *size)
	}

	switch {
	case st == StatusDownloading && !wasDownloading:
		d.active[targetID] = struct{}{}
		zero := int64(0)
		job.Current = &zero
	case wasDownloading && st != StatusDownloading:
		delete(d.active, targetID)
		if job.Size != nil {
			final := *job.Size
			job.Current = &final
			d.downloadedBytes += final
		} else {
			job.Current = nil
		}
	}
}

// UpdateDownloadProgress records transfer progress. A totalSize at or
// below zero means the length is unknown. Progress for an untracked
// job creates its row, already downloading; the bus may have shed the
// DownloadStarted event under load.
func (d *Display) UpdateDownloadProgress(targetID string, bytesSoFar, totalSize int64) {
	job, ok := d.jobs[targetID]
	if !ok {
		d.UpsertJob(targetID, StatusDownloading, nil)
		job = d.jobs[targetID]
	}

	current := bytesSoFar
	job.Current = &current

	if totalSize > 0 {
		d.setSize(job, totalSize)
	}
}

// setSize replaces a job's size, keeping totalBytes equal to the sum
// of all known sizes. The old contribution is subtracted, never
// recomputed from scratch.
func (d *Display) setSize(job *JobInfo, size int64) {
	if job.Size != nil {
		d.totalBytes -= *job.Size
	}
	v := size
	job.Size = &v
	d.totalBytes += v
}

// updateSpeed refreshes the throughput estimate from the aggregate
// downloading byte count. Samples closer together than speedWindow are
// ignored. A zero or negative delta keeps the previous estimate while
// downloads are live, and resets to zero once none are.
func (d *Display) updateSpeed() {
	now := time.Now()
	elapsed := now.Sub(d.lastSpeedUpdate).Seconds()
	if elapsed < speedWindow.Seconds() {
		return
	}

	var aggregate int64
	for id := range d.active {
		if job := d.jobs[id]; job != nil && job.Current != nil {
			aggregate += *job.Current
		}
	}

	delta := aggregate - d.lastAggregateBytes
	switch {
	case delta > 0:
		d.currentSpeedBps = float64(delta) / elapsed
	case len(d.active) == 0:
		d.currentSpeedBps = 0
	}

	d.lastAggregateBytes = aggregate
	d.lastSpeedUpdate = now
}

// Render redraws the table in place, erasing exactly the number of
// lines the previous redraw printed.
func (d *Display) Render() {
	d.updateSpeed()

	if d.headerPrinted {
		for i := 0; i < d.lastLineCount; i++ {
			fmt.Fprint(d.out, "\x1b[1A\x1b[2K")
		}
	}

	fmt.Fprintln(d.out, boldFaint.Sprintf("%-6s %-12s %-15s %8s %s", "IID", "STATE", "PKG", "SIZE", "SLOT"))
	for _, id := range d.order {
		fmt.Fprintln(d.out, d.formatRow(d.jobs[id]))
	}
	fmt.Fprintln(d.out, faint.Sprint(strings.Repeat("─", separatorWidth)))

	// Computed on every redraw; surfaced through SummaryBar and Speed
	// instead of printed.
	d.refreshSummary()

	d.lastLineCount = 1 + len(d.order) + 1
	d.headerPrinted = true
}

// formatRow renders one job line. Escape sequences count toward the
// printf widths, so colored cells pad wider than they look.
func (d *Display) formatRow(job *JobInfo) string {
	iid := cyan.Sprintf("#%02d", job.PoolID)

	progress := "–"
	switch {
	case job.Status == StatusDownloading && job.Current != nil:
		progress = FormatBytes(*job.Current)
	case job.Size != nil:
		progress = FormatBytes(*job.Size)
	}

	return fmt.Sprintf("%-6s %-12s %-15s %8s %s",
		iid, job.Status.ColoredState(), cyan.Sprint(job.Name), progress, job.Status.Glyph())
}

func (d *Display) refreshSummary() {
	filled := 0
	if d.totalBytes > 0 {
		ratio := float64(d.downloadedBytes) / float64(d.totalBytes)
		if ratio > 1 {
			ratio = 1
		}
		filled = int(ratio * summaryBarWidth)
	}
	d.summaryBar = green.Sprint(strings.Repeat("▍", filled)) +
		faint.Sprint(strings.Repeat("·", summaryBarWidth-filled))
	d.speedText = FormatSpeed(d.currentSpeedBps)
}

// SummaryBar returns the aggregate progress bar as of the last redraw.
func (d *Display) SummaryBar() string { return d.summaryBar }

// Speed returns the throughput label as of the last redraw.
func (d *Display) Speed() string { return d.speedText }
