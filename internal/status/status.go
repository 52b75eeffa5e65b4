// Package status renders live pipeline progress to a terminal. A
// single goroutine consumes bus events and redraws the job table in
// place; everything here is single-threaded by construction.
package status

import "github.com/fatih/color"

// JobStatus tracks one job through the pipeline stages.
type JobStatus int

const (
	StatusWaiting JobStatus = iota
	StatusDownloading
	StatusDownloaded
	StatusCached
	StatusProcessing
	StatusInstalling
	StatusLinking
	StatusSuccess
	StatusFailed
)

var (
	faint     = color.New(color.Faint)
	bold      = color.New(color.Bold)
	boldFaint = color.New(color.Bold, color.Faint)
	cyan      = color.New(color.FgCyan)
	cyanBold  = color.New(color.FgCyan, color.Bold)
	blue      = color.New(color.FgBlue)
	green     = color.New(color.FgGreen)
	greenBold = color.New(color.FgGreen, color.Bold)
	yellow    = color.New(color.FgYellow)
	magenta   = color.New(color.FgMagenta)
	red       = color.New(color.FgRed)
	redBold   = color.New(color.FgRed, color.Bold)
)

// State returns the plain STATE column label.
func (s JobStatus) State() string {
	switch s {
	case StatusWaiting:
		return "Waiting"
	case StatusDownloading:
		return "Downloading"
	case StatusDownloaded:
		return "Downloaded"
	case StatusCached:
		return "Cached"
	case StatusProcessing:
		return "Processing"
	case StatusInstalling:
		return "Installing"
	case StatusLinking:
		return "Linking"
	case StatusSuccess:
		return "Success"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ColoredState renders the STATE label in its terminal color.
func (s JobStatus) ColoredState() string {
	switch s {
	case StatusWaiting:
		return faint.Sprint("Waiting")
	case StatusDownloading:
		return blue.Sprint("Downloading")
	case StatusDownloaded:
		return green.Sprint("Downloaded")
	case StatusCached:
		return cyan.Sprint("Cached")
	case StatusProcessing, StatusInstalling, StatusLinking:
		return yellow.Sprint(s.State())
	case StatusSuccess:
		return green.Sprint("Success")
	case StatusFailed:
		return red.Sprint("Failed")
	default:
		return s.State()
	}
}

// Glyph returns the SLOT indicator drawn at the end of a row.
func (s JobStatus) Glyph() string {
	switch s {
	case StatusWaiting:
		return yellow.Sprint(" ⧗")
	case StatusDownloading:
		return blue.Sprint(" ⬇")
	case StatusDownloaded:
		return green.Sprint(" ✓")
	case StatusCached:
		return cyan.Sprint(" ⌂")
	case StatusProcessing:
		return yellow.Sprint(" ⚙")
	case StatusInstalling:
		return cyan.Sprint(" ⚙")
	case StatusLinking:
		return magenta.Sprint(" →")
	case StatusSuccess:
		return greenBold.Sprint(" ✓")
	case StatusFailed:
		return redBold.Sprint(" ✗")
	default:
		return "  "
	}
}
