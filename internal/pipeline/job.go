package pipeline

import "cellar/internal/model"

// PlannedJob is one unit of work produced by the planner.
type PlannedJob struct {
	TargetID string
	Target   model.Target
	Action   model.JobAction

	// SourceBuild selects the source tarball over the bottle.
	SourceBuild bool

	// PrivateStorePath points at a pre-seeded artifact. When set, the
	// download stage hands it through untouched.
	PrivateStorePath string
}

// DownloadOutcome reports how acquisition went for one job. Path is set
// on success, Err on failure. Cached marks a bottle served from the
// local cache instead of the network.
type DownloadOutcome struct {
	Job    PlannedJob
	Path   string
	Cached bool
	Err    error
}

// TaskFailure pairs a job label with a fatal error that escaped the
// task instead of flowing through its outcome.
type TaskFailure struct {
	Label string
	Err   error
}
