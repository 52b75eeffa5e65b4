package install

import (
	"cellar/internal/pipeline"
	"context"
)

// FetchHandler drains outcomes for acquire-only runs. Artifacts stay in
// the cache and nothing is unpacked or linked, but every acquisition
// still lands in the download history. Cancellation needs no handling
// here: the fetchers honor the context, and a canceled download arrives
// as a failed outcome.
type FetchHandler struct{}

// HandleOutcomes implements pipeline.OutcomeHandler.
func (FetchHandler) HandleOutcomes(ctx context.Context, outcomes <-chan pipeline.DownloadOutcome) (succeeded, failed int) {
	for outcome := range outcomes {
		recordAcquisition(outcome)
		if outcome.Err != nil {
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed
}
