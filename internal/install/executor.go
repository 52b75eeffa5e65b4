// Package install drains download outcomes and turns artifacts into
// linked kegs: unpack, link, receipt.
package install

import (
	"cellar/internal/events"
	"cellar/internal/model"
	"cellar/internal/pipeline"
	"cellar/internal/state"
	"cellar/internal/utils"
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Executor installs each successful download as it arrives. Outcomes
// are handled one at a time; a full outcome channel is what throttles
// the download tasks.
type Executor struct {
	Bus     *events.Bus
	KegsDir string
	OptDir  string
}

// HandleOutcomes implements pipeline.OutcomeHandler. A failed job
// never aborts its siblings; it is reported on the bus and counted.
func (e *Executor) HandleOutcomes(ctx context.Context, outcomes <-chan pipeline.DownloadOutcome) (succeeded, failed int) {
	for outcome := range outcomes {
		if err := ctx.Err(); err != nil {
			// Keep draining so the producers shut down cleanly, but
			// stop doing the work.
			e.Bus.Publish(events.JobFailed{TargetID: outcome.Job.TargetID, Error: err.Error()})
			failed++
			continue
		}
		if err := e.handle(outcome); err != nil {
			utils.Debug("Job %s failed: %v", outcome.Job.TargetID, err)
			e.Bus.Publish(events.JobFailed{TargetID: outcome.Job.TargetID, Error: err.Error()})
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed
}

func (e *Executor) handle(outcome pipeline.DownloadOutcome) error {
	job := outcome.Job
	recordAcquisition(outcome)
	if outcome.Err != nil {
		return outcome.Err
	}

	e.Bus.Publish(events.JobProcessingStarted{TargetID: job.TargetID})
	if job.SourceBuild {
		e.Bus.Publish(events.BuildStarted{TargetID: job.TargetID})
	}

	e.Bus.Publish(events.InstallStarted{TargetID: job.TargetID})
	kegPath, err := e.installArtifact(job, outcome.Path)
	if err != nil {
		return err
	}

	e.Bus.Publish(events.LinkStarted{TargetID: job.TargetID})
	if err := e.linkKeg(job, kegPath); err != nil {
		return err
	}

	err = state.SaveReceipt(state.Receipt{
		Name:    job.TargetID,
		Version: job.Target.PkgVersion(),
		PkgType: job.Target.PkgType(),
		Action:  job.Action,
		KegPath: kegPath,
	})
	if err != nil {
		return err
	}

	e.Bus.Publish(events.JobSuccess{
		TargetID: job.TargetID,
		Action:   job.Action,
		PkgType:  job.Target.PkgType(),
	})
	return nil
}

// recordAcquisition appends the acquisition to history. A failure to
// write history never fails the job.
func recordAcquisition(outcome pipeline.DownloadOutcome) {
	rec := state.DownloadRecord{
		TargetID:  outcome.Job.TargetID,
		URL:       pipeline.DisplayURL(outcome.Job),
		Path:      outcome.Path,
		WasCached: outcome.Cached,
		Status:    state.DownloadStatusSuccess,
	}
	if outcome.Err != nil {
		rec.Status = state.DownloadStatusFailed
	}
	if outcome.Path != "" {
		if info, err := os.Stat(outcome.Path); err == nil {
			rec.SizeBytes = info.Size()
		}
	}
	if err := state.RecordDownload(rec); err != nil {
		utils.Debug("Failed to record download history for %s: %v", outcome.Job.TargetID, err)
	}
}

// installArtifact places the artifact under the kegs dir. Formula
// bottles arrive as tar.gz and are unpacked; casks and source
// tarballs are placed as files for later handling.
func (e *Executor) installArtifact(job pipeline.PlannedJob, artifact string) (string, error) {
	kegPath := filepath.Join(e.KegsDir, job.TargetID, job.Target.PkgVersion())
	if err := os.RemoveAll(kegPath); err != nil {
		return "", fmt.Errorf("failed to clear keg %s: %w", kegPath, err)
	}
	if err := os.MkdirAll(kegPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create keg %s: %w", kegPath, err)
	}

	_, isFormula := job.Target.(*model.Formula)
	if isFormula && !job.SourceBuild {
		if err := verifyGzip(artifact); err != nil {
			return "", err
		}
		if err := extractTarGz(artifact, kegPath); err != nil {
			return "", fmt.Errorf("failed to unpack %s: %w", filepath.Base(artifact), err)
		}
		return kegPath, nil
	}

	dest := filepath.Join(kegPath, filepath.Base(artifact))
	if err := copyFile(artifact, dest); err != nil {
		return "", fmt.Errorf("failed to place %s: %w", filepath.Base(artifact), err)
	}
	return kegPath, nil
}

// linkKeg points opt/<name> at the keg. An existing link is replaced,
// which is how upgrades move the stable path forward.
func (e *Executor) linkKeg(job pipeline.PlannedJob, kegPath string) error {
	if err := os.MkdirAll(e.OptDir, 0o755); err != nil {
		return fmt.Errorf("failed to create opt dir: %w", err)
	}

	link := filepath.Join(e.OptDir, job.TargetID)
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace link %s: %w", link, err)
	}
	if err := os.Symlink(kegPath, link); err != nil {
		return fmt.Errorf("failed to link %s: %w", link, err)
	}
	return nil
}
