package cellar

import (
	"cellar/internal/catalog"
	"cellar/internal/config"
	"cellar/internal/model"
	"cellar/internal/pipeline"
	"cellar/internal/state"
)

// Re-exported types for the public API to keep internal packages private
// while maintaining a stable surface for consumers.
type Settings = config.Settings
type Catalog = catalog.Catalog

type Formula = model.Formula
type Cask = model.Cask
type PackageType = model.PackageType
type JobAction = model.JobAction

type PlannedJob = pipeline.PlannedJob
type DownloadOutcome = pipeline.DownloadOutcome
type TaskFailure = pipeline.TaskFailure
type Summary = pipeline.Summary

type Receipt = state.Receipt
type DownloadRecord = state.DownloadRecord
