// Package model defines the package definitions the pipeline operates on:
// formulae (buildable packages with optional prebuilt bottles) and casks
// (downloadable application assets). Both satisfy Target, a closed union
// resolved by exhaustive type switches rather than virtual dispatch.
package model

// PackageType distinguishes formulae from casks in events and receipts.
type PackageType string

const (
	PackageFormula PackageType = "formula"
	PackageCask    PackageType = "cask"
)

// Label returns the capitalized kind used in summary lines.
func (t PackageType) Label() string {
	if t == PackageCask {
		return "Cask"
	}
	return "Formula"
}

// JobAction describes why a job exists: a fresh install, an upgrade over
// an older keg, or a reinstall of the same version.
type JobAction string

const (
	ActionInstall   JobAction = "install"
	ActionUpgrade   JobAction = "upgrade"
	ActionReinstall JobAction = "reinstall"
)

// Label returns the past-tense verb used in summary lines.
func (a JobAction) Label() string {
	switch a {
	case ActionUpgrade:
		return "Upgraded"
	case ActionReinstall:
		return "Reinstalled"
	default:
		return "Installed"
	}
}

// Target is the closed set of installable package kinds. Only Formula and
// Cask implement it; consumers switch exhaustively on the concrete type.
type Target interface {
	// ID returns the stable identifier: formula name or cask token.
	ID() string
	// PkgType reports which kind of package this is.
	PkgType() PackageType
	// PkgVersion returns the version string used for keg paths and receipts.
	PkgVersion() string

	target()
}
