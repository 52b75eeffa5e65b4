package cellar

import "cellar/internal/config"

// ClientOptions configures the embedded engine.
type ClientOptions struct {
	Verbose         bool
	Settings        *config.Settings
	StatePath       string
	LogsDir         string
	TapsDir         string
	PrivateStoreDir string
}

// InstallOptions control one install run.
type InstallOptions struct {
	Casks           bool
	BuildFromSource bool
}

// FetchOptions control one acquire-only run.
type FetchOptions struct {
	Casks bool
}
