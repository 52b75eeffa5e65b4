// Package cellar embeds the package pipeline behind a stable API.
//
// A Client owns the shared process state (settings, logging, receipt
// database) and carries at most one pipeline run; its event stream
// ends when that run finishes.
package cellar

import (
	"cellar/internal/cache"
	"cellar/internal/catalog"
	"cellar/internal/config"
	"cellar/internal/events"
	"cellar/internal/fetch"
	"cellar/internal/install"
	"cellar/internal/pipeline"
	"cellar/internal/plan"
	"cellar/internal/state"
	"cellar/internal/utils"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Client exposes a stable API for embedding the pipeline while owning
// shared resources that must be initialized once per process.
type Client struct {
	settings *config.Settings
	catalog  *catalog.Catalog
	store    *cache.Store
	private  *cache.PrivateStore
	client   *fetch.Client
	fetcher  fetch.Fetcher
	bus      *events.Bus

	closeOnce sync.Once
}

// NewClient initializes the engine and returns a ready-to-use client.
// It wires logging, state storage, the catalog, and the fetch layer so
// callers do not need to manage internal singletons directly.
func NewClient(opts *ClientOptions) (*Client, error) {
	settings := resolveSettings(opts)

	// Ensure the directory layout exists before settings or state load.
	if err := config.EnsureDirs(); err != nil {
		return nil, err
	}

	logsDir := config.GetLogsDir()
	if opts != nil && opts.LogsDir != "" {
		logsDir = opts.LogsDir
	}

	// Debug and verbosity are process-wide switches; configure them once here.
	utils.ConfigureDebug(logsDir)
	if opts != nil {
		utils.SetVerbose(opts.Verbose)
	}
	utils.CleanupLogs(settings.General.LogRetentionCount)

	statePath := filepath.Join(config.GetStateDir(), "cellar.db")
	if opts != nil && opts.StatePath != "" {
		statePath = utils.EnsureAbsPath(opts.StatePath)
	}
	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return nil, err
	}
	state.Configure(statePath)

	tapsDir := config.GetTapsDir()
	if settings.General.TapsDir != "" {
		tapsDir = settings.General.TapsDir
	}
	if opts != nil && opts.TapsDir != "" {
		tapsDir = utils.EnsureAbsPath(opts.TapsDir)
	}
	cat, err := catalog.Load(tapsDir)
	if err != nil {
		return nil, err
	}

	privateDir := filepath.Join(config.GetCacheDir(), "private")
	if opts != nil && opts.PrivateStoreDir != "" {
		privateDir = utils.EnsureAbsPath(opts.PrivateStoreDir)
	}

	fetchClient := fetch.NewClient(settings)
	store := cache.New(config.GetCacheDir())

	return &Client{
		settings: settings,
		catalog:  cat,
		store:    store,
		private:  cache.NewPrivateStore(privateDir),
		client:   fetchClient,
		fetcher:  fetch.NewHTTPFetcher(fetchClient, store),
		bus:      events.NewBus(),
	}, nil
}

// resolveSettings keeps the client usable even when settings are
// missing or fail to load from disk.
func resolveSettings(opts *ClientOptions) *config.Settings {
	if opts != nil && opts.Settings != nil {
		return opts.Settings
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return config.DefaultSettings()
	}
	return settings
}

// Events subscribes to the run's event stream. The subscription closes
// when the run finishes or the client is closed.
func (c *Client) Events(buffer int) (*Subscription, error) {
	if c == nil || c.bus == nil {
		return nil, errors.New("client not initialized")
	}
	return c.bus.Subscribe(buffer), nil
}

// Plan resolves names into jobs without running anything.
func (c *Client) Plan(names []string, opts *InstallOptions) ([]PlannedJob, error) {
	if c == nil || c.catalog == nil {
		return nil, errors.New("client not initialized")
	}
	casks := opts != nil && opts.Casks
	return c.planner(opts != nil && opts.BuildFromSource).Plan(plan.Request{Names: names, Casks: casks})
}

// Install plans and runs the full pipeline for the given names. The
// final summary event is published and the event stream closed before
// it returns.
func (c *Client) Install(ctx context.Context, names []string, opts *InstallOptions) (Summary, error) {
	if c == nil || c.fetcher == nil {
		return Summary{}, errors.New("client not initialized")
	}

	jobs, err := c.Plan(names, opts)
	if err != nil {
		return Summary{}, err
	}

	handler := &install.Executor{Bus: c.bus, KegsDir: config.GetKegsDir(), OptDir: config.GetOptDir()}
	return c.run(ctx, jobs, handler), nil
}

// Fetch acquires artifacts into the cache without installing them.
// Arguments are catalog names or raw download URLs.
func (c *Client) Fetch(ctx context.Context, args []string, opts *FetchOptions) (Summary, error) {
	if c == nil || c.fetcher == nil {
		return Summary{}, errors.New("client not initialized")
	}

	var names []string
	var jobs []PlannedJob
	for _, arg := range args {
		if !plan.IsURL(arg) {
			names = append(names, arg)
			continue
		}
		job, err := plan.URLJob(arg)
		if err != nil {
			return Summary{}, err
		}
		jobs = append(jobs, job)
	}

	if len(names) > 0 {
		casks := opts != nil && opts.Casks
		planned, err := c.planner(false).Plan(plan.Request{Names: names, Casks: casks})
		if err != nil {
			return Summary{}, err
		}
		jobs = append(planned, jobs...)
	}

	return c.run(ctx, jobs, install.FetchHandler{}), nil
}

func (c *Client) planner(buildFromSource bool) *plan.Planner {
	return &plan.Planner{
		Catalog:         c.catalog,
		Store:           c.private,
		Bus:             c.bus,
		BuildFromSource: buildFromSource || c.settings.Pipeline.BuildFromSource,
	}
}

func (c *Client) run(ctx context.Context, jobs []PlannedJob, handler pipeline.OutcomeHandler) Summary {
	runner := &pipeline.Runner{
		Bus:        c.bus,
		Fetcher:    c.fetcher,
		Handler:    handler,
		QueueDepth: c.settings.Pipeline.QueueDepth,
	}
	return runner.Run(ctx, jobs)
}

// Receipts lists installed packages.
func (c *Client) Receipts() ([]Receipt, error) {
	if c == nil {
		return nil, errors.New("client not initialized")
	}
	return state.ListReceipts()
}

// History returns recent acquisitions, newest first.
func (c *Client) History(limit int) ([]DownloadRecord, error) {
	if c == nil {
		return nil, errors.New("client not initialized")
	}
	return state.RecentDownloads(limit)
}

// Catalog exposes the loaded definitions.
func (c *Client) Catalog() *Catalog {
	if c == nil {
		return nil
	}
	return c.catalog
}

// Close releases the HTTP transports and the receipt database.
// It is safe to call multiple times from different goroutines.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.bus.Close()
		c.client.Close()
		state.CloseDB()
	})
}
