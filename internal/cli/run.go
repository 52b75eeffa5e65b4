package cli

import (
	"cellar/internal/api"
	"cellar/internal/cache"
	"cellar/internal/catalog"
	"cellar/internal/config"
	"cellar/internal/events"
	"cellar/internal/fetch"
	"cellar/internal/install"
	"cellar/internal/pipeline"
	"cellar/internal/plan"
	"cellar/internal/status"
	"cellar/internal/utils"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

// pipelineRun describes one CLI-driven pipeline invocation.
type pipelineRun struct {
	names           []string
	urls            []string
	casks           bool
	buildFromSource bool
	listenAddr      string
	installTargets  bool
}

// runPipeline wires the bus, status monitor, planner, and pipeline for
// one run and blocks until the monitor has printed the final summary.
func runPipeline(run pipelineRun) (pipeline.Summary, error) {
	cat, err := catalog.Load(tapsDir())
	if err != nil {
		return pipeline.Summary{}, err
	}

	bus := events.NewBus()

	// The monitor owns the terminal until the run finishes.
	monitorSub := bus.Subscribe(settings.Pipeline.EventBuffer)
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		status.NewMonitor(os.Stdout).Run(monitorSub)
	}()

	// fail tears the run down before the pipeline has started.
	fail := func(err error) (pipeline.Summary, error) {
		bus.Close()
		<-monitorDone
		return pipeline.Summary{}, err
	}

	if run.listenAddr != "" {
		ln, err := net.Listen("tcp", run.listenAddr)
		if err != nil {
			return fail(fmt.Errorf("failed to listen on %s: %w", run.listenAddr, err))
		}
		defer ln.Close()

		token := api.EnsureAuthToken(config.GetStateDir())
		server := api.NewServer(bus, token, settings.Pipeline.EventBuffer)
		go func() {
			if err := server.Serve(ln); err != nil {
				utils.Debug("API server error: %v", err)
			}
		}()
		fmt.Printf("Serving events on http://%s/events\n", ln.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl+C cancels in-flight downloads; the run still drains and
	// reports its summary before exiting.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)
	go func() {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		fmt.Fprintf(os.Stderr, "\nReceived signal: %s. Canceling downloads...\n", sig)
		cancel()
	}()

	planner := &plan.Planner{
		Catalog:         cat,
		Store:           cache.NewPrivateStore(filepath.Join(config.GetCacheDir(), "private")),
		Bus:             bus,
		BuildFromSource: run.buildFromSource || settings.Pipeline.BuildFromSource,
	}

	var jobs []pipeline.PlannedJob
	if len(run.names) > 0 {
		jobs, err = planner.Plan(plan.Request{Names: run.names, Casks: run.casks})
		if err != nil {
			return fail(err)
		}
	}
	for _, rawURL := range run.urls {
		job, err := plan.URLJob(rawURL)
		if err != nil {
			return fail(err)
		}
		jobs = append(jobs, job)
	}

	client := fetch.NewClient(settings)
	defer client.Close()
	fetcher := fetch.NewHTTPFetcher(client, cache.New(config.GetCacheDir()))

	var handler pipeline.OutcomeHandler
	if run.installTargets {
		handler = &install.Executor{Bus: bus, KegsDir: config.GetKegsDir(), OptDir: config.GetOptDir()}
	} else {
		handler = install.FetchHandler{}
	}

	runner := &pipeline.Runner{
		Bus:        bus,
		Fetcher:    fetcher,
		Handler:    handler,
		QueueDepth: settings.Pipeline.QueueDepth,
	}
	summary := runner.Run(ctx, jobs)
	<-monitorDone
	return summary, nil
}
