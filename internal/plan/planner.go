// Package plan turns requested package names into the jobs the
// pipeline will run.
package plan

import (
	"cellar/internal/cache"
	"cellar/internal/catalog"
	"cellar/internal/events"
	"cellar/internal/model"
	"cellar/internal/pipeline"
	"cellar/internal/state"
	"cellar/internal/utils"
	"fmt"
	"strings"
)

// Planner resolves names against the catalog and produces planned
// jobs. All planning happens before the pipeline starts; unknown names
// and cycles fail the run up front.
type Planner struct {
	Catalog *catalog.Catalog
	Store   *cache.PrivateStore
	Bus     *events.Bus

	// BuildFromSource forces source builds even where a bottle exists.
	BuildFromSource bool
}

// Request is what the user asked for. With Casks set, names are cask
// tokens; otherwise they are formula names expanded with their
// dependency closures.
type Request struct {
	Names []string
	Casks bool
}

// Plan produces one job per resolved target, dependencies first.
func (p *Planner) Plan(req Request) ([]pipeline.PlannedJob, error) {
	p.Bus.Publish(events.PlanningStarted{})

	var jobs []pipeline.PlannedJob
	if req.Casks {
		for _, token := range req.Names {
			cask, err := p.Catalog.Cask(token)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, p.caskJob(cask))
		}
	} else {
		ordered, err := p.resolveFormulae(req.Names)
		if err != nil {
			return nil, err
		}
		for _, formula := range ordered {
			jobs = append(jobs, p.formulaJob(formula))
		}
	}

	p.Bus.Publish(events.PlanningFinished{JobCount: len(jobs)})
	return jobs, nil
}

// resolveFormulae expands the requested names into their dependency
// closure, dependencies before dependents, each formula once.
func (p *Planner) resolveFormulae(names []string) ([]*model.Formula, error) {
	p.Bus.Publish(events.DependencyResolutionStarted{})

	var (
		ordered []*model.Formula
		visited = map[string]bool{}
	)
	var visit func(name string, trail []string) error
	visit = func(name string, trail []string) error {
		if visited[name] {
			return nil
		}
		for _, seen := range trail {
			if seen == name {
				return fmt.Errorf("dependency cycle: %s", strings.Join(append(trail, name), " -> "))
			}
		}

		formula, err := p.Catalog.Formula(name)
		if err != nil {
			return err
		}
		for _, dep := range formula.Dependencies {
			if err := visit(dep, append(trail, name)); err != nil {
				return err
			}
		}
		visited[name] = true
		ordered = append(ordered, formula)
		return nil
	}

	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}

	p.Bus.Publish(events.DependencyResolutionFinished{})
	return ordered, nil
}

func (p *Planner) formulaJob(f *model.Formula) pipeline.PlannedJob {
	_, err := f.BottleFor(model.PlatformTag())
	return pipeline.PlannedJob{
		TargetID:         f.Name,
		Target:           f,
		Action:           p.actionFor(f.Name, f.Version),
		SourceBuild:      p.BuildFromSource || err != nil,
		PrivateStorePath: p.privateArtifact(f.Name, f.Version),
	}
}

func (p *Planner) caskJob(c *model.Cask) pipeline.PlannedJob {
	return pipeline.PlannedJob{
		TargetID:         c.Token,
		Target:           c,
		Action:           p.actionFor(c.Token, c.Version),
		PrivateStorePath: p.privateArtifact(c.Token, c.Version),
	}
}

// actionFor consults the receipts: no receipt is a fresh install, a
// different version an upgrade, the same version a reinstall.
func (p *Planner) actionFor(name, version string) model.JobAction {
	receipt, err := state.GetReceipt(name)
	if err != nil {
		utils.Debug("Failed to load receipt for %s: %v", name, err)
		return model.ActionInstall
	}
	if receipt == nil {
		return model.ActionInstall
	}
	if receipt.Version != version {
		return model.ActionUpgrade
	}
	return model.ActionReinstall
}

func (p *Planner) privateArtifact(name, version string) string {
	path, ok := p.Store.Artifact(name, version)
	if !ok {
		return ""
	}
	return path
}
