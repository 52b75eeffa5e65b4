package plan

import (
	"cellar/internal/model"
	"cellar/internal/pipeline"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// IsURL reports whether a fetch argument names a raw download URL
// rather than a catalog entry.
func IsURL(arg string) bool {
	return strings.Contains(arg, "://")
}

// URLJob wraps a raw URL as an anonymous cask job so acquire-only runs
// ride the normal pipeline. The job id is the last path element,
// falling back to the host.
func URLJob(rawURL string) (pipeline.PlannedJob, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return pipeline.PlannedJob{}, fmt.Errorf("invalid download url: %s", rawURL)
	}

	token := path.Base(parsed.Path)
	if token == "" || token == "." || token == "/" {
		token = parsed.Host
	}
	target := &model.Cask{Token: token, URL: &model.CaskURL{URL: rawURL}}
	return pipeline.PlannedJob{TargetID: token, Target: target, Action: model.ActionInstall}, nil
}
