package model

import (
	"fmt"
	"runtime"
)

// Formula describes a buildable package: a source URL plus optional
// prebuilt bottles keyed by platform tag.
type Formula struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"desc,omitempty"`
	URL          string            `json:"url"`
	SHA256       string            `json:"sha256,omitempty"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Bottles      map[string]Bottle `json:"bottles,omitempty"`
}

// Bottle is one prebuilt binary artifact of a formula for a specific
// platform tag.
type Bottle struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256,omitempty"`
}

func (f *Formula) ID() string { return f.Name }

func (f *Formula) PkgType() PackageType { return PackageFormula }

func (f *Formula) PkgVersion() string { return f.Version }

func (f *Formula) target() {}

// HasBottle reports whether a bottle exists for the given platform tag.
func (f *Formula) HasBottle(tag string) bool {
	_, ok := f.Bottles[tag]
	return ok
}

// BottleFor returns the bottle for the given platform tag. An "all" bottle
// serves any platform.
func (f *Formula) BottleFor(tag string) (Bottle, error) {
	if b, ok := f.Bottles[tag]; ok {
		return b, nil
	}
	if b, ok := f.Bottles["all"]; ok {
		return b, nil
	}
	return Bottle{}, fmt.Errorf("no bottle available for %s on %s", f.Name, tag)
}

// PlatformTag returns the bottle tag of the running platform, e.g.
// "x86_64_linux" or "arm64_darwin".
func PlatformTag() string {
	arch := runtime.GOARCH
	if arch == "amd64" {
		arch = "x86_64"
	}
	return arch + "_" + runtime.GOOS
}
