package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeDefinition(t *testing.T, tapsDir, tap, kind, file, content string) {
	t.Helper()
	dir := filepath.Join(tapsDir, tap, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", file, err)
	}
}

func TestLoadMissingTapsDir(t *testing.T) {
	t.Parallel()

	c, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if names := c.FormulaNames(); len(names) != 0 {
		t.Errorf("expected empty catalog, got formulae %v", names)
	}
}

func TestLoadAndLookup(t *testing.T) {
	t.Parallel()

	tapsDir := t.TempDir()
	writeDefinition(t, tapsDir, "core", "formula", "jq.json",
		`{"name": "jq", "version": "1.7.1", "url": "https://example.com/jq-1.7.1.tar.gz"}`)
	writeDefinition(t, tapsDir, "core", "cask", "firefox.json",
		`{"token": "firefox", "version": "129.0", "url": "https://example.com/Firefox.dmg"}`)

	c, err := Load(tapsDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	f, err := c.Formula("jq")
	if err != nil {
		t.Fatalf("Formula(jq): %v", err)
	}
	if f.Version != "1.7.1" {
		t.Errorf("jq version = %q, want 1.7.1", f.Version)
	}

	ck, err := c.Cask("firefox")
	if err != nil {
		t.Fatalf("Cask(firefox): %v", err)
	}
	if ck.URL == nil || ck.URL.URL != "https://example.com/Firefox.dmg" {
		t.Errorf("firefox url = %+v, want https://example.com/Firefox.dmg", ck.URL)
	}

	if _, err := c.Formula("nope"); !errors.Is(err, ErrUnknownFormula) {
		t.Errorf("Formula(nope) error = %v, want ErrUnknownFormula", err)
	}
	if _, err := c.Cask("nope"); !errors.Is(err, ErrUnknownCask) {
		t.Errorf("Cask(nope) error = %v, want ErrUnknownCask", err)
	}
}

func TestLoadSkipsMalformedDefinitions(t *testing.T) {
	t.Parallel()

	tapsDir := t.TempDir()
	writeDefinition(t, tapsDir, "core", "formula", "broken.json", `{"name": `)
	writeDefinition(t, tapsDir, "core", "formula", "wget.json",
		`{"version": "1.24.5", "url": "https://example.com/wget.tar.gz"}`)

	c, err := Load(tapsDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The file name supplies the formula name when the definition omits it.
	if _, err := c.Formula("wget"); err != nil {
		t.Errorf("Formula(wget): %v", err)
	}
	if diff := cmp.Diff([]string{"wget"}, c.FormulaNames()); diff != "" {
		t.Errorf("formula names mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFirstTapWins(t *testing.T) {
	t.Parallel()

	tapsDir := t.TempDir()
	writeDefinition(t, tapsDir, "alpha", "formula", "jq.json",
		`{"name": "jq", "version": "1.7.1", "url": "https://alpha.example.com/jq.tar.gz"}`)
	writeDefinition(t, tapsDir, "beta", "formula", "jq.json",
		`{"name": "jq", "version": "1.6.0", "url": "https://beta.example.com/jq.tar.gz"}`)

	c, err := Load(tapsDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f, err := c.Formula("jq")
	if err != nil {
		t.Fatalf("Formula(jq): %v", err)
	}
	if f.Version != "1.7.1" {
		t.Errorf("jq version = %q, want the alpha tap's 1.7.1", f.Version)
	}
}
