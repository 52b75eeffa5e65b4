// Package catalog loads formula and cask definitions from local taps.
//
// A tap is a directory under the taps root with a formula/ and/or cask/
// subdirectory holding one JSON definition per file. Taps are loaded in
// lexical order and the first definition of a name wins.
package catalog

import (
	"cellar/internal/model"
	"cellar/internal/utils"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrUnknownFormula = errors.New("unknown formula")
	ErrUnknownCask    = errors.New("unknown cask")
)

// Catalog is the merged view over every loaded tap.
type Catalog struct {
	formulae map[string]*model.Formula
	casks    map[string]*model.Cask
}

// Load reads every tap under tapsDir. A missing taps directory yields an
// empty catalog. Definition files that fail to parse are skipped, not
// fatal; a tap with a single bad file should not take the whole catalog
// down with it.
func Load(tapsDir string) (*Catalog, error) {
	c := &Catalog{
		formulae: make(map[string]*model.Formula),
		casks:    make(map[string]*model.Cask),
	}

	taps, err := os.ReadDir(tapsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read taps directory: %w", err)
	}

	for _, tap := range taps {
		if !tap.IsDir() {
			continue
		}
		tapPath := filepath.Join(tapsDir, tap.Name())
		if err := c.loadFormulae(filepath.Join(tapPath, "formula")); err != nil {
			return nil, fmt.Errorf("failed to load tap %s: %w", tap.Name(), err)
		}
		if err := c.loadCasks(filepath.Join(tapPath, "cask")); err != nil {
			return nil, fmt.Errorf("failed to load tap %s: %w", tap.Name(), err)
		}
	}
	return c, nil
}

func (c *Catalog) loadFormulae(dir string) error {
	return eachDefinition(dir, func(path string, data []byte) {
		var f model.Formula
		if err := json.Unmarshal(data, &f); err != nil {
			utils.Debug("Skipping malformed formula definition %s: %v", path, err)
			return
		}
		if f.Name == "" {
			f.Name = definitionName(path)
		}
		if _, exists := c.formulae[f.Name]; exists {
			utils.Debug("Duplicate formula %s from %s ignored", f.Name, path)
			return
		}
		c.formulae[f.Name] = &f
	})
}

func (c *Catalog) loadCasks(dir string) error {
	return eachDefinition(dir, func(path string, data []byte) {
		var ck model.Cask
		if err := json.Unmarshal(data, &ck); err != nil {
			utils.Debug("Skipping malformed cask definition %s: %v", path, err)
			return
		}
		if ck.Token == "" {
			ck.Token = definitionName(path)
		}
		if _, exists := c.casks[ck.Token]; exists {
			utils.Debug("Duplicate cask %s from %s ignored", ck.Token, path)
			return
		}
		c.casks[ck.Token] = &ck
	})
}

// eachDefinition calls fn with the contents of every .json file in dir.
// A missing dir is fine; taps may ship only formulae or only casks.
func eachDefinition(dir string, fn func(path string, data []byte)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read definition %s: %w", path, err)
		}
		fn(path, data)
	}
	return nil
}

func definitionName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".json")
}

// Formula looks a formula up by name.
func (c *Catalog) Formula(name string) (*model.Formula, error) {
	f, ok := c.formulae[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormula, name)
	}
	return f, nil
}

// Cask looks a cask up by token.
func (c *Catalog) Cask(token string) (*model.Cask, error) {
	ck, ok := c.casks[token]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCask, token)
	}
	return ck, nil
}

// FormulaNames returns every known formula name in sorted order.
func (c *Catalog) FormulaNames() []string {
	names := make([]string, 0, len(c.formulae))
	for name := range c.formulae {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CaskTokens returns every known cask token in sorted order.
func (c *Catalog) CaskTokens() []string {
	tokens := make([]string, 0, len(c.casks))
	for token := range c.casks {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
