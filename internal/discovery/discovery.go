// Package discovery locates workflow definition files inside a repository.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultWorkflowsDir is where pipeline definitions live relative to the repository root.
const DefaultWorkflowsDir = ".github/workflows"

// DefaultExtensions are the recognised structured-configuration extensions.
var DefaultExtensions = []string{"yml", "yaml"}

// Options controls which files are returned.
type Options struct {
	WorkflowsDir string   // relative to the root; DefaultWorkflowsDir when empty
	Extensions   []string // without the dot; DefaultExtensions when empty
	Exclude      []string // glob patterns matched against root-relative slash paths
}

// Finder walks a repository and yields candidate workflow files.
type Finder struct {
	dir     string
	exts    map[string]bool
	exclude []glob.Glob
}

// NewFinder compiles the exclude patterns.
func NewFinder(opts Options) (*Finder, error) {
	f := &Finder{
		dir:  opts.WorkflowsDir,
		exts: make(map[string]bool),
	}
	if f.dir == "" {
		f.dir = DefaultWorkflowsDir
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	for _, ext := range exts {
		f.exts["."+strings.TrimPrefix(strings.ToLower(ext), ".")] = true
	}

	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

// Find returns the sorted workflow files under root. A repository without a
// workflows directory yields no files and no error.
func (f *Finder) Find(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("unable to access root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", root)
	}

	wfDir := filepath.Join(root, filepath.FromSlash(f.dir))
	if _, err := os.Stat(wfDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	paths := []string{}
	err = filepath.WalkDir(wfDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access %q: %w", path, err)
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !f.exts[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		if f.excluded(root, path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

func (f *Finder) excluded(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range f.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
