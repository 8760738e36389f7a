// Package scan walks a source tree and records which source basenames feed
// each archive, as declared by the per-directory package descriptors.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/mehmetkoksal-w/archcheck/internal/config"
	"github.com/mehmetkoksal-w/archcheck/internal/fsutil"
	"github.com/mehmetkoksal-w/archcheck/internal/logger"
	"github.com/mehmetkoksal-w/archcheck/internal/manifest"
	"github.com/mehmetkoksal-w/archcheck/internal/set"
)

// Registry maps archive names to the source basenames known to belong to them.
// It is filled by Run and only read afterwards.
type Registry struct {
	archives map[string]set.Set[string]
}

// NewRegistry builds a registry from a literal mapping. The input is copied.
func NewRegistry(archives map[string][]string) *Registry {
	r := &Registry{archives: make(map[string]set.Set[string], len(archives))}
	for name, bases := range archives {
		r.add(name, set.New(bases...))
	}
	return r
}

func (r *Registry) add(archive string, bases set.Set[string]) {
	if existing, ok := r.archives[archive]; ok {
		existing.Union(bases)
		return
	}
	r.archives[archive] = bases.Clone()
}

// Names returns every archive name in ascending order.
func (r *Registry) Names() []string {
	keys := make([]string, 0, len(r.archives))
	for k := range r.archives {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of archives.
func (r *Registry) Len() int { return len(r.archives) }

// Has reports whether base is a known source basename of archive.
func (r *Registry) Has(archive, base string) bool {
	return r.archives[archive].Contains(base)
}

// Sources returns a copy of the basenames recorded for archive.
func (r *Registry) Sources(archive string) (set.Set[string], bool) {
	s, ok := r.archives[archive]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Run walks root and returns the populated registry. A malformed descriptor
// anywhere in the tree aborts the scan.
func Run(root string, cfg config.Config) (*Registry, error) {
	rootPath, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	exts := cfg.Extensions()
	reg := &Registry{archives: make(map[string]set.Set[string])}
	packages := 0

	err = filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != rootPath {
			rel, err := filepath.Rel(rootPath, path)
			if err != nil {
				return err
			}
			if fsutil.MatchesExclude(rel, cfg.ExcludeGlobs) {
				logger.Debug("skip excluded dir %s", rel)
				return filepath.SkipDir
			}
		}

		files, err := listFiles(path)
		if err != nil {
			return err
		}
		if !slices.Contains(files, cfg.ManifestName) {
			return nil
		}

		desc, err := manifest.ParseFile(filepath.Join(path, cfg.ManifestName))
		if err != nil {
			return err
		}
		archive := desc.ArchiveName(cfg.ArchivePrefix, path)

		bases := set.New[string]()
		for _, name := range files {
			base, ext, ok := fsutil.SplitExt(name)
			if ok && exts.Contains(ext) {
				bases.Add(base)
			}
		}
		reg.add(archive, bases)
		packages++
		logger.Debug("package %s -> %s (%d sources)", path, archive, bases.Len())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", rootPath, err)
	}

	logger.Info("scanned %d packages into %d archives", packages, reg.Len())
	return reg, nil
}

// listFiles returns the names of non-directory entries in dir. Symlinks are
// resolved; links to directories are left out.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(filepath.Join(dir, e.Name()))
			if err == nil && target.IsDir() {
				continue
			}
			files = append(files, e.Name())
			continue
		}
		if e.IsDir() {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}
