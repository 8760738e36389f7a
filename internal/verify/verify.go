// Package verify reconciles built archives with the sources that should feed
// them and removes archives holding objects nobody builds anymore.
package verify

import (
	"fmt"
	"io"
	"os"

	"github.com/mehmetkoksal-w/archcheck/internal/archive"
	"github.com/mehmetkoksal-w/archcheck/internal/config"
	"github.com/mehmetkoksal-w/archcheck/internal/fsutil"
	"github.com/mehmetkoksal-w/archcheck/internal/logger"
	"github.com/mehmetkoksal-w/archcheck/internal/scan"
)

// Status is the verdict reached for one archive.
type Status string

const (
	StatusMissing Status = "missing"
	StatusOK      Status = "ok"
	StatusPurged  Status = "purged"
)

// Result describes what happened to one archive.
type Result struct {
	Archive   string
	Path      string
	Status    Status
	Members   int    // object members inspected
	Offending string // first member without a source, set when purged
}

// Lister returns the object members of an archive file.
type Lister interface {
	Members(archivePath string) ([]archive.Member, error)
}

// Options locates archives and receives purge messages.
type Options struct {
	LibDir string
	Config config.Config
	Out    io.Writer // receives one line per purged archive
}

// Run checks every archive in reg, in name order. Archives that are not on
// disk are skipped. An archive with a member lacking a known source is deleted
// and checking moves on to the next archive. Listing and deletion failures
// abort the run.
func Run(reg *scan.Registry, lister Lister, opts Options) ([]Result, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	var results []Result
	for _, name := range reg.Names() {
		res, err := check(reg, lister, opts.Config.ArchivePath(opts.LibDir, name), name)
		if err != nil {
			return results, err
		}
		if res.Status == StatusPurged {
			if err := os.Remove(res.Path); err != nil {
				return results, fmt.Errorf("remove %s: %w", res.Path, err)
			}
			fmt.Fprintf(out, "Could not find source for object %s in archive %s , removing archive.\n", res.Offending, res.Path)
		}
		results = append(results, res)
	}

	purged := 0
	for _, r := range results {
		if r.Status == StatusPurged {
			purged++
		}
	}
	logger.Info("checked %d archives, purged %d", len(results), purged)
	return results, nil
}

func check(reg *scan.Registry, lister Lister, path, name string) (Result, error) {
	res := Result{Archive: name, Path: path}
	exists, err := fsutil.FileExists(path)
	if err != nil {
		return res, fmt.Errorf("stat %s: %w", path, err)
	}
	if !exists {
		res.Status = StatusMissing
		logger.Debug("archive %s not built, skipping", path)
		return res, nil
	}

	members, err := lister.Members(path)
	if err != nil {
		return res, err
	}
	res.Status = StatusOK
	for _, m := range members {
		res.Members++
		if !reg.Has(name, m.Base) {
			res.Status = StatusPurged
			res.Offending = m.Name
			break
		}
	}
	logger.Debug("archive %s: %s after %d members", path, res.Status, res.Members)
	return res, nil
}
