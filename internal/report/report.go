// Package report writes the optional JSON summary of a run.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mehmetkoksal-w/archcheck/internal/schemas"
	"github.com/mehmetkoksal-w/archcheck/internal/verify"
)

// Archive is the report entry for one registry archive.
type Archive struct {
	Name            string `json:"name"`
	Path            string `json:"path"`
	Status          string `json:"status"`
	Members         int    `json:"members,omitempty"`
	OffendingMember string `json:"offendingMember,omitempty"`
}

// Report is the JSON document written by --report.
type Report struct {
	RunID      string    `json:"runId"`
	StartedAt  string    `json:"startedAt"`
	FinishedAt string    `json:"finishedAt"`
	SrcDir     string    `json:"srcDir"`
	LibDir     string    `json:"libDir"`
	Archives   []Archive `json:"archives"`
}

// New builds a report for one run from the validator results.
func New(srcDir, libDir string, started, finished time.Time, results []verify.Result) Report {
	r := Report{
		RunID:      uuid.NewString(),
		StartedAt:  started.UTC().Format(time.RFC3339),
		FinishedAt: finished.UTC().Format(time.RFC3339),
		SrcDir:     srcDir,
		LibDir:     libDir,
		Archives:   make([]Archive, 0, len(results)),
	}
	for _, res := range results {
		r.Archives = append(r.Archives, Archive{
			Name:            res.Archive,
			Path:            res.Path,
			Status:          string(res.Status),
			Members:         res.Members,
			OffendingMember: res.Offending,
		})
	}
	return r
}

// Purged returns the archives removed during the run.
func (r Report) Purged() []Archive {
	var out []Archive
	for _, a := range r.Archives {
		if a.Status == string(verify.StatusPurged) {
			out = append(out, a)
		}
	}
	return out
}

// Write validates r against the report schema and writes it to path.
func Write(path string, r Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if err := schemas.Validate(schemas.Report, instance); err != nil {
		return fmt.Errorf("report invalid: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
