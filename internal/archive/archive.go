// Package archive lists the members of static archives through an external
// archiver tool.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"github.com/mehmetkoksal-w/archcheck/internal/logger"
)

// InvocationError reports an archiver run that could not start or exited non-zero.
type InvocationError struct {
	Archiver string
	Archive  string
	Stderr   string
	Err      error
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("%s t %s: %v", e.Archiver, e.Archive, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *InvocationError) Unwrap() error { return e.Err }

// MemberFormatError reports a listed member that is neither an object file
// nor a known sentinel entry.
type MemberFormatError struct {
	Archive string
	Member  string
	Suffix  string
}

func (e *MemberFormatError) Error() string {
	return fmt.Sprintf("archive %s: member %q does not end in %q", e.Archive, e.Member, e.Suffix)
}

// Member is one object entry of an archive.
type Member struct {
	Name string // as listed, e.g. "foo.o"
	Base string // Name without the object suffix
}

// Inspector runs the archiver's table-of-contents listing.
type Inspector struct {
	Archiver     string
	ObjectSuffix string
	Sentinels    []string
}

// NewInspector returns an Inspector for the given archiver executable.
func NewInspector(archiver, objectSuffix string, sentinels []string) *Inspector {
	return &Inspector{Archiver: archiver, ObjectSuffix: objectSuffix, Sentinels: sentinels}
}

// List returns the raw member lines of archivePath in listing order. Blank
// lines are dropped.
func (in *Inspector) List(archivePath string) ([]string, error) {
	cmd := exec.Command(in.Archiver, "t", archivePath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	logger.Debug("run %s t %s", in.Archiver, archivePath)
	if err := cmd.Run(); err != nil {
		return nil, &InvocationError{
			Archiver: in.Archiver,
			Archive:  archivePath,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	var lines []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Members lists archivePath and returns its object members with sentinel
// entries removed. Any other entry lacking the object suffix is an error.
func (in *Inspector) Members(archivePath string) ([]Member, error) {
	lines, err := in.List(archivePath)
	if err != nil {
		return nil, err
	}
	return in.parse(archivePath, lines)
}

func (in *Inspector) parse(archivePath string, lines []string) ([]Member, error) {
	members := make([]Member, 0, len(lines))
	for _, line := range lines {
		if in.isSentinel(line) {
			continue
		}
		base, ok := strings.CutSuffix(line, in.ObjectSuffix)
		if !ok {
			return nil, &MemberFormatError{Archive: archivePath, Member: line, Suffix: in.ObjectSuffix}
		}
		members = append(members, Member{Name: line, Base: base})
	}
	return members, nil
}

func (in *Inspector) isSentinel(line string) bool {
	return slices.Contains(in.Sentinels, line)
}

// IsInvocationError reports whether err came from a failed archiver run.
func IsInvocationError(err error) bool {
	var ie *InvocationError
	return errors.As(err, &ie)
}
