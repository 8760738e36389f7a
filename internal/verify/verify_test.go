package verify

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mehmetkoksal-w/archcheck/internal/archive"
	"github.com/mehmetkoksal-w/archcheck/internal/config"
	"github.com/mehmetkoksal-w/archcheck/internal/scan"
	"github.com/mehmetkoksal-w/archcheck/internal/testutil"
)

type fixture struct {
	libDir string
	cfg    config.Config
	lister *archive.Inspector
	out    bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	return &fixture{
		libDir: t.TempDir(),
		cfg:    cfg,
		lister: archive.NewInspector(testutil.FakeArchiver(t), cfg.ObjectSuffix, cfg.Sentinels),
	}
}

func (f *fixture) archive(t *testing.T, name string, members ...string) string {
	t.Helper()
	path := f.cfg.ArchivePath(f.libDir, name)
	testutil.WriteArchive(t, path, members...)
	return path
}

func (f *fixture) run(t *testing.T, reg *scan.Registry) []Result {
	t.Helper()
	results, err := Run(reg, f.lister, Options{LibDir: f.libDir, Config: f.cfg, Out: &f.out})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return results
}

func TestRunRetainsConsistentArchive(t *testing.T) {
	f := newFixture(t)
	path := f.archive(t, "libdbcsrcore", "foo.o")
	reg := scan.NewRegistry(map[string][]string{"libdbcsrcore": {"foo"}})

	results := f.run(t, reg)

	if !testutil.Exists(t, path) {
		t.Error("consistent archive was removed")
	}
	want := []Result{{Archive: "libdbcsrcore", Path: path, Status: StatusOK, Members: 1}}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if f.out.Len() != 0 {
		t.Errorf("unexpected output: %q", f.out.String())
	}
}

func TestRunPurgesArchiveWithUnknownMember(t *testing.T) {
	f := newFixture(t)
	path := f.archive(t, "libdbcsrcore", "foo.o", "bar.o", "baz.o")
	reg := scan.NewRegistry(map[string][]string{"libdbcsrcore": {"foo", "baz"}})

	results := f.run(t, reg)

	if testutil.Exists(t, path) {
		t.Error("inconsistent archive was not removed")
	}
	if len(results) != 1 || results[0].Status != StatusPurged || results[0].Offending != "bar.o" {
		t.Fatalf("results = %+v, want purged on bar.o", results)
	}
	if results[0].Members != 2 {
		t.Errorf("Members = %d, want check to stop at first violation", results[0].Members)
	}
	wantLine := "Could not find source for object bar.o in archive " + path + " , removing archive.\n"
	if f.out.String() != wantLine {
		t.Errorf("output = %q, want %q", f.out.String(), wantLine)
	}
}

func TestRunExplicitArchiveName(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"whatever/PACKAGE": `{"archive": "custom"}`,
		"whatever/foo.c":   "",
	})
	reg, err := scan.Run(root, f.cfg)
	if err != nil {
		t.Fatalf("scan.Run() error: %v", err)
	}
	good := f.archive(t, "custom", "foo.o")
	stale := f.archive(t, "libdbcsrwhatever", "gone.o")

	results := f.run(t, reg)

	if !testutil.Exists(t, good) {
		t.Error("custom.a should be retained")
	}
	if !testutil.Exists(t, stale) {
		t.Error("archives outside the registry must not be touched")
	}
	if len(results) != 1 || results[0].Archive != "custom" {
		t.Errorf("results = %+v", results)
	}
}

func TestRunIgnoresSentinel(t *testing.T) {
	f := newFixture(t)
	path := f.archive(t, "libdbcsrcore", "__.SYMDEF SORTED", "foo.o", "bar.o")
	reg := scan.NewRegistry(map[string][]string{"libdbcsrcore": {"foo", "bar"}})

	results := f.run(t, reg)

	if !testutil.Exists(t, path) || results[0].Status != StatusOK {
		t.Errorf("archive with sentinel should be retained, results = %+v", results)
	}
}

func TestRunSkipsMissingArchive(t *testing.T) {
	f := newFixture(t)
	reg := scan.NewRegistry(map[string][]string{"libdbcsrcore": {"foo"}})

	results := f.run(t, reg)

	if len(results) != 1 || results[0].Status != StatusMissing {
		t.Errorf("results = %+v, want one missing", results)
	}
	if f.out.Len() != 0 {
		t.Errorf("missing archive produced output: %q", f.out.String())
	}
}

func TestRunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	stale := f.archive(t, "libdbcsra", "x.o")
	good := f.archive(t, "libdbcsrb", "y.o")
	reg := scan.NewRegistry(map[string][]string{"libdbcsra": {"w"}, "libdbcsrb": {"y"}})

	first := f.run(t, reg)
	f.out.Reset()
	second := f.run(t, reg)

	if testutil.Exists(t, stale) || !testutil.Exists(t, good) {
		t.Fatal("unexpected filesystem state after runs")
	}
	if first[0].Status != StatusPurged || second[0].Status != StatusMissing {
		t.Errorf("first = %+v, second = %+v", first[0], second[0])
	}
	if second[1].Status != StatusOK {
		t.Errorf("second run changed verdict on consistent archive: %+v", second[1])
	}
	if f.out.Len() != 0 {
		t.Errorf("second run printed %q", f.out.String())
	}
}

func TestRunSubsetProperty(t *testing.T) {
	tests := []struct {
		name    string
		known   []string
		members []string
		purged  bool
	}{
		{name: "equal sets", known: []string{"a", "b"}, members: []string{"a.o", "b.o"}},
		{name: "strict subset", known: []string{"a", "b", "c"}, members: []string{"b.o"}},
		{name: "empty archive", known: []string{"a"}},
		{name: "empty known set", members: []string{"a.o"}, purged: true},
		{name: "one extra", known: []string{"a"}, members: []string{"a.o", "z.o"}, purged: true},
		{name: "duplicated members", known: []string{"a"}, members: []string{"a.o", "a.o"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			path := f.archive(t, "libdbcsrx", tt.members...)
			reg := scan.NewRegistry(map[string][]string{"libdbcsrx": tt.known})

			f.run(t, reg)

			if got := !testutil.Exists(t, path); got != tt.purged {
				t.Errorf("purged = %v, want %v", got, tt.purged)
			}
		})
	}
}

func TestRunFatalErrors(t *testing.T) {
	t.Run("archiver failure", func(t *testing.T) {
		f := newFixture(t)
		path := f.archive(t, "libdbcsrcore", testutil.FailMarker)
		reg := scan.NewRegistry(map[string][]string{"libdbcsrcore": {"foo"}})

		_, err := Run(reg, f.lister, Options{LibDir: f.libDir, Config: f.cfg})
		if !archive.IsInvocationError(err) {
			t.Fatalf("Run() error = %v, want invocation error", err)
		}
		if !testutil.Exists(t, path) {
			t.Error("archive must not be removed when listing fails")
		}
	})

	t.Run("unexpected member", func(t *testing.T) {
		f := newFixture(t)
		path := f.archive(t, "libdbcsrcore", "foo.o", "README.txt")
		reg := scan.NewRegistry(map[string][]string{"libdbcsrcore": {"foo"}})

		_, err := Run(reg, f.lister, Options{LibDir: f.libDir, Config: f.cfg})
		var mfe *archive.MemberFormatError
		if !errors.As(err, &mfe) {
			t.Fatalf("Run() error = %v, want *archive.MemberFormatError", err)
		}
		if !testutil.Exists(t, path) {
			t.Error("archive must not be removed on format errors")
		}
	})
}

type stubLister map[string][]archive.Member

func (s stubLister) Members(path string) ([]archive.Member, error) {
	return s[filepath.Base(path)], nil
}

func TestRunOrdersByArchiveName(t *testing.T) {
	libDir := t.TempDir()
	cfg := config.Default()
	for _, name := range []string{"libc", "liba", "libb"} {
		testutil.WriteArchive(t, cfg.ArchivePath(libDir, name))
	}
	reg := scan.NewRegistry(map[string][]string{"libc": nil, "liba": nil, "libb": nil})

	results, err := Run(reg, stubLister{}, Options{LibDir: libDir, Config: cfg})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	var names []string
	for _, r := range results {
		names = append(names, r.Archive)
	}
	if diff := cmp.Diff([]string{"liba", "libb", "libc"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	for _, r := range results {
		if !strings.HasSuffix(r.Path, r.Archive+".a") {
			t.Errorf("Path = %q, want suffix %q", r.Path, r.Archive+".a")
		}
	}
}

// vanishingLister deletes the archive while listing it, so the later removal fails.
type vanishingLister struct{}

func (vanishingLister) Members(path string) ([]archive.Member, error) {
	if err := os.Remove(path); err != nil {
		return nil, err
	}
	return []archive.Member{{Name: "gone.o", Base: "gone"}}, nil
}

func TestRunReportsPurgeOnlyAfterRemoval(t *testing.T) {
	libDir := t.TempDir()
	cfg := config.Default()
	testutil.WriteArchive(t, cfg.ArchivePath(libDir, "libx"), "gone.o")
	reg := scan.NewRegistry(map[string][]string{"libx": {"kept"}})

	var out bytes.Buffer
	_, err := Run(reg, vanishingLister{}, Options{LibDir: libDir, Config: cfg, Out: &out})
	if err == nil || !strings.Contains(err.Error(), "remove") {
		t.Fatalf("Run() error = %v, want remove failure", err)
	}
	if out.Len() != 0 {
		t.Errorf("purge message printed despite failed removal: %q", out.String())
	}
}
