// Package testutil holds fixtures shared by package tests: source trees and a
// stand-in archiver that lists text "archives".
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// FailMarker as the first line of a fake archive makes the fake archiver exit 1.
const FailMarker = "!fail"

const fakeArchiver = `#!/bin/sh
[ "$1" = "t" ] || { echo "unsupported operation: $1" >&2; exit 2; }
if [ "$(head -n 1 "$2")" = "` + FailMarker + `" ]; then
	echo "corrupt archive: $2" >&2
	exit 1
fi
cat "$2"
`

// FakeArchiver writes a shell script that answers "<ar> t <file>" by printing
// the file. The test is skipped where /bin/sh is unavailable.
func FakeArchiver(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake archiver needs /bin/sh")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	path := filepath.Join(t.TempDir(), "fake-ar")
	if err := os.WriteFile(path, []byte(fakeArchiver), 0o755); err != nil {
		t.Fatalf("write fake archiver: %v", err)
	}
	return path
}

// WriteArchive writes a fake archive listing the given members, one per line.
func WriteArchive(t *testing.T, path string, members ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	content := strings.Join(members, "\n")
	if len(members) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write archive %s: %v", path, err)
	}
}

// WriteTree creates files relative to root, making parent directories as needed.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// Exists reports whether path exists, failing the test on unexpected errors.
func Exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatalf("stat %s: %v", path, err)
	return false
}
