package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mehmetkoksal-w/archcheck/internal/jsonc"
	"github.com/mehmetkoksal-w/archcheck/internal/schemas"
	"github.com/mehmetkoksal-w/archcheck/internal/set"
)

// Config controls how source trees and archives are matched up.
type Config struct {
	ManifestName     string   `json:"manifestName"`
	ArchivePrefix    string   `json:"archivePrefix"`
	ArchiveExt       string   `json:"archiveExt"`
	SourceExtensions []string `json:"sourceExtensions"`
	ObjectSuffix     string   `json:"objectSuffix"`
	Sentinels        []string `json:"sentinels"`
	ExcludeGlobs     []string `json:"excludeGlobs,omitempty"`
}

// fileConfig mirrors Config with optional fields so a file can override a subset.
type fileConfig struct {
	ManifestName     *string  `json:"manifestName"`
	ArchivePrefix    *string  `json:"archivePrefix"`
	ArchiveExt       *string  `json:"archiveExt"`
	SourceExtensions []string `json:"sourceExtensions"`
	ObjectSuffix     *string  `json:"objectSuffix"`
	Sentinels        []string `json:"sentinels"`
	ExcludeGlobs     []string `json:"excludeGlobs"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ManifestName:     "PACKAGE",
		ArchivePrefix:    "libdbcsr",
		ArchiveExt:       ".a",
		SourceExtensions: []string{"F", "c", "cu", "cpp", "cxx", "cc"},
		ObjectSuffix:     ".o",
		Sentinels:        []string{"__.SYMDEF SORTED"}, // ranlib table entry listed by macOS ar
	}
}

// Load returns the defaults overlaid with the JSONC file at path.
// An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	var instance any
	if err := jsonc.Decode(data, &instance); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := schemas.Validate(schemas.Config, instance); err != nil {
		return Config{}, fmt.Errorf("%s invalid: %w", path, err)
	}
	var fc fileConfig
	if err := json.Unmarshal(bytes.TrimSpace(jsonc.Clean(data)), &fc); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	cfg.apply(fc)
	return cfg, nil
}

func (c *Config) apply(fc fileConfig) {
	if fc.ManifestName != nil {
		c.ManifestName = *fc.ManifestName
	}
	if fc.ArchivePrefix != nil {
		c.ArchivePrefix = *fc.ArchivePrefix
	}
	if fc.ArchiveExt != nil {
		c.ArchiveExt = *fc.ArchiveExt
	}
	if fc.SourceExtensions != nil {
		c.SourceExtensions = fc.SourceExtensions
	}
	if fc.ObjectSuffix != nil {
		c.ObjectSuffix = *fc.ObjectSuffix
	}
	if fc.Sentinels != nil {
		c.Sentinels = fc.Sentinels
	}
	if fc.ExcludeGlobs != nil {
		c.ExcludeGlobs = cleanGlobs(fc.ExcludeGlobs)
	}
}

// Extensions returns the recognized source extensions as a set.
func (c Config) Extensions() set.Set[string] {
	return set.New(c.SourceExtensions...)
}

// ArchivePath returns where the named archive is expected under libDir.
func (c Config) ArchivePath(libDir, archive string) string {
	return filepath.Join(libDir, archive+c.ArchiveExt)
}

// cleanGlobs trims globs, converts backslashes to slashes and drops empty
// and repeated entries, keeping first-seen order.
func cleanGlobs(globs []string) []string {
	var out []string
	for _, g := range globs {
		g = strings.ReplaceAll(strings.TrimSpace(g), "\\", "/")
		for strings.Contains(g, "//") {
			g = strings.ReplaceAll(g, "//", "/")
		}
		if g != "" && !slices.Contains(out, g) {
			out = append(out, g)
		}
	}
	return out
}
