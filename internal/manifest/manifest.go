// Package manifest parses the per-directory package descriptor that declares
// which archive a directory's sources are compiled into.
//
// A descriptor holds a single mapping literal. Both JSON and the older
// Python-literal spelling are accepted: single-quoted strings, '#' line
// comments and trailing commas are rewritten to JSON before decoding. The
// decoded value is checked against the embedded package schema; nothing in
// the file is ever evaluated.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mehmetkoksal-w/archcheck/internal/jsonc"
	"github.com/mehmetkoksal-w/archcheck/internal/schemas"
)

// Descriptor is the parsed content of a package descriptor.
// Archive is the explicit archive name override, empty when absent. Fields
// holds every decoded key, including ones this tool ignores.
type Descriptor struct {
	Archive string
	Fields  map[string]any
}

// ParseError reports a descriptor that is not a well-formed mapping literal.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse package descriptor: %v", e.Err)
	}
	return fmt.Sprintf("parse package descriptor %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ArchiveName resolves the archive a directory contributes to: the explicit
// override when present, otherwise prefix followed by the directory basename.
func (d Descriptor) ArchiveName(prefix, dir string) string {
	if d.Archive != "" {
		return d.Archive
	}
	return prefix + filepath.Base(dir)
}

// ParseFile reads and parses the descriptor at path.
func ParseFile(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return Descriptor{}, err
	}
	return d, nil
}

// Parse decodes raw descriptor content.
func Parse(data []byte) (Descriptor, error) {
	if strings.TrimSpace(string(data)) == "" {
		return Descriptor{}, &ParseError{Err: errors.New("empty descriptor")}
	}
	normalized, err := normalize(data)
	if err != nil {
		return Descriptor{}, &ParseError{Err: err}
	}
	var instance any
	if err := jsonc.Decode(normalized, &instance); err != nil {
		return Descriptor{}, &ParseError{Err: err}
	}
	if err := schemas.Validate(schemas.Package, instance); err != nil {
		return Descriptor{}, &ParseError{Err: err}
	}
	fields, ok := instance.(map[string]any)
	if !ok {
		return Descriptor{}, &ParseError{Err: fmt.Errorf("descriptor is %T, want mapping", instance)}
	}
	d := Descriptor{Fields: fields}
	if v, ok := fields["archive"].(string); ok {
		d.Archive = v
	}
	return d, nil
}

// normalize rewrites Python-literal spellings into JSONC. '//' and '/* */'
// comments are copied through for jsonc to strip.
func normalize(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	lastComma := -1
	afterValue := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '"':
			end, err := scanString(data, i, '"')
			if err != nil {
				return nil, err
			}
			out = append(out, data[i:end+1]...)
			lastComma = -1
			afterValue = true
			i = end
		case c == '\'':
			end, err := scanString(data, i, '\'')
			if err != nil {
				return nil, err
			}
			out = appendRequoted(out, data[i+1:end])
			lastComma = -1
			afterValue = true
			i = end
		case c == '#':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			start := i
			for i < len(data) && data[i] != '\n' {
				i++
			}
			out = append(out, data[start:i]...)
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			end := strings.Index(string(data[i+2:]), "*/")
			if end < 0 {
				return nil, errors.New("unterminated block comment")
			}
			stop := i + 2 + end + 2
			out = append(out, data[i:stop]...)
			i = stop - 1
		case c == ',':
			// Only a comma following a value may be dropped as trailing.
			lastComma = -1
			if afterValue {
				lastComma = len(out)
			}
			afterValue = false
			out = append(out, c)
		case c == '}' || c == ']':
			if lastComma >= 0 {
				out[lastComma] = ' '
			}
			lastComma = -1
			afterValue = true
			out = append(out, c)
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			out = append(out, c)
		default:
			lastComma = -1
			afterValue = c != '{' && c != '[' && c != ':'
			out = append(out, c)
		}
	}
	return out, nil
}

// scanString returns the index of the closing quote of the string starting at start.
func scanString(data []byte, start int, quote byte) (int, error) {
	for i := start + 1; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '\n':
			return 0, fmt.Errorf("newline in string literal at offset %d", start)
		case quote:
			return i, nil
		}
	}
	return 0, fmt.Errorf("unterminated string literal at offset %d", start)
}

// appendRequoted emits the body of a single-quoted literal as a JSON string.
func appendRequoted(out, body []byte) []byte {
	out = append(out, '"')
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body) && body[i+1] == '\'':
			out = append(out, '\'')
			i++
		case c == '\\' && i+1 < len(body):
			out = append(out, c, body[i+1])
			i++
		case c == '"':
			out = append(out, '\\', '"')
		default:
			out = append(out, c)
		}
	}
	return append(out, '"')
}
