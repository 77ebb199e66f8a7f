package manifest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// Filename is the name of the generated manifest.
const Filename = "pyproject.toml"

// Build backend every generated manifest declares.
const (
	BuildRequires = "poetry-core>=1.0.0"
	BuildBackend  = "poetry.core.masonry.api"
)

type poetryTable struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Description string   `toml:"description"`
	Authors     []string `toml:"authors"`
	License     string   `toml:"license,omitempty"`
	Homepage    string   `toml:"homepage,omitempty"`
}

type pythonEntry struct {
	Python string `toml:"python"`
}

type buildSystem struct {
	Requires     []string `toml:"requires"`
	BuildBackend string   `toml:"build-backend"`
}

// Encode renders d as a pyproject.toml document.
func Encode(d *Descriptor) ([]byte, error) {
	authors := []string{}
	if d.Author != "" {
		authors = append(authors, d.Author)
	}
	python := d.Python
	if python == "" {
		python = DefaultPython
	}

	var buf bytes.Buffer
	sections := []struct {
		header string
		values []any
	}{
		{"tool.poetry", []any{poetryTable{
			Name:        d.Name,
			Version:     d.Version,
			Description: d.Description,
			Authors:     authors,
			License:     d.License,
			Homepage:    d.Homepage,
		}}},
		{"tool.poetry.dependencies", []any{pythonEntry{python}, withoutPython(d.Dependencies)}},
		{"tool.poetry.dev-dependencies", []any{withoutPython(d.DevDependencies)}},
		{"build-system", []any{buildSystem{
			Requires:     []string{BuildRequires},
			BuildBackend: BuildBackend,
		}}},
	}
	for i, s := range sections {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "[%s]\n", s.header)
		for _, v := range s.values {
			if err := encodeFlat(&buf, v); err != nil {
				return nil, fmt.Errorf("encode [%s]: %w", s.header, err)
			}
		}
	}
	return buf.Bytes(), nil
}

// encodeFlat writes the key/value pairs of v, which must not contain
// nested tables.
func encodeFlat(buf *bytes.Buffer, v any) error {
	enc := toml.NewEncoder(buf)
	enc.Indent = ""
	return enc.Encode(v)
}

func withoutPython(deps map[string]Constraint) map[string]Constraint {
	out := make(map[string]Constraint, len(deps))
	for name, c := range deps {
		if strings.EqualFold(name, "python") {
			continue
		}
		out[name] = c
	}
	return out
}

// MarshalTOML writes c as a string or an inline table.
func (c Constraint) MarshalTOML() ([]byte, error) {
	version := c.Version
	if version == "" {
		version = "*"
	}
	if c.Simple() {
		return []byte(quote(version)), nil
	}

	var b strings.Builder
	b.WriteString("{version = ")
	b.WriteString(quote(version))
	if len(c.Extras) > 0 {
		b.WriteString(", extras = [")
		for i, e := range c.Extras {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(e))
		}
		b.WriteString("]")
	}
	if c.Markers != "" {
		b.WriteString(", markers = ")
		b.WriteString(quote(c.Markers))
	}
	b.WriteString("}")
	return []byte(b.String()), nil
}

// quote renders s as a TOML basic string.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f || r == utf8.RuneError {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
