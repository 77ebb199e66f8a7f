package setuppy

import (
	"os"
	"strings"

	"github.com/bazelbuild/buildtools/build"

	"github.com/matzehuels/stanza/pkg/errors"
)

// Filename is the conventional name of the legacy build script.
const Filename = "setup.py"

// Metadata is the project information declared in a setup() call.
// Fields whose value could not be evaluated statically are empty and their
// keyword is listed in Unresolved.
type Metadata struct {
	Name           string
	Version        string
	Description    string
	License        string
	Author         string
	AuthorEmail    string
	URL            string
	PythonRequires string

	InstallRequires []string
	TestsRequire    []string

	Unresolved []string
}

// Keywords read as plain strings, in the order they are reported.
var stringFields = []struct {
	key string
	set func(*Metadata, string)
}{
	{"name", func(m *Metadata, v string) { m.Name = v }},
	{"version", func(m *Metadata, v string) { m.Version = v }},
	{"description", func(m *Metadata, v string) { m.Description = v }},
	{"license", func(m *Metadata, v string) { m.License = v }},
	{"author", func(m *Metadata, v string) { m.Author = v }},
	{"author_email", func(m *Metadata, v string) { m.AuthorEmail = v }},
	{"url", func(m *Metadata, v string) { m.URL = v }},
	{"python_requires", func(m *Metadata, v string) { m.PythonRequires = v }},
}

// Extract reads the setup.py at path. A missing file yields a
// LEGACY_FILE_MISSING error, which callers may treat as "no metadata".
func Extract(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeLegacyFileMissing, "no %s found at %s", Filename, path)
		}
		return nil, errors.Wrap(errors.ErrCodeLegacyExtraction, err, "read %s", path)
	}
	return ExtractContent(path, data)
}

// ExtractContent is [Extract] for an in-memory script. filename is used in
// error messages only.
func ExtractContent(filename string, data []byte) (*Metadata, error) {
	f, err := build.ParseDefault(filename, sanitize(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLegacyExtraction, err, "parse %s", filename)
	}

	call := findSetupCall(f)
	if call == nil {
		return nil, errors.New(errors.ErrCodeLegacyExtraction, "%s: no setup() call found", filename)
	}

	ev := newEvaluator(f.Stmt)
	kwargs := ev.kwargs(call)
	return fromKwargs(kwargs), nil
}

// findSetupCall returns the first call to setup or <x>.setup in source
// order, at any nesting level.
func findSetupCall(f *build.File) *build.CallExpr {
	var found *build.CallExpr
	build.Walk(f, func(x build.Expr, _ []build.Expr) {
		if found != nil {
			return
		}
		call, ok := x.(*build.CallExpr)
		if !ok {
			return
		}
		switch fn := call.X.(type) {
		case *build.Ident:
			if fn.Name == "setup" {
				found = call
			}
		case *build.DotExpr:
			if fn.Name == "setup" {
				found = call
			}
		}
	})
	return found
}

func fromKwargs(kwargs map[string]kwarg) *Metadata {
	m := &Metadata{}
	unresolved := func(key string) { m.Unresolved = append(m.Unresolved, key) }

	for _, f := range stringFields {
		arg, ok := kwargs[f.key]
		if !ok {
			continue
		}
		s, ok := asString(arg)
		if !ok {
			unresolved(f.key)
			continue
		}
		f.set(m, s)
	}

	if m.Author == "" {
		if v, ok := asString(kwargs["maintainer"]); ok {
			m.Author = v
		}
	}
	if m.AuthorEmail == "" {
		if v, ok := asString(kwargs["maintainer_email"]); ok {
			m.AuthorEmail = v
		}
	}

	lists := []struct {
		key string
		dst *[]string
	}{
		{"install_requires", &m.InstallRequires},
		{"tests_require", &m.TestsRequire},
	}
	for _, l := range lists {
		arg, ok := kwargs[l.key]
		if !ok {
			continue
		}
		v, ok := asStringList(arg)
		if !ok {
			unresolved(l.key)
			continue
		}
		*l.dst = v
	}
	return m
}

func asString(a kwarg) (string, bool) {
	if !a.ok {
		return "", false
	}
	switch v := a.value.(type) {
	case string:
		return v, true
	case nil:
		return "", true
	}
	return "", false
}

// asStringList accepts a list of strings or a newline-separated string,
// both of which setuptools allows for requirement keywords.
func asStringList(a kwarg) ([]string, bool) {
	if !a.ok {
		return nil, false
	}
	switch v := a.value.(type) {
	case string:
		var out []string
		for _, line := range strings.Split(v, "\n") {
			if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
				out = append(out, line)
			}
		}
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case nil:
		return nil, true
	}
	return nil, false
}
