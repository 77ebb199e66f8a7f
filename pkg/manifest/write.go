package manifest

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stanza/pkg/errors"
)

// Write encodes d and writes it to dir/pyproject.toml in a single call,
// replacing any existing file. It returns the path written.
func Write(d *Descriptor, dir string) (string, error) {
	data, err := Encode(d)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode manifest")
	}
	path := filepath.Join(dir, Filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return path, nil
}

// Read parses the Poetry section of an existing pyproject.toml.
func Read(path string) (*Descriptor, error) {
	var doc struct {
		Tool struct {
			Poetry struct {
				Name            string         `toml:"name"`
				Version         string         `toml:"version"`
				Description     string         `toml:"description"`
				Authors         []string       `toml:"authors"`
				License         string         `toml:"license"`
				Homepage        string         `toml:"homepage"`
				Dependencies    map[string]any `toml:"dependencies"`
				DevDependencies map[string]any `toml:"dev-dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}

	p := doc.Tool.Poetry
	d := New(p.Name, p.Version)
	d.Description = p.Description
	d.License = p.License
	d.Homepage = p.Homepage
	if len(p.Authors) > 0 {
		d.Author = p.Authors[0]
	}
	for name, v := range p.Dependencies {
		if name == "python" {
			if s, ok := v.(string); ok {
				d.Python = s
			}
			continue
		}
		d.Dependencies[name] = decodeConstraint(v)
	}
	for name, v := range p.DevDependencies {
		d.DevDependencies[name] = decodeConstraint(v)
	}
	return d, nil
}

func decodeConstraint(v any) Constraint {
	switch v := v.(type) {
	case string:
		return Constraint{Version: v}
	case map[string]any:
		var c Constraint
		c.Version, _ = v["version"].(string)
		c.Markers, _ = v["markers"].(string)
		if extras, ok := v["extras"].([]any); ok {
			for _, e := range extras {
				if s, ok := e.(string); ok {
					c.Extras = append(c.Extras, s)
				}
			}
		}
		return c
	}
	return Constraint{}
}
