package manifest

import (
	"strings"
)

// DefaultPython is the interpreter constraint used when none is known.
const DefaultPython = "*"

// Constraint is one dependency entry. A constraint with only a Version is
// written as a plain string; extras or markers turn it into an inline table.
type Constraint struct {
	Version string
	Extras  []string
	Markers string
}

// Simple reports whether c renders as a bare version string.
func (c Constraint) Simple() bool {
	return len(c.Extras) == 0 && c.Markers == ""
}

// Equal reports whether c and o describe the same requirement.
func (c Constraint) Equal(o Constraint) bool {
	if c.Version != o.Version || c.Markers != o.Markers || len(c.Extras) != len(o.Extras) {
		return false
	}
	for i := range c.Extras {
		if c.Extras[i] != o.Extras[i] {
			return false
		}
	}
	return true
}

func (c Constraint) String() string {
	var b strings.Builder
	b.WriteString(c.Version)
	if len(c.Extras) > 0 {
		b.WriteString(" [" + strings.Join(c.Extras, ",") + "]")
	}
	if c.Markers != "" {
		b.WriteString("; " + c.Markers)
	}
	return b.String()
}

// Descriptor is the project a manifest describes.
type Descriptor struct {
	Name        string
	Version     string
	Description string
	Author      string // "Name <email>"
	License     string
	Homepage    string
	Python      string

	Dependencies    map[string]Constraint
	DevDependencies map[string]Constraint
}

// New returns an empty descriptor for name and version.
func New(name, version string) *Descriptor {
	return &Descriptor{
		Name:            name,
		Version:         version,
		Python:          DefaultPython,
		Dependencies:    make(map[string]Constraint),
		DevDependencies: make(map[string]Constraint),
	}
}

// FormatAuthor joins a name and an email into Poetry's author notation.
func FormatAuthor(name, email string) string {
	switch {
	case name == "" && email == "":
		return ""
	case email == "":
		return name
	case name == "":
		return "<" + email + ">"
	}
	return name + " <" + email + ">"
}
