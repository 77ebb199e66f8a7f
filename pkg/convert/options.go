package convert

// DefaultVersion is the project version used when neither setup.py nor the
// caller provides one.
const DefaultVersion = "0.1.0"

// Options describes one conversion.
type Options struct {
	NormalFiles []string // requirements files for the runtime set
	DevFiles    []string // requirements files for the development set
	BaseDir     string   // project directory; holds setup.py and receives the manifest
	Name        string   // project name override
	Version     string   // project version override
	Concurrency int      // parallel index lookups; values below 2 resolve sequentially

	// IncludeSetupRequires adds setup.py install_requires to the runtime set
	// and tests_require to the development set.
	IncludeSetupRequires bool
}
