// Package manifest renders a project descriptor as a Poetry-style
// pyproject.toml.
//
// The layout is fixed: [tool.poetry] metadata, the runtime dependency table
// (python first, then packages sorted by name), the development dependency
// table and a [build-system] block pointing at poetry-core. Encoding is
// deterministic, so identical descriptors always produce identical bytes.
//
// [Write] renders the whole document in memory before touching the
// filesystem; a failed conversion never leaves a partial file behind.
package manifest
