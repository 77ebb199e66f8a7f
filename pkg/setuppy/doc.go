// Package setuppy reads project metadata out of a legacy setup.py without
// running it.
//
// The script is parsed with the Starlark parser from bazelbuild/buildtools,
// whose expression grammar is a subset of Python's. Statements Starlark
// lacks are first rewritten line by line into neutral equivalents (imports
// become pass, try/with/while headers become "if True:", except and class
// headers become "if False:"), keeping every line number intact so that
// syntax errors point at the original source.
//
// The first call to setup() or <module>.setup() anywhere in the file
// supplies the keyword arguments. Arguments are evaluated statically:
// literals, module-level constants, string and list concatenation, dict()
// and **kwargs expansion of a known dict. Anything else (file reads, calls,
// f-strings) is recorded in [Metadata.Unresolved] and its field stays empty.
//
// Nothing is written to disk and no Python interpreter is involved.
package setuppy
