// Package requirements reads pip requirements files.
//
// # Overview
//
// [Parse] turns a requirements file into a lazy sequence of [Requirement]
// records. Comments, blank lines and editable installs (-e) are skipped.
// Inclusion directives (-r) are followed depth-first, so the records of an
// included file appear at the position of the directive. Relative inclusion
// targets are resolved against the directory of the including file.
//
//	for req, err := range requirements.Parse("requirements/production.txt") {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(req.Name, req.Specifier)
//	}
//
// The sequence re-reads the files every time it is ranged over, so it can be
// consumed more than once. Iteration stops at the first error, which is one of
// REQUIREMENT_PARSE, INCLUSION_NOT_FOUND or CYCLIC_INCLUSION from [errors].
//
// # Specifiers
//
// Each requirement line follows the PEP 508 subset pip accepts in
// requirements files:
//
//	name [extras] (version clauses) ; marker
//
// Version clauses are kept as written (normalized whitespace); they are not
// evaluated here. Duplicate names are not merged.
//
// [errors]: github.com/matzehuels/stanza/pkg/errors
package requirements
