package depsolver

// Binding pairs a package with its resolved outcome. Identifier is the
// post-resolution identity, as reported by the container once the
// binding was fixed.
type Binding struct {
	Identifier   PackageIdentifier
	BoundVersion BoundVersion
}

// Result is the outcome of one Resolve call. Exactly one of the three
// shapes holds:
//
//   - success: Bindings is populated, in the order the search fixed
//     them;
//   - unsatisfiable: Unsatisfiable is set and Dependencies/Pins carry
//     the minimized still-failing inputs;
//   - error: Err carries one of the failure kinds in errors.go.
type Result struct {
	Bindings []Binding

	Unsatisfiable bool
	Dependencies  []Constraint
	Pins          []Constraint

	Err error
}

// IsSuccess indicates the resolution produced a complete assignment.
func (r Result) IsSuccess() bool {
	return !r.Unsatisfiable && r.Err == nil
}
