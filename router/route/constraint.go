package route

import "regexp"

// Constraint binds a compiled regular expression to a path-parameter name.
// A captured value that fails its constraint makes the radix lookup report
// a miss, not a binding-time validation error (§3 Radix Node invariant).
type Constraint struct {
	Param   string
	Pattern *regexp.Regexp
}

// NewConstraint compiles pattern and panics if it is invalid — constraints
// are attached during the CONFIGURING phase, so an invalid pattern is a
// startup-time programmer error, not a runtime condition to recover from.
func NewConstraint(param, pattern string) Constraint {
	return Constraint{Param: param, Pattern: regexp.MustCompile(pattern)}
}
