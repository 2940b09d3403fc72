// Package modifier defines the input contract between the evaluator and
// modifier handlers.
package modifier

import (
	"fmt"

	"github.com/vk/patterngridgo/internal/pattern"
)

// Inputs carries the evaluated upstream patterns bound to a modifier
// invocation. Keyword holds one non-nil pattern per bound keyword port;
// Positional holds the ordered variadic sequence with failed upstream
// results already compacted out. Handlers must treat every pattern as
// read-only.
type Inputs struct {
	Keyword    map[string]*pattern.Pattern
	Positional []*pattern.Pattern
}

// Pattern returns the pattern bound to the given keyword port, or nil when
// the port is unbound.
func (in *Inputs) Pattern(key string) *pattern.Pattern {
	if in == nil {
		return nil
	}
	return in.Keyword[key]
}

// RequirePattern returns the pattern bound to the given keyword port, or an
// error when the port is unbound. The evaluator already rejects missing
// required ports; this is the handler-side guard for direct callers.
func (in *Inputs) RequirePattern(key string) (*pattern.Pattern, error) {
	p := in.Pattern(key)
	if p == nil {
		return nil, fmt.Errorf("missing required input %q", key)
	}
	return p, nil
}
