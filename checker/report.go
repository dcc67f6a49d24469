package checker

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// DebugString renders a Report with go-spew, the same tool the teacher
// reaches for to dump an object graph during a failing test or a manual
// trace-through — this is meant for a developer's terminal, not a
// machine-readable format.
func (r Report) DebugString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "states_explored=%d max_depth_reached=%d\n", r.StatesExplored, r.MaxDepthReached)
	if r.InternalError != nil {
		fmt.Fprintf(&b, "INTERNAL ERROR: %v\n", r.InternalError)
	}
	for _, res := range r.Results {
		fmt.Fprintf(&b, "%s [%s]: %s\n", res.Name, res.Kind, res.Verdict)
		if res.Verdict == Violated {
			b.WriteString(spew.Sdump(res.Trace))
		}
	}
	return b.String()
}

// String satisfies fmt.Stringer so a Report prints readably with %v.
func (r Report) String() string {
	return r.DebugString()
}
