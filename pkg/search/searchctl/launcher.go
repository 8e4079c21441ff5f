// Package searchctl provides the iterative-deepening harness and time
// control wrapped around a single fixed-depth search.Mtdf/NegaScout call,
// mirroring the teacher's pkg/search/searchctl split between "how to
// search one depth" (pkg/search) and "how to pace a series of searches"
// (this package).
package searchctl

import (
	"fmt"
	"strings"

	"github.com/herohde/oppai-go/pkg/search"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Options hold dynamic search options. The caller may change these
// between launches.
type Options struct {
	// DepthLimit, if set, limits the search to the given depth. Absent
	// means no limit (search until time runs out or Halt is called).
	DepthLimit lang.Optional[uint]
	// TimeControl, if set, limits the search to the given time budget.
	TimeControl lang.Optional[TimeControl]
}

func (o Options) String() string {
	var ret []string
	if v, ok := o.DepthLimit.V(); ok {
		ret = append(ret, fmt.Sprintf("depth=%v", v))
	}
	if v, ok := o.TimeControl.V(); ok {
		ret = append(ret, fmt.Sprintf("time=%v", v))
	}
	return fmt.Sprintf("[%v]", strings.Join(ret, ", "))
}

// Handle lets the caller manage a launched search.
type Handle interface {
	// Halt stops the search, if running, and returns its best result so
	// far. Idempotent.
	Halt() search.PV
}
