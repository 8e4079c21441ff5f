package searchctl

import (
	"context"
	"fmt"
	"time"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

// TimeControl bounds a search by wall-clock deadline rather than a chess
// clock's remaining-time-and-moves-to-go: the bot façade is always handed
// a single absolute Deadline for the current move, derived upstream from
// whatever time budget its caller granted it (see pkg/bot).
type TimeControl struct {
	// Deadline is the absolute time by which a move must be returned.
	Deadline time.Time
	// TimeGap is subtracted from Deadline to get the soft limit: the
	// search is halted at the soft limit and the iterative-deepening loop
	// won't start a new depth once it has passed, leaving TimeGap as
	// headroom for the in-flight search to wind down and the result to be
	// returned.
	TimeGap time.Duration
}

// Limits returns the soft and hard remaining durations from now. The soft
// limit is when Halt is forced and no new iterative-deepening depth is
// started; the hard limit is the time left until Deadline.
func (t TimeControl) Limits() (soft, hard time.Duration) {
	hard = time.Until(t.Deadline)
	soft = hard - t.TimeGap
	if soft < 0 {
		soft = 0
	}
	return soft, hard
}

func (t TimeControl) String() string {
	return fmt.Sprintf("deadline=%v gap=%v", t.Deadline.Format(time.RFC3339), t.TimeGap)
}

// EnforceTimeControl schedules a forced Halt at the soft limit and
// returns the soft limit, if a TimeControl is set.
func EnforceTimeControl(ctx context.Context, h Handle, tc lang.Optional[TimeControl]) (time.Duration, bool) {
	c, ok := tc.V()
	if !ok {
		return 0, false
	}

	soft, hard := c.Limits()
	time.AfterFunc(soft, func() {
		h.Halt()
	})

	logw.Debugf(ctx, "Time control limits for %v: [%v; %v]", c, soft, hard)
	return soft, true
}
