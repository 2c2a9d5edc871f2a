// Package clock provides wall clock time for event stamps. Kernel time is counted in ticks.
package clock

import "time"

// NowFunc is the wall clock source, tests replace it to pin event timestamps.
var NowFunc = time.Now

// Now returns the current wall clock time.
func Now() time.Time {
	return NowFunc()
}
