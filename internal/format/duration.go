package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatExecutionDuration renders d in µs below a millisecond, in ms below a
// second, and with time.Duration's own format otherwise.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// FormatThroughput renders n bytes moved in d as an IEC rate ("12 MiB/s").
// It returns "-" when d is not positive.
func FormatThroughput(n int64, d time.Duration) string {
	if d <= 0 || n < 0 {
		return "-"
	}
	perSec := float64(n) / d.Seconds()
	return humanize.IBytes(uint64(perSec)) + "/s"
}
