package format

import (
	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count in IEC units ("7.8 KiB").
func FormatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// FormatCount renders n with thousands separators ("32,000").
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// ParseBytes parses sizes such as "8000", "8KB" or "1 MiB".
func ParseBytes(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}
