package browse

import (
	"fmt"
	"strconv"
	"time"
)

const (
	kib = 1 << 10
	mib = 1 << 20
	gib = 1 << 30
)

// dateLayout renders e.g. "07-Mar-2024 3:04 PM".
const dateLayout = "02-Jan-2006 3:04 PM"

// FormatSize renders a byte count with binary units. Zero renders as "".
func FormatSize(n int64) string {
	switch {
	case n <= 0:
		return ""
	case n < kib:
		return strconv.FormatInt(n, 10) + " B"
	case n < mib:
		return fmt.Sprintf("%.2f kiB", float64(n)/kib)
	case n < gib:
		return fmt.Sprintf("%.2f MiB", float64(n)/mib)
	default:
		return fmt.Sprintf("%.2f GiB", float64(n)/gib)
	}
}

// FormatDate renders t in the local time zone on a 12-hour clock.
func FormatDate(t time.Time) string {
	return t.Local().Format(dateLayout)
}
