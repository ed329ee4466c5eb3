// Package timefmt renders report timestamps and durations the way the back
// office presents them: datetimes at a fixed +05:30 offset, durations as
// composite "D, H, Min and s" strings omitting zero components. Unset
// milestones render as "NA" and are never computed against the zero epoch.
package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// NA marks an unset milestone in report output.
const NA = "NA"

// reportZone is the fixed display offset for all report datetimes.
var reportZone = time.FixedZone("IST", 5*3600+30*60)

// DateTime formats t at the report offset, or NA when unset.
func DateTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NA
	}
	return t.In(reportZone).Format("02-Jan-06 03:04:05 PM")
}

// Date formats the date part only, or NA when unset.
func Date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NA
	}
	return t.In(reportZone).Format("02 Jan 2006")
}

// Duration renders d as "x D, y H, z Min and w s", dropping zero components.
// Sub-second durations render as "0 s".
func Duration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	if d < time.Second {
		return "0 s"
	}

	days := int64(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int64(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	mins := int64(d / time.Minute)
	d -= time.Duration(mins) * time.Minute
	secs := int64(d / time.Second)

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d D", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d H", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%d Min", mins))
	}

	result := strings.Join(parts, ", ")
	if secs > 0 {
		if result == "" {
			return fmt.Sprintf("%d s", secs)
		}
		return fmt.Sprintf("%s and %d s", result, secs)
	}
	return result
}

// Between returns the absolute duration between two milestones. The second
// return is false when either side is unset, so callers can exclude the leg
// from aggregation instead of computing against epoch zero.
func Between(a, b *time.Time) (time.Duration, bool) {
	if a == nil || b == nil || a.IsZero() || b.IsZero() {
		return 0, false
	}
	d := b.Sub(*a)
	if d < 0 {
		d = -d
	}
	return d, true
}
