package daily

import (
	"time"

	"github.com/lysyi3m/newsdesk/app/post"
)

// Range is one calendar day expressed as a half-open [After, Before) pair
// of naive local timestamps.
type Range struct {
	Day    string
	After  string
	Before string
}

// DayRanges returns days ranges ending with the day containing now, most
// recent first. Boundaries are local midnights in loc.
func DayRanges(now time.Time, days int, loc *time.Location) []Range {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)

	ranges := make([]Range, 0, max(days, 0))
	for i := range days {
		start := time.Date(local.Year(), local.Month(), local.Day()-i, 0, 0, 0, 0, loc)
		end := time.Date(local.Year(), local.Month(), local.Day()-i+1, 0, 0, 0, 0, loc)
		ranges = append(ranges, Range{
			Day:    start.Format(time.DateOnly),
			After:  start.Format(post.RemoteLayout),
			Before: end.Format(post.RemoteLayout),
		})
	}
	return ranges
}
