package metrics

import (
	"time"
)

// Trough band tolerance around the historical minimum.
const (
	TroughBandLow  = 0.85
	TroughBandHigh = 1.15
)

// ComputeLowerBound shifts the anchor back by whole calendar years.
// A Feb-29 anchor whose target year is not a leap year clamps to Feb-28
// instead of spilling into March.
func ComputeLowerBound(anchor time.Time, years int) time.Time {
	y := anchor.Year() - years
	m, d := anchor.Month(), anchor.Day()
	if m == time.February && d == 29 && !isLeapYear(y) {
		d = 28
	}
	return time.Date(y, m, d, 0, 0, 0, 0, anchor.Location())
}

// MeanAndMinInWindow aggregates the selected metric over the window
// [anchor-years, anchor], both bounds inclusive. With excludeAnchor the
// anchor's own point is dropped before aggregation, so a current value
// cannot satisfy a "near its own historical low" test against itself.
// Null samples are skipped; a window with zero non-null samples yields
// nil mean, nil min and count 0.
func MeanAndMinInWindow(s *Series, anchor time.Time, years int, excludeAnchor bool, field Field) WindowStats {
	lower := ComputeLowerBound(anchor, years)

	var (
		sum   float64
		min   float64
		count int
	)
	for _, p := range s.Points {
		if p.Date.Before(lower) || p.Date.After(anchor) {
			continue
		}
		if excludeAnchor && sameDay(p.Date, anchor) {
			continue
		}
		v := p.Value(field)
		if v == nil {
			continue
		}
		if count == 0 || *v < min {
			min = *v
		}
		sum += *v
		count++
	}

	if count == 0 {
		return WindowStats{}
	}
	mean := sum / float64(count)
	minCopy := min
	return WindowStats{Mean: &mean, Min: &minCopy, Count: count}
}

// InTroughBand reports whether current sits inside [min*0.85, min*1.15],
// bounds inclusive. A nil min never qualifies.
func InTroughBand(current float64, min *float64) bool {
	if min == nil {
		return false
	}
	return current >= *min*TroughBandLow && current <= *min*TroughBandHigh
}

// TroughBand returns the band bounds for a minimum, or (0, 0, false) when
// the minimum is unknown.
func TroughBand(min *float64) (low, high float64, ok bool) {
	if min == nil {
		return 0, 0, false
	}
	return *min * TroughBandLow, *min * TroughBandHigh, true
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
