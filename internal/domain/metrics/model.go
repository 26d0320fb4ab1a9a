package metrics

import (
	"time"
)

// Field selects which valuation metric of a point an aggregation reads.
type Field string

const (
	FieldPeTTM Field = "peTTM" // trailing-twelve-month P/E
	FieldPbMRQ Field = "pbMRQ" // most-recent-quarter P/B
)

// Point is one stock's valuation metrics on one trading date.
// Nil means the source had no parseable value for that day.
type Point struct {
	Date  time.Time `json:"date" db:"trade_date"`
	PeTTM *float64  `json:"pettm" db:"pettm"`
	PbMRQ *float64  `json:"pbmrq" db:"pbmrq"`
}

// Value returns the selected metric of the point.
func (p Point) Value(f Field) *float64 {
	switch f {
	case FieldPeTTM:
		return p.PeTTM
	case FieldPbMRQ:
		return p.PbMRQ
	default:
		return nil
	}
}

// Series is an ordered run of daily metric points for one stock,
// ascending by date, one point per trading date. Immutable after
// construction.
type Series struct {
	Code   string  `json:"code"`
	Points []Point `json:"points"`
}

// Len returns the number of points.
func (s *Series) Len() int {
	return len(s.Points)
}

// At returns the point on the given date, or nil if the date is absent.
func (s *Series) At(date time.Time) *Point {
	for i := range s.Points {
		if sameDay(s.Points[i].Date, date) {
			return &s.Points[i]
		}
	}
	return nil
}

// WindowStats holds the aggregate of one lookback window.
// Mean and Min are nil when the window had zero non-null samples.
type WindowStats struct {
	Mean  *float64 `json:"mean"`
	Min   *float64 `json:"min"`
	Count int      `json:"count"`
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
