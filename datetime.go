package tabular

import (
	"fmt"
	"math"
	"time"
)

// MissingDateTime is the reserved epoch-seconds sentinel encoding a missing
// date-time value.
const MissingDateTime int64 = math.MinInt64

// dateTimeSource is the internal contract shared by the date-time column
// variants.
type dateTimeSource interface {
	NumericColumn
	secondsAt(row int) int64
	nanoAt(row int) int32
	subsecond() bool
}

// NewDateTimeColumn returns a dense date-time column over the given epoch
// seconds. When nanos is non-nil it must have the same length and carries a
// nanosecond adjustment in [0, 1e9) per row; the column then reports
// nanosecond precision. Missing rows hold the MissingDateTime sentinel.
func NewDateTimeColumn(seconds []int64, nanos []int32) (NumericColumn, error) {
	if nanos != nil && len(nanos) != len(seconds) {
		return nil, fmt.Errorf("tabular: %d nanosecond adjustments for %d rows", len(nanos), len(seconds))
	}
	for i, n := range nanos {
		if n < 0 || n >= 1_000_000_000 {
			return nil, fmt.Errorf("tabular: nanosecond adjustment %d out of range at row %d", n, i)
		}
	}
	return &dateTimeColumn{seconds: seconds, nanos: nanos}, nil
}

const dateTimeCapabilities = NumericReadable | ObjectReadable | Sortable

type dateTimeColumn struct {
	seconds []int64
	nanos   []int32
}

func (c *dateTimeColumn) Type() Type { return DateTime }

func (c *dateTimeColumn) Len() int { return len(c.seconds) }

func (c *dateTimeColumn) Capabilities() Capability { return dateTimeCapabilities }

func (c *dateTimeColumn) secondsAt(row int) int64 { return c.seconds[row] }

func (c *dateTimeColumn) nanoAt(row int) int32 {
	if c.nanos == nil {
		return 0
	}
	return c.nanos[row]
}

func (c *dateTimeColumn) subsecond() bool { return c.nanos != nil }

func (c *dateTimeColumn) FillFloat64(dst []float64, row int) {
	fillDateTimeFloat64(c, dst, row)
}

func (c *dateTimeColumn) FillFloat64Stride(dst []float64, row, offset, stride int) {
	fillDateTimeFloat64Stride(c, dst, row, offset, stride)
}

func (c *dateTimeColumn) FillObjects(dst []any, row int) {
	fillDateTimeObjects(c, dst, row)
}

func (c *dateTimeColumn) Map(mapping []int32, preferView bool) Column {
	return mapDateTime(c, mapping, preferView)
}

type mappedDateTimeColumn struct {
	underlying dateTimeSource
	mapping    []int32
}

func (c *mappedDateTimeColumn) Type() Type { return DateTime }

func (c *mappedDateTimeColumn) Len() int { return len(c.mapping) }

func (c *mappedDateTimeColumn) Capabilities() Capability { return dateTimeCapabilities }

func (c *mappedDateTimeColumn) secondsAt(row int) int64 {
	if m := c.mapping[row]; m >= 0 && int(m) < c.underlying.Len() {
		return c.underlying.secondsAt(int(m))
	}
	return MissingDateTime
}

func (c *mappedDateTimeColumn) nanoAt(row int) int32 {
	if m := c.mapping[row]; m >= 0 && int(m) < c.underlying.Len() {
		return c.underlying.nanoAt(int(m))
	}
	return 0
}

func (c *mappedDateTimeColumn) subsecond() bool { return c.underlying.subsecond() }

func (c *mappedDateTimeColumn) FillFloat64(dst []float64, row int) {
	fillDateTimeFloat64(c, dst, row)
}

func (c *mappedDateTimeColumn) FillFloat64Stride(dst []float64, row, offset, stride int) {
	fillDateTimeFloat64Stride(c, dst, row, offset, stride)
}

func (c *mappedDateTimeColumn) FillObjects(dst []any, row int) {
	fillDateTimeObjects(c, dst, row)
}

func (c *mappedDateTimeColumn) Map(mapping []int32, preferView bool) Column {
	if preferView {
		return &mappedDateTimeColumn{underlying: c.underlying, mapping: ComposeMappings(c.mapping, mapping)}
	}
	return materializeDateTime(c, mapping)
}

func dateTimeFloat64(seconds int64) float64 {
	if seconds == MissingDateTime {
		return math.NaN()
	}
	return float64(seconds)
}

func fillDateTimeFloat64(c dateTimeSource, dst []float64, row int) {
	checkFillStart(row)
	n := c.Len() - row
	if n > len(dst) {
		n = len(dst)
	}
	for j := 0; j < n; j++ {
		dst[j] = dateTimeFloat64(c.secondsAt(row + j))
	}
}

func fillDateTimeFloat64Stride(c dateTimeSource, dst []float64, row, offset, stride int) {
	checkFillStride(row, offset, stride)
	size := c.Len()
	for p, r := offset, row; p < len(dst); p, r = p+stride, r+1 {
		if r < size {
			dst[p] = dateTimeFloat64(c.secondsAt(r))
		} else {
			dst[p] = math.NaN()
		}
	}
}

func fillDateTimeObjects(c dateTimeSource, dst []any, row int) {
	checkFillStart(row)
	n := c.Len() - row
	if n > len(dst) {
		n = len(dst)
	}
	for j := 0; j < n; j++ {
		if seconds := c.secondsAt(row + j); seconds != MissingDateTime {
			dst[j] = time.Unix(seconds, int64(c.nanoAt(row+j))).UTC()
		} else {
			dst[j] = nil
		}
	}
}

func mapDateTime(c dateTimeSource, mapping []int32, preferView bool) Column {
	if preferView {
		return &mappedDateTimeColumn{underlying: c, mapping: mapping}
	}
	return materializeDateTime(c, mapping)
}

func materializeDateTime(c dateTimeSource, mapping []int32) Column {
	seconds := make([]int64, len(mapping))
	var nanos []int32
	if c.subsecond() {
		nanos = make([]int32, len(mapping))
	}
	size := c.Len()
	for i, m := range mapping {
		if m >= 0 && int(m) < size {
			seconds[i] = c.secondsAt(int(m))
			if nanos != nil {
				nanos[i] = c.nanoAt(int(m))
			}
		} else {
			seconds[i] = MissingDateTime
		}
	}
	return &dateTimeColumn{seconds: seconds, nanos: nanos}
}
