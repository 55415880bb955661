package tabular

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// MissingTime is the reserved nanoseconds-of-day sentinel encoding a missing
// time-of-day value.
const MissingTime int64 = math.MinInt64

const nanosPerDay = 24 * 60 * 60 * 1_000_000_000

// timeSource is the internal contract shared by the time column variants.
type timeSource interface {
	NumericColumn
	nanosAt(row int) int64
}

// NewTimeColumn returns a dense time-of-day column over the given
// nanoseconds-of-day values. Every value must lie in [0, 24h) or be the
// MissingTime sentinel.
func NewTimeColumn(values []int64) (NumericColumn, error) {
	for i, v := range values {
		if v != MissingTime && (v < 0 || v >= nanosPerDay) {
			return nil, fmt.Errorf("tabular: nanoseconds of day %d out of range at row %d", v, i)
		}
	}
	return &timeColumn{values: values}, nil
}

// NewSparseTimeColumn returns a sparse time-of-day column of the given size
// holding defaultValue everywhere except at the given row indexes.
func NewSparseTimeColumn(size int, defaultValue int64, indexes []int32, values []int64) (NumericColumn, error) {
	if size < 0 {
		return nil, fmt.Errorf("tabular: negative column size %d", size)
	}
	if len(indexes) != len(values) {
		return nil, fmt.Errorf("tabular: %d sparse indexes for %d values", len(indexes), len(values))
	}
	for i, x := range indexes {
		if x < 0 || int(x) >= size {
			return nil, fmt.Errorf("tabular: sparse index %d out of range [0,%d)", x, size)
		}
		if i > 0 && indexes[i-1] >= x {
			return nil, fmt.Errorf("tabular: sparse indexes are not strictly increasing at position %d", i)
		}
		if values[i] == defaultValue {
			return nil, fmt.Errorf("tabular: sparse value at index %d equals the default", x)
		}
	}
	return &sparseTimeColumn{size: size, def: defaultValue, indexes: indexes, values: values}, nil
}

const timeCapabilities = NumericReadable | ObjectReadable | Sortable

func timeFloat64(nanos int64) float64 {
	if nanos == MissingTime {
		return math.NaN()
	}
	return float64(nanos)
}

type timeColumn struct {
	values []int64
}

func (c *timeColumn) Type() Type { return TimeOfDay }

func (c *timeColumn) Len() int { return len(c.values) }

func (c *timeColumn) Capabilities() Capability { return timeCapabilities }

func (c *timeColumn) nanosAt(row int) int64 { return c.values[row] }

func (c *timeColumn) FillFloat64(dst []float64, row int) {
	fillTimeFloat64(c, dst, row)
}

func (c *timeColumn) FillFloat64Stride(dst []float64, row, offset, stride int) {
	fillTimeFloat64Stride(c, dst, row, offset, stride)
}

func (c *timeColumn) FillObjects(dst []any, row int) {
	fillTimeObjects(c, dst, row)
}

func (c *timeColumn) Map(mapping []int32, preferView bool) Column {
	return mapTime(c, mapping, preferView)
}

type sparseTimeColumn struct {
	size    int
	def     int64
	indexes []int32
	values  []int64
}

func (c *sparseTimeColumn) Type() Type { return TimeOfDay }

func (c *sparseTimeColumn) Len() int { return c.size }

func (c *sparseTimeColumn) Capabilities() Capability { return timeCapabilities }

func (c *sparseTimeColumn) nanosAt(row int) int64 {
	i := sort.Search(len(c.indexes), func(k int) bool { return c.indexes[k] >= int32(row) })
	if i < len(c.indexes) && int(c.indexes[i]) == row {
		return c.values[i]
	}
	return c.def
}

func (c *sparseTimeColumn) FillFloat64(dst []float64, row int) {
	fillTimeFloat64(c, dst, row)
}

func (c *sparseTimeColumn) FillFloat64Stride(dst []float64, row, offset, stride int) {
	fillTimeFloat64Stride(c, dst, row, offset, stride)
}

func (c *sparseTimeColumn) FillObjects(dst []any, row int) {
	fillTimeObjects(c, dst, row)
}

func (c *sparseTimeColumn) Map(mapping []int32, preferView bool) Column {
	return mapTime(c, mapping, preferView)
}

type mappedTimeColumn struct {
	underlying timeSource
	mapping    []int32
}

func (c *mappedTimeColumn) Type() Type { return TimeOfDay }

func (c *mappedTimeColumn) Len() int { return len(c.mapping) }

func (c *mappedTimeColumn) Capabilities() Capability { return timeCapabilities }

func (c *mappedTimeColumn) nanosAt(row int) int64 {
	if m := c.mapping[row]; m >= 0 && int(m) < c.underlying.Len() {
		return c.underlying.nanosAt(int(m))
	}
	return MissingTime
}

func (c *mappedTimeColumn) FillFloat64(dst []float64, row int) {
	fillTimeFloat64(c, dst, row)
}

func (c *mappedTimeColumn) FillFloat64Stride(dst []float64, row, offset, stride int) {
	fillTimeFloat64Stride(c, dst, row, offset, stride)
}

func (c *mappedTimeColumn) FillObjects(dst []any, row int) {
	fillTimeObjects(c, dst, row)
}

func (c *mappedTimeColumn) Map(mapping []int32, preferView bool) Column {
	if preferView {
		return &mappedTimeColumn{underlying: c.underlying, mapping: ComposeMappings(c.mapping, mapping)}
	}
	return materializeTime(c, mapping)
}

func fillTimeFloat64(c timeSource, dst []float64, row int) {
	checkFillStart(row)
	n := c.Len() - row
	if n > len(dst) {
		n = len(dst)
	}
	for j := 0; j < n; j++ {
		dst[j] = timeFloat64(c.nanosAt(row + j))
	}
}

func fillTimeFloat64Stride(c timeSource, dst []float64, row, offset, stride int) {
	checkFillStride(row, offset, stride)
	size := c.Len()
	for p, r := offset, row; p < len(dst); p, r = p+stride, r+1 {
		if r < size {
			dst[p] = timeFloat64(c.nanosAt(r))
		} else {
			dst[p] = math.NaN()
		}
	}
}

func fillTimeObjects(c timeSource, dst []any, row int) {
	checkFillStart(row)
	n := c.Len() - row
	if n > len(dst) {
		n = len(dst)
	}
	for j := 0; j < n; j++ {
		if nanos := c.nanosAt(row + j); nanos != MissingTime {
			dst[j] = time.Duration(nanos)
		} else {
			dst[j] = nil
		}
	}
}

func mapTime(c timeSource, mapping []int32, preferView bool) Column {
	if preferView {
		return &mappedTimeColumn{underlying: c, mapping: mapping}
	}
	return materializeTime(c, mapping)
}

func materializeTime(c timeSource, mapping []int32) Column {
	values := make([]int64, len(mapping))
	size := c.Len()
	for i, m := range mapping {
		if m >= 0 && int(m) < size {
			values[i] = c.nanosAt(int(m))
		} else {
			values[i] = MissingTime
		}
	}
	return &timeColumn{values: values}
}
