package tabular

import (
	"fmt"
	"math"
	"sort"
)

// float64Source is the internal contract shared by the numeric column
// variants: random access to one row, used by the mapped view and by the
// materializing code paths.
type float64Source interface {
	NumericColumn
	float64At(row int) float64
}

// NewNumericColumn returns a dense numeric column over the given values.
// The type must be REAL or INTEGER_53_BIT; for INTEGER_53_BIT the values
// must already hold whole numbers (or NaN for missing). The slice is shared
// by reference and must not be mutated afterwards.
func NewNumericColumn(typ Type, values []float64) (NumericColumn, error) {
	if typ.Category() != CategoryNumeric {
		return nil, fmt.Errorf("tabular: %s is not a numeric type", typ)
	}
	return &numericColumn{typ: typ, values: values}, nil
}

// NewSparseNumericColumn returns a sparse numeric column of the given size
// holding defaultValue everywhere except at the given row indexes. The
// indexes must be strictly increasing, within [0, size), and the paired
// values must differ from the default.
func NewSparseNumericColumn(typ Type, size int, defaultValue float64, indexes []int32, values []float64) (NumericColumn, error) {
	if typ.Category() != CategoryNumeric {
		return nil, fmt.Errorf("tabular: %s is not a numeric type", typ)
	}
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
		if sameFloat64(values[i], defaultValue) {
			return nil, fmt.Errorf("tabular: sparse value at index %d equals the default", x)
		}
	}
	return &sparseNumericColumn{typ: typ, size: size, def: defaultValue, indexes: indexes, values: values}, nil
}

// sameFloat64 compares two values treating every NaN as equal.
func sameFloat64(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

type numericColumn struct {
	typ    Type
	values []float64
}

func (c *numericColumn) Type() Type { return c.typ }

func (c *numericColumn) Len() int { return len(c.values) }

func (c *numericColumn) Capabilities() Capability { return NumericReadable | Sortable }

func (c *numericColumn) float64At(row int) float64 { return c.values[row] }

func (c *numericColumn) FillFloat64(dst []float64, row int) {
	checkFillStart(row)
	if row < len(c.values) {
		copy(dst, c.values[row:])
	}
}

func (c *numericColumn) FillFloat64Stride(dst []float64, row, offset, stride int) {
	checkFillStride(row, offset, stride)
	for p, r := offset, row; p < len(dst); p, r = p+stride, r+1 {
		if r < len(c.values) {
			dst[p] = c.values[r]
		} else {
			dst[p] = math.NaN()
		}
	}
}

func (c *numericColumn) Map(mapping []int32, preferView bool) Column {
	if preferView {
		return &mappedNumericColumn{typ: c.typ, underlying: c, mapping: mapping}
	}
	return materializeNumeric(c.typ, c, mapping)
}

type sparseNumericColumn struct {
	typ     Type
	size    int
	def     float64
	indexes []int32
	values  []float64
}

func (c *sparseNumericColumn) Type() Type { return c.typ }

func (c *sparseNumericColumn) Len() int { return c.size }

func (c *sparseNumericColumn) Capabilities() Capability { return NumericReadable | Sortable }

func (c *sparseNumericColumn) float64At(row int) float64 {
	i := sort.Search(len(c.indexes), func(k int) bool { return c.indexes[k] >= int32(row) })
	if i < len(c.indexes) && int(c.indexes[i]) == row {
		return c.values[i]
	}
	return c.def
}

func (c *sparseNumericColumn) FillFloat64(dst []float64, row int) {
	checkFillStart(row)
	if row >= c.size {
		return
	}
	n := c.size - row
	if n > len(dst) {
		n = len(dst)
	}
	for j := 0; j < n; j++ {
		dst[j] = c.def
	}
	i := sort.Search(len(c.indexes), func(k int) bool { return c.indexes[k] >= int32(row) })
	for ; i < len(c.indexes) && int(c.indexes[i]) < row+n; i++ {
		dst[int(c.indexes[i])-row] = c.values[i]
	}
}

func (c *sparseNumericColumn) FillFloat64Stride(dst []float64, row, offset, stride int) {
	checkFillStride(row, offset, stride)
	i := sort.Search(len(c.indexes), func(k int) bool { return c.indexes[k] >= int32(row) })
	for p, r := offset, row; p < len(dst); p, r = p+stride, r+1 {
		switch {
		case r >= c.size:
			dst[p] = math.NaN()
		case i < len(c.indexes) && int(c.indexes[i]) == r:
			dst[p] = c.values[i]
			i++
		default:
			dst[p] = c.def
		}
	}
}

func (c *sparseNumericColumn) Map(mapping []int32, preferView bool) Column {
	if preferView {
		return &mappedNumericColumn{typ: c.typ, underlying: c, mapping: mapping}
	}
	return materializeNumeric(c.typ, c, mapping)
}

type mappedNumericColumn struct {
	typ        Type
	underlying float64Source
	mapping    []int32
}

func (c *mappedNumericColumn) Type() Type { return c.typ }

func (c *mappedNumericColumn) Len() int { return len(c.mapping) }

func (c *mappedNumericColumn) Capabilities() Capability { return NumericReadable | Sortable }

func (c *mappedNumericColumn) float64At(row int) float64 {
	if m := c.mapping[row]; m >= 0 && int(m) < c.underlying.Len() {
		return c.underlying.float64At(int(m))
	}
	return math.NaN()
}

func (c *mappedNumericColumn) FillFloat64(dst []float64, row int) {
	checkFillStart(row)
	n := len(c.mapping) - row
	if n > len(dst) {
		n = len(dst)
	}
	for j := 0; j < n; j++ {
		dst[j] = c.float64At(row + j)
	}
}

func (c *mappedNumericColumn) FillFloat64Stride(dst []float64, row, offset, stride int) {
	checkFillStride(row, offset, stride)
	for p, r := offset, row; p < len(dst); p, r = p+stride, r+1 {
		if r < len(c.mapping) {
			dst[p] = c.float64At(r)
		} else {
			dst[p] = math.NaN()
		}
	}
}

func (c *mappedNumericColumn) Map(mapping []int32, preferView bool) Column {
	if preferView {
		return &mappedNumericColumn{
			typ:        c.typ,
			underlying: c.underlying,
			mapping:    ComposeMappings(c.mapping, mapping),
		}
	}
	return materializeNumeric(c.typ, c, mapping)
}

func materializeNumeric(typ Type, src float64Source, mapping []int32) *numericColumn {
	values := make([]float64, len(mapping))
	size := src.Len()
	for i, m := range mapping {
		if m >= 0 && int(m) < size {
			values[i] = src.float64At(int(m))
		} else {
			values[i] = math.NaN()
		}
	}
	return &numericColumn{typ: typ, values: values}
}
