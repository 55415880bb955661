package tabular

import (
	"fmt"
	"math"
	"sort"

	"github.com/segmentio/tabular-go/internal/bitpack"
)

// categoricalSource is the internal contract shared by the categorical
// column variants: random access to the effective category index of one row,
// with the variant's own remapping already applied.
type categoricalSource interface {
	CategoricalColumn
	indexAt(row int) int
}

// NewCategoricalColumn returns a dense categorical column over the given
// category indexes. Every index must lie in [0, dict.Len()); the backing
// store is bit packed at the narrowest width able to address the
// dictionary.
func NewCategoricalColumn(typ Type, indexes []int32, dict *Dictionary) (CategoricalColumn, error) {
	if typ.Category() != CategoryCategorical {
		return nil, fmt.Errorf("tabular: %s is not a categorical type", typ)
	}
	if dict == nil {
		return nil, fmt.Errorf("tabular: nil dictionary")
	}
	data := bitpack.Make(bitpack.FormatFor(dict.Len()-1), len(indexes))
	for i, x := range indexes {
		if x < 0 || int(x) >= dict.Len() {
			return nil, fmt.Errorf("tabular: category index %d out of range [0,%d)", x, dict.Len())
		}
		data.Set(i, int(x))
	}
	return &categoricalColumn{typ: typ, dict: dict, data: data}, nil
}

// NewSparseCategoricalColumn returns a sparse categorical column of the
// given size holding defaultIndex everywhere except at the given row
// indexes.
func NewSparseCategoricalColumn(typ Type, size int, defaultIndex int32, indexes, values []int32, dict *Dictionary) (CategoricalColumn, error) {
	if typ.Category() != CategoryCategorical {
		return nil, fmt.Errorf("tabular: %s is not a categorical type", typ)
	}
	if dict == nil {
		return nil, fmt.Errorf("tabular: nil dictionary")
	}
	if size < 0 {
		return nil, fmt.Errorf("tabular: negative column size %d", size)
	}
	if defaultIndex < 0 || int(defaultIndex) >= dict.Len() {
		return nil, fmt.Errorf("tabular: default index %d out of range [0,%d)", defaultIndex, dict.Len())
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
		if values[i] == defaultIndex {
			return nil, fmt.Errorf("tabular: sparse value at index %d equals the default", x)
		}
		if values[i] < 0 || int(values[i]) >= dict.Len() {
			return nil, fmt.Errorf("tabular: category index %d out of range [0,%d)", values[i], dict.Len())
		}
	}
	return &sparseCategoricalColumn{typ: typ, dict: dict, size: size, def: defaultIndex, indexes: indexes, values: values}, nil
}

const categoricalCapabilities = NumericReadable | IndexReadable | ObjectReadable | Sortable

// categoricalColumn is the dense variant, optionally remapped: when remap is
// non-nil the raw packed index x reads as remap[x], with -1 denoting the
// missing category, and dict is the translated (merged) dictionary.
type categoricalColumn struct {
	typ   Type
	dict  *Dictionary
	data  bitpack.Array
	remap []int32
}

func (c *categoricalColumn) Type() Type { return c.typ }

func (c *categoricalColumn) Len() int { return c.data.Len() }

func (c *categoricalColumn) Capabilities() Capability { return categoricalCapabilities }

func (c *categoricalColumn) Dictionary() *Dictionary { return c.dict }

func (c *categoricalColumn) indexAt(row int) int {
	x := c.data.Index(row)
	if c.remap != nil {
		if y := c.remap[x]; y >= 0 {
			return int(y)
		}
		return 0
	}
	return x
}

func (c *categoricalColumn) FillInt32(dst []int32, row int) {
	checkFillStart(row)
	if c.remap == nil {
		c.data.Fill(dst, row)
		return
	}
	fillIndexes(c, dst, row)
}

func (c *categoricalColumn) FillInt32Stride(dst []int32, row, offset, stride int) {
	fillIndexesStride(c, dst, row, offset, stride)
}

func (c *categoricalColumn) FillFloat64(dst []float64, row int) {
	fillIndexesFloat64(c, dst, row)
}

func (c *categoricalColumn) FillFloat64Stride(dst []float64, row, offset, stride int) {
	fillIndexesFloat64Stride(c, dst, row, offset, stride)
}

func (c *categoricalColumn) FillObjects(dst []any, row int) {
	fillIndexObjects(c, dst, row)
}

func (c *categoricalColumn) Map(mapping []int32, preferView bool) Column {
	return mapCategorical(c, mapping, preferView)
}

func (c *categoricalColumn) MapCached(mapping []int32, preferView bool, cache *MapCache) Column {
	return mapCategorical(c, mapping, preferView)
}

// sparseCategoricalColumn stores the positions whose category differs from
// a default category index.
type sparseCategoricalColumn struct {
	typ     Type
	dict    *Dictionary
	size    int
	def     int32
	indexes []int32
	values  []int32
	remap   []int32
}

func (c *sparseCategoricalColumn) Type() Type { return c.typ }

func (c *sparseCategoricalColumn) Len() int { return c.size }

func (c *sparseCategoricalColumn) Capabilities() Capability { return categoricalCapabilities }

func (c *sparseCategoricalColumn) Dictionary() *Dictionary { return c.dict }

func (c *sparseCategoricalColumn) remapped(x int32) int {
	if c.remap != nil {
		if y := c.remap[x]; y >= 0 {
			return int(y)
		}
		return 0
	}
	return int(x)
}

func (c *sparseCategoricalColumn) indexAt(row int) int {
	i := sort.Search(len(c.indexes), func(k int) bool { return c.indexes[k] >= int32(row) })
	if i < len(c.indexes) && int(c.indexes[i]) == row {
		return c.remapped(c.values[i])
	}
	return c.remapped(c.def)
}

func (c *sparseCategoricalColumn) FillInt32(dst []int32, row int) {
	checkFillStart(row)
	if row >= c.size {
		return
	}
	n := c.size - row
	if n > len(dst) {
		n = len(dst)
	}
	def := int32(c.remapped(c.def))
	for j := 0; j < n; j++ {
		dst[j] = def
	}
	i := sort.Search(len(c.indexes), func(k int) bool { return c.indexes[k] >= int32(row) })
	for ; i < len(c.indexes) && int(c.indexes[i]) < row+n; i++ {
		dst[int(c.indexes[i])-row] = int32(c.remapped(c.values[i]))
	}
}

func (c *sparseCategoricalColumn) FillInt32Stride(dst []int32, row, offset, stride int) {
	fillIndexesStride(c, dst, row, offset, stride)
}

func (c *sparseCategoricalColumn) FillFloat64(dst []float64, row int) {
	fillIndexesFloat64(c, dst, row)
}

func (c *sparseCategoricalColumn) FillFloat64Stride(dst []float64, row, offset, stride int) {
	fillIndexesFloat64Stride(c, dst, row, offset, stride)
}

func (c *sparseCategoricalColumn) FillObjects(dst []any, row int) {
	fillIndexObjects(c, dst, row)
}

func (c *sparseCategoricalColumn) Map(mapping []int32, preferView bool) Column {
	return mapCategorical(c, mapping, preferView)
}

func (c *sparseCategoricalColumn) MapCached(mapping []int32, preferView bool, cache *MapCache) Column {
	return mapCategorical(c, mapping, preferView)
}

// mappedCategoricalColumn overlays a mapping, and optionally a remapping,
// over another categorical variant. Out-of-range mapping entries read as the
// missing category.
type mappedCategoricalColumn struct {
	typ        Type
	dict       *Dictionary
	underlying categoricalSource
	mapping    []int32
	remap      []int32
}

func (c *mappedCategoricalColumn) Type() Type { return c.typ }

func (c *mappedCategoricalColumn) Len() int { return len(c.mapping) }

func (c *mappedCategoricalColumn) Capabilities() Capability {
	return categoricalCapabilities | CacheMapped
}

func (c *mappedCategoricalColumn) Dictionary() *Dictionary { return c.dict }

func (c *mappedCategoricalColumn) indexAt(row int) int {
	m := c.mapping[row]
	if m < 0 || int(m) >= c.underlying.Len() {
		return 0
	}
	x := c.underlying.indexAt(int(m))
	if c.remap != nil {
		if y := c.remap[x]; y >= 0 {
			return int(y)
		}
		return 0
	}
	return x
}

func (c *mappedCategoricalColumn) FillInt32(dst []int32, row int) {
	fillIndexes(c, dst, row)
}

func (c *mappedCategoricalColumn) FillInt32Stride(dst []int32, row, offset, stride int) {
	fillIndexesStride(c, dst, row, offset, stride)
}

func (c *mappedCategoricalColumn) FillFloat64(dst []float64, row int) {
	fillIndexesFloat64(c, dst, row)
}

func (c *mappedCategoricalColumn) FillFloat64Stride(dst []float64, row, offset, stride int) {
	fillIndexesFloat64Stride(c, dst, row, offset, stride)
}

func (c *mappedCategoricalColumn) FillObjects(dst []any, row int) {
	fillIndexObjects(c, dst, row)
}

func (c *mappedCategoricalColumn) Map(mapping []int32, preferView bool) Column {
	if preferView {
		return &mappedCategoricalColumn{
			typ:        c.typ,
			dict:       c.dict,
			underlying: c.underlying,
			mapping:    ComposeMappings(c.mapping, mapping),
			remap:      c.remap,
		}
	}
	return materializeCategorical(c, mapping)
}

func (c *mappedCategoricalColumn) MapCached(mapping []int32, preferView bool, cache *MapCache) Column {
	if preferView && cache != nil {
		composed := cache.composed(c.mapping, func() []int32 {
			return ComposeMappings(c.mapping, mapping)
		})
		return &mappedCategoricalColumn{
			typ:        c.typ,
			dict:       c.dict,
			underlying: c.underlying,
			mapping:    composed,
			remap:      c.remap,
		}
	}
	return c.Map(mapping, preferView)
}

// Shared kernels over the categoricalSource contract. The dense non-remapped
// fast path bypasses these through the bit-packed bulk fill.

func fillIndexes(c categoricalSource, dst []int32, row int) {
	checkFillStart(row)
	n := c.Len() - row
	if n > len(dst) {
		n = len(dst)
	}
	for j := 0; j < n; j++ {
		dst[j] = int32(c.indexAt(row + j))
	}
}

func fillIndexesStride(c categoricalSource, dst []int32, row, offset, stride int) {
	checkFillStride(row, offset, stride)
	size := c.Len()
	for p, r := offset, row; p < len(dst); p, r = p+stride, r+1 {
		if r < size {
			dst[p] = int32(c.indexAt(r))
		} else {
			dst[p] = 0
		}
	}
}

func fillIndexesFloat64(c categoricalSource, dst []float64, row int) {
	checkFillStart(row)
	n := c.Len() - row
	if n > len(dst) {
		n = len(dst)
	}
	for j := 0; j < n; j++ {
		dst[j] = float64(c.indexAt(row + j))
	}
}

func fillIndexesFloat64Stride(c categoricalSource, dst []float64, row, offset, stride int) {
	checkFillStride(row, offset, stride)
	size := c.Len()
	for p, r := offset, row; p < len(dst); p, r = p+stride, r+1 {
		if r < size {
			dst[p] = float64(c.indexAt(r))
		} else {
			dst[p] = math.NaN()
		}
	}
}

func fillIndexObjects(c categoricalSource, dst []any, row int) {
	checkFillStart(row)
	n := c.Len() - row
	if n > len(dst) {
		n = len(dst)
	}
	dict := c.Dictionary()
	for j := 0; j < n; j++ {
		if v, ok := dict.Get(c.indexAt(row + j)); ok {
			dst[j] = v
		} else {
			dst[j] = nil
		}
	}
}

func mapCategorical(c categoricalSource, mapping []int32, preferView bool) Column {
	if preferView {
		return &mappedCategoricalColumn{
			typ:        c.Type(),
			dict:       c.Dictionary(),
			underlying: c,
			mapping:    mapping,
		}
	}
	return materializeCategorical(c, mapping)
}

func materializeCategorical(c categoricalSource, mapping []int32) Column {
	dict := c.Dictionary()
	data := bitpack.Make(bitpack.FormatFor(dict.Len()-1), len(mapping))
	size := c.Len()
	for i, m := range mapping {
		if m >= 0 && int(m) < size {
			data.Set(i, c.indexAt(int(m)))
		}
	}
	return &categoricalColumn{typ: c.Type(), dict: dict, data: data}
}

// remapCategorical returns a view of c translating its category indexes into
// the merged dictionary through remap, composing with any remapping the
// column already carries. A remap entry of -1 reads as the missing category.
func remapCategorical(c CategoricalColumn, remap []int32, dict *Dictionary) CategoricalColumn {
	switch cc := c.(type) {
	case *categoricalColumn:
		return &categoricalColumn{typ: cc.typ, dict: dict, data: cc.data, remap: composeRemaps(cc.remap, remap)}
	case *sparseCategoricalColumn:
		return &sparseCategoricalColumn{
			typ: cc.typ, dict: dict, size: cc.size, def: cc.def,
			indexes: cc.indexes, values: cc.values,
			remap: composeRemaps(cc.remap, remap),
		}
	case *mappedCategoricalColumn:
		return &mappedCategoricalColumn{
			typ: cc.typ, dict: dict, underlying: cc.underlying, mapping: cc.mapping,
			remap: composeRemaps(cc.remap, remap),
		}
	default:
		panic(fmt.Sprintf("tabular: unsupported categorical column %T", c))
	}
}

func composeRemaps(old, next []int32) []int32 {
	if old == nil {
		return next
	}
	combined := make([]int32, len(old))
	for i, x := range old {
		if x < 0 {
			combined[i] = -1
		} else {
			combined[i] = next[x]
		}
	}
	return combined
}
