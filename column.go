package tabular

import "fmt"

// The Column interface is the common contract of all column representations.
//
// Columns are immutable after construction: their size and type are fixed,
// and the backing storage is never written to again. Mapping a column does
// not copy or alter the original.
type Column interface {
	// Returns the type of the values held by the column.
	Type() Type

	// Returns the number of rows in the column.
	Len() int

	// Returns the set of capabilities supported by the column.
	Capabilities() Capability

	// Map returns a column whose row i holds the value of the receiver at
	// row mapping[i]. Negative or out-of-range entries of the mapping yield
	// missing values.
	//
	// The preferView hint permits the implementation to keep the result as
	// a lazy view over the receiver or to materialize it eagerly; either
	// choice produces bit-identical reads. The mapping is shared by
	// reference and must not be mutated by the caller afterwards.
	Map(mapping []int32, preferView bool) Column
}

// The NumericColumn interface is implemented by columns whose values can be
// read into float64 buffers.
type NumericColumn interface {
	Column

	// FillFloat64 reads values starting at the given row into dst. Entries
	// of dst past the end of the column are left untouched.
	FillFloat64(dst []float64, row int)

	// FillFloat64Stride reads values starting at the given row into dst at
	// positions offset, offset+stride, offset+2*stride, ... until dst is
	// exhausted. Positions whose source row lies past the end of the column
	// are set to NaN. Positions between stride steps are left untouched.
	FillFloat64Stride(dst []float64, row, offset, stride int)
}

// The CategoricalColumn interface is implemented by dictionary-encoded
// columns whose category indexes can be read into int32 buffers.
type CategoricalColumn interface {
	NumericColumn
	ObjectColumn

	// FillInt32 reads category indexes starting at the given row into dst.
	// Entries of dst past the end of the column are left untouched.
	FillInt32(dst []int32, row int)

	// FillInt32Stride is the strided form of FillInt32. Positions whose
	// source row lies past the end of the column are set to 0.
	FillInt32Stride(dst []int32, row, offset, stride int)

	// Returns the dictionary the column's indexes point into.
	Dictionary() *Dictionary

	// MapCached behaves like Map but consults the given cache when the
	// receiver is itself a mapped view, so that mapping many views that
	// share one mapping array computes the composition only once. The cache
	// is keyed by the receiver's mapping array, so one cache serves one
	// applied mapping.
	MapCached(mapping []int32, preferView bool, cache *MapCache) Column
}

// The ObjectColumn interface is implemented by columns whose values can be
// read as Go values.
type ObjectColumn interface {
	Column

	// FillObjects reads values starting at the given row into dst. Missing
	// values read as nil. Entries of dst past the end of the column are
	// left untouched.
	FillObjects(dst []any, row int)
}

// Fill preconditions are programmer errors and panic, in line with the
// misuse handling of the writer buffers.

func checkFillStart(row int) {
	if row < 0 {
		panic(fmt.Sprintf("tabular: negative fill start %d", row))
	}
}

func checkFillStride(row, offset, stride int) {
	checkFillStart(row)
	if offset < 0 {
		panic(fmt.Sprintf("tabular: negative fill offset %d", offset))
	}
	if stride < 1 {
		panic(fmt.Sprintf("tabular: fill stride %d is not positive", stride))
	}
}
