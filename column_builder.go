package tabular

import "math"

// chunkBuilder accumulates values in a growing list of chunks, avoiding the
// copy-on-grow of a single slice. The first chunk is allocated at the
// configured initial size (or the row count hint when larger) and each
// subsequent chunk doubles.
type chunkBuilder[T any] struct {
	nextSize int
	chunks   [][]T
	length   int
}

func newChunkBuilder[T any](config *WriterConfig) *chunkBuilder[T] {
	size := config.InitialChunkSize
	if config.RowCountHint > size {
		size = config.RowCountHint
	}
	return &chunkBuilder[T]{nextSize: size}
}

func (b *chunkBuilder[T]) push(v T) {
	n := len(b.chunks)
	if n == 0 || len(b.chunks[n-1]) == cap(b.chunks[n-1]) {
		b.chunks = append(b.chunks, make([]T, 0, b.nextSize))
		b.nextSize *= 2
		n++
	}
	b.chunks[n-1] = append(b.chunks[n-1], v)
	b.length++
}

func (b *chunkBuilder[T]) len() int { return b.length }

// collect concatenates all chunks into one contiguous slice.
func (b *chunkBuilder[T]) collect() []T {
	out := make([]T, 0, b.length)
	for _, chunk := range b.chunks {
		out = append(out, chunk...)
	}
	return out
}

// forEach visits all values in write order.
func (b *chunkBuilder[T]) forEach(fn func(i int, v T)) {
	i := 0
	for _, chunk := range b.chunks {
		for _, v := range chunk {
			fn(i, v)
			i++
		}
	}
}

// numericColumnBuilder is the evolving backing storage of one column of the
// numeric row writer. The dense and sparse implementations are swapped in
// place by the sparsity check.
type numericColumnBuilder interface {
	appendValues(values []float64)
	length() int
	build(typ Type) NumericColumn
}

type denseNumericBuilder struct {
	data *chunkBuilder[float64]
}

func newDenseNumericBuilder(config *WriterConfig) *denseNumericBuilder {
	return &denseNumericBuilder{data: newChunkBuilder[float64](config)}
}

func (b *denseNumericBuilder) appendValues(values []float64) {
	for _, v := range values {
		b.data.push(v)
	}
}

func (b *denseNumericBuilder) length() int { return b.data.len() }

func (b *denseNumericBuilder) build(typ Type) NumericColumn {
	return &numericColumn{typ: typ, values: b.data.collect()}
}

// sparseNumericBuilder stores only the positions whose value differs from
// the default chosen by the sparsity check. The default is locked for the
// remainder of the column once chosen.
type sparseNumericBuilder struct {
	def     float64
	size    int
	indexes *chunkBuilder[int32]
	values  *chunkBuilder[float64]
}

// newSparseNumericBuilder converts a dense builder, replaying every value
// written so far. NaN payloads and signed zeros pass through bit-exactly
// because values are stored verbatim and compared with the default bit for
// bit.
func newSparseNumericBuilder(def float64, dense *denseNumericBuilder, config *WriterConfig) *sparseNumericBuilder {
	b := &sparseNumericBuilder{
		def:     def,
		indexes: newChunkBuilder[int32](config),
		values:  newChunkBuilder[float64](config),
	}
	dense.data.forEach(func(i int, v float64) { b.pushValue(v) })
	return b
}

func (b *sparseNumericBuilder) pushValue(v float64) {
	if math.Float64bits(v) != math.Float64bits(b.def) {
		b.indexes.push(int32(b.size))
		b.values.push(v)
	}
	b.size++
}

func (b *sparseNumericBuilder) appendValues(values []float64) {
	for _, v := range values {
		b.pushValue(v)
	}
}

func (b *sparseNumericBuilder) length() int { return b.size }

// defaultFrequency returns the frequency of the default value over the full
// history of the column.
func (b *sparseNumericBuilder) defaultFrequency() float64 {
	if b.size == 0 {
		return 1
	}
	return float64(b.size-b.values.len()) / float64(b.size)
}

func (b *sparseNumericBuilder) build(typ Type) NumericColumn {
	return &sparseNumericColumn{
		typ:     typ,
		size:    b.size,
		def:     b.def,
		indexes: b.indexes.collect(),
		values:  b.values.collect(),
	}
}

// densify reconstructs a dense builder from the sparse storage, used when
// later rows pushed the default's frequency back below the threshold.
func (b *sparseNumericBuilder) densify(config *WriterConfig) *denseNumericBuilder {
	dense := newDenseNumericBuilder(config)
	indexes := b.indexes.collect()
	values := b.values.collect()
	next := 0
	for i := 0; i < b.size; i++ {
		if next < len(indexes) && int(indexes[next]) == i {
			dense.data.push(values[next])
			next++
		} else {
			dense.data.push(b.def)
		}
	}
	return dense
}

// canonicalNaNKey collapses all NaN payloads into one counting key so NaN
// can win the frequency vote.
const canonicalNaNKey = 0x7ff8000000000000

func float64Key(v float64) uint64 {
	if math.IsNaN(v) {
		return canonicalNaNKey
	}
	return math.Float64bits(v)
}

// mostFrequent returns the most frequent value of the sample and its
// frequency.
func mostFrequent(sample []float64) (value float64, frequency float64) {
	if len(sample) == 0 {
		return 0, 0
	}
	counts := make(map[uint64]int)
	bestKey, bestCount := float64Key(sample[0]), 0
	for _, v := range sample {
		k := float64Key(v)
		counts[k]++
		if counts[k] > bestCount {
			bestKey, bestCount = k, counts[k]
		}
	}
	if bestKey == canonicalNaNKey {
		return math.NaN(), float64(bestCount) / float64(len(sample))
	}
	return math.Float64frombits(bestKey), float64(bestCount) / float64(len(sample))
}
