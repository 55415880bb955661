package tabular

const smallReaderBufferSize = 2048

// A NumericReader is a cursor over a numeric-readable column, fetching
// values through the fill kernels into a small internal buffer.
//
// Readers are single threaded and must not be shared between goroutines.
type NumericReader struct {
	column NumericColumn
	buffer []float64
	next   int
	row    int
}

// NewNumericReader returns a reader positioned before the first row of c.
func NewNumericReader(c NumericColumn) *NumericReader {
	return &NumericReader{column: c, buffer: make([]float64, 0, smallReaderBufferSize)}
}

// Remaining returns the number of values left to read.
func (r *NumericReader) Remaining() int {
	return (r.column.Len() - r.row) + (len(r.buffer) - r.next)
}

// Read returns the next value. It panics when the reader is exhausted.
func (r *NumericReader) Read() float64 {
	if r.next == len(r.buffer) {
		r.fetch()
	}
	v := r.buffer[r.next]
	r.next++
	return v
}

func (r *NumericReader) fetch() {
	n := r.column.Len() - r.row
	if n == 0 {
		panic("tabular: read past the end of the column")
	}
	if n > smallReaderBufferSize {
		n = smallReaderBufferSize
	}
	r.buffer = r.buffer[:n]
	r.column.FillFloat64(r.buffer, r.row)
	r.row += n
	r.next = 0
}

// An IndexReader is a cursor over a categorical column yielding category
// indexes.
type IndexReader struct {
	column CategoricalColumn
	buffer []int32
	next   int
	row    int
}

// NewIndexReader returns a reader positioned before the first row of c.
func NewIndexReader(c CategoricalColumn) *IndexReader {
	return &IndexReader{column: c, buffer: make([]int32, 0, smallReaderBufferSize)}
}

// Remaining returns the number of values left to read.
func (r *IndexReader) Remaining() int {
	return (r.column.Len() - r.row) + (len(r.buffer) - r.next)
}

// Read returns the next category index. It panics when the reader is
// exhausted.
func (r *IndexReader) Read() int32 {
	if r.next == len(r.buffer) {
		r.fetch()
	}
	v := r.buffer[r.next]
	r.next++
	return v
}

func (r *IndexReader) fetch() {
	n := r.column.Len() - r.row
	if n == 0 {
		panic("tabular: read past the end of the column")
	}
	if n > smallReaderBufferSize {
		n = smallReaderBufferSize
	}
	r.buffer = r.buffer[:n]
	r.column.FillInt32(r.buffer, r.row)
	r.row += n
	r.next = 0
}

// An ObjectReader is a cursor over an object-readable column.
type ObjectReader struct {
	column ObjectColumn
	buffer []any
	next   int
	row    int
}

// NewObjectReader returns a reader positioned before the first row of c.
func NewObjectReader(c ObjectColumn) *ObjectReader {
	return &ObjectReader{column: c, buffer: make([]any, 0, smallReaderBufferSize)}
}

// Remaining returns the number of values left to read.
func (r *ObjectReader) Remaining() int {
	return (r.column.Len() - r.row) + (len(r.buffer) - r.next)
}

// Read returns the next value, nil for missing. It panics when the reader
// is exhausted.
func (r *ObjectReader) Read() any {
	if r.next == len(r.buffer) {
		r.fetch()
	}
	v := r.buffer[r.next]
	r.next++
	return v
}

func (r *ObjectReader) fetch() {
	n := r.column.Len() - r.row
	if n == 0 {
		panic("tabular: read past the end of the column")
	}
	if n > smallReaderBufferSize {
		n = smallReaderBufferSize
	}
	r.buffer = r.buffer[:n]
	r.column.FillObjects(r.buffer, r.row)
	r.row += n
	r.next = 0
}
