package tabular

import (
	"fmt"
	"math"
)

// A RowWriter materializes numeric columns from a stream of row values.
//
// Values are buffered per column and flushed to chunked storage when the
// buffer fills. At flush boundaries, while the writer has seen at most
// MaxSparsityCheckRows rows, each dense column is probed for sparsity and
// may be swapped to a sparse builder whose default value is locked for the
// remainder of the column. Columns whose default frequency drops back below
// the threshold are converted back to dense storage before the table is
// created.
//
// A writer is single threaded and moves from OPEN to FROZEN when Create
// returns its table; Move and Set panic afterwards, and a second Create
// fails with ErrWriterFrozen.
type RowWriter struct {
	labels      []string
	types       []Type
	config      WriterConfig
	initialized bool
	defaultCell float64
	columns     []numericWriterColumn
	buffered    int
	height      int
	frozen      bool
}

type numericWriterColumn struct {
	buffer  []float64
	builder numericColumnBuilder
}

// NewRowWriter returns a row writer over the given numeric columns. When
// initialized is true, unset cells read as NaN; otherwise they read as 0.
func NewRowWriter(labels []string, types []Type, initialized bool, options ...WriterOption) (*RowWriter, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("tabular: no column labels")
	}
	if types == nil || len(types) != len(labels) {
		return nil, fmt.Errorf("tabular: %d column types for %d labels", len(types), len(labels))
	}
	for i, label := range labels {
		if label == "" {
			return nil, fmt.Errorf("tabular: empty label at index %d", i)
		}
	}
	for i, typ := range types {
		if typ == nil {
			return nil, fmt.Errorf("tabular: nil type at index %d", i)
		}
		if typ.Category() != CategoryNumeric {
			return nil, fmt.Errorf("tabular: %s is not a numeric type at index %d", typ, i)
		}
	}
	config := *DefaultWriterConfig()
	config.Apply(options...)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	w := &RowWriter{
		labels:      labels,
		types:       types,
		config:      config,
		initialized: initialized,
		columns:     make([]numericWriterColumn, len(labels)),
	}
	if initialized {
		w.defaultCell = math.NaN()
	}
	for i := range w.columns {
		w.columns[i] = numericWriterColumn{
			buffer:  make([]float64, 0, config.BufferSize),
			builder: newDenseNumericBuilder(&config),
		}
	}
	return w, nil
}

// Move advances the writer to the next row. Cells of the new row hold the
// writer's default until Set overwrites them.
func (w *RowWriter) Move() {
	w.checkOpen()
	if w.buffered == w.config.BufferSize {
		w.flush(true)
	}
	for i := range w.columns {
		w.columns[i].buffer = append(w.columns[i].buffer, w.defaultCell)
	}
	w.buffered++
	w.height++
}

// Set writes value at the current row of the given column. Integer-typed
// columns round to the nearest integer; NaN passes through as missing.
func (w *RowWriter) Set(column int, value float64) {
	w.checkOpen()
	if column < 0 || column >= len(w.columns) {
		panic(fmt.Sprintf("tabular: column index out of range [%d] with width %d", column, len(w.columns)))
	}
	if w.buffered == 0 {
		panic("tabular: Set called before the first Move")
	}
	if w.types[column].ID() == Integer53BitID && !math.IsNaN(value) {
		value = math.Round(value)
	}
	w.columns[column].buffer[w.buffered-1] = value
}

// Width returns the number of columns.
func (w *RowWriter) Width() int { return len(w.columns) }

// Create finalizes the writer and returns the table holding the written
// rows. It may be called exactly once.
func (w *RowWriter) Create() (*Table, error) {
	if w.frozen {
		return nil, ErrWriterFrozen
	}
	w.flush(false)
	w.frozen = true
	if err := checkLabels(w.labels); err != nil {
		return nil, err
	}
	columns := make([]Column, len(w.columns))
	for i := range w.columns {
		builder := w.columns[i].builder
		if sparse, ok := builder.(*sparseNumericBuilder); ok {
			if sparse.defaultFrequency() < w.config.SparsityThreshold {
				builder = sparse.densify(&w.config)
			}
		}
		columns[i] = builder.build(w.types[i])
	}
	labels := make([]string, len(w.labels))
	copy(labels, w.labels)
	return NewTable(labels, columns)
}

func (w *RowWriter) String() string {
	return fmt.Sprintf("Row writer (%dx%d)", w.height, len(w.columns))
}

func (w *RowWriter) checkOpen() {
	if w.frozen {
		panic(ErrWriterFrozen.Error())
	}
}

func (w *RowWriter) flush(checkSparsity bool) {
	for i := range w.columns {
		w.columns[i].builder.appendValues(w.columns[i].buffer)
	}
	if checkSparsity && w.height <= w.config.MaxSparsityCheckRows {
		w.checkForSparsity()
	}
	for i := range w.columns {
		w.columns[i].buffer = w.columns[i].buffer[:0]
	}
	w.buffered = 0
}

// checkForSparsity samples the rows accumulated since the last flush and,
// per column independently, swaps the dense builder for a sparse one when
// one value dominates the sample.
func (w *RowWriter) checkForSparsity() {
	for i := range w.columns {
		dense, ok := w.columns[i].builder.(*denseNumericBuilder)
		if !ok {
			continue
		}
		def, frequency := mostFrequent(w.columns[i].buffer)
		if frequency >= w.config.SparsityThreshold {
			w.columns[i].builder = newSparseNumericBuilder(def, dense, &w.config)
		}
	}
}
