package tabular

import (
	"fmt"
	"math"
	"time"

	"github.com/segmentio/encoding/iso8601"
)

// A GeneralRowWriter materializes columns of any type from a stream of row
// values. Numeric cells behave as in RowWriter (without sparsity
// detection); categorical cells grow a dictionary in first-seen order; time
// cells accept time.Duration, date-time cells accept time.Time or an
// ISO-8601 string; object cells accept the type's value or nil for
// missing.
//
// Like RowWriter, a general writer is single threaded and freezes after
// Create.
type GeneralRowWriter struct {
	labels      []string
	types       []Type
	config      WriterConfig
	initialized bool
	columns     []generalColumn
	buffered    int
	height      int
	frozen      bool
}

// generalColumn is the per-type cell storage of one column of the general
// row writer.
type generalColumn interface {
	appendDefault()
	set(value any)
	flush()
	build() (Column, error)
}

// NewGeneralRowWriter returns a row writer over columns of the given types.
// When initialized is true, unset numeric cells read as NaN; otherwise they
// read as 0. Unset cells of all other types read as missing in both modes.
func NewGeneralRowWriter(labels []string, types []Type, initialized bool, options ...WriterOption) (*GeneralRowWriter, error) {
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
	config := *DefaultWriterConfig()
	config.Apply(options...)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	w := &GeneralRowWriter{
		labels:      labels,
		types:       types,
		config:      config,
		initialized: initialized,
		columns:     make([]generalColumn, len(labels)),
	}
	for i, typ := range types {
		if typ == nil {
			return nil, fmt.Errorf("tabular: nil type at index %d", i)
		}
		switch typ.Category() {
		case CategoryNumeric:
			defaultCell := 0.0
			if initialized {
				defaultCell = math.NaN()
			}
			w.columns[i] = &generalNumericColumn{typ: typ, defaultCell: defaultCell, data: newChunkBuilder[float64](&config)}
		case CategoryCategorical:
			w.columns[i] = &generalNominalColumn{
				typ:   typ,
				index: make(map[string]int32),
				data:  newChunkBuilder[int32](&config),
			}
		case CategoryObject:
			w.columns[i] = &generalObjectColumn{typ: typ, data: newChunkBuilder[any](&config)}
		case CategoryTime:
			w.columns[i] = &generalTimeColumn{data: newChunkBuilder[int64](&config)}
		case CategoryDateTime:
			w.columns[i] = &generalDateTimeColumn{
				seconds: newChunkBuilder[int64](&config),
				nanos:   newChunkBuilder[int32](&config),
			}
		default:
			return nil, fmt.Errorf("tabular: unsupported type %s at index %d", typ, i)
		}
	}
	return w, nil
}

// Move advances the writer to the next row.
func (w *GeneralRowWriter) Move() {
	w.checkOpen()
	if w.buffered == w.config.BufferSize {
		w.flushAll()
	}
	for _, c := range w.columns {
		c.appendDefault()
	}
	w.buffered++
	w.height++
}

// Set writes value at the current row of the given column. A nil value
// writes missing. The value must match the column's declared type.
func (w *GeneralRowWriter) Set(column int, value any) {
	w.checkOpen()
	if column < 0 || column >= len(w.columns) {
		panic(fmt.Sprintf("tabular: column index out of range [%d] with width %d", column, len(w.columns)))
	}
	if w.buffered == 0 {
		panic("tabular: Set called before the first Move")
	}
	w.columns[column].set(value)
}

// SetFloat64 writes a numeric value at the current row of the given column.
func (w *GeneralRowWriter) SetFloat64(column int, value float64) {
	w.Set(column, value)
}

// Width returns the number of columns.
func (w *GeneralRowWriter) Width() int { return len(w.columns) }

// Create finalizes the writer and returns the table holding the written
// rows. It may be called exactly once.
func (w *GeneralRowWriter) Create() (*Table, error) {
	if w.frozen {
		return nil, ErrWriterFrozen
	}
	w.flushAll()
	w.frozen = true
	if err := checkLabels(w.labels); err != nil {
		return nil, err
	}
	columns := make([]Column, len(w.columns))
	for i, c := range w.columns {
		col, err := c.build()
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	labels := make([]string, len(w.labels))
	copy(labels, w.labels)
	return NewTable(labels, columns)
}

func (w *GeneralRowWriter) String() string {
	return fmt.Sprintf("General row writer (%dx%d)", w.height, len(w.columns))
}

func (w *GeneralRowWriter) checkOpen() {
	if w.frozen {
		panic(ErrWriterFrozen.Error())
	}
}

func (w *GeneralRowWriter) flushAll() {
	for _, c := range w.columns {
		c.flush()
	}
	w.buffered = 0
}

type generalNumericColumn struct {
	typ         Type
	defaultCell float64
	buffer      []float64
	data        *chunkBuilder[float64]
}

func (c *generalNumericColumn) appendDefault() { c.buffer = append(c.buffer, c.defaultCell) }

func (c *generalNumericColumn) set(value any) {
	var v float64
	switch n := value.(type) {
	case nil:
		v = math.NaN()
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	default:
		panic(fmt.Sprintf("tabular: cannot write %T to a %s column", value, c.typ))
	}
	if c.typ.ID() == Integer53BitID && !math.IsNaN(v) {
		v = math.Round(v)
	}
	c.buffer[len(c.buffer)-1] = v
}

func (c *generalNumericColumn) flush() {
	for _, v := range c.buffer {
		c.data.push(v)
	}
	c.buffer = c.buffer[:0]
}

func (c *generalNumericColumn) build() (Column, error) {
	return &numericColumn{typ: c.typ, values: c.data.collect()}, nil
}

type generalNominalColumn struct {
	typ    Type
	values []string
	index  map[string]int32
	buffer []int32
	data   *chunkBuilder[int32]
}

func (c *generalNominalColumn) appendDefault() { c.buffer = append(c.buffer, 0) }

func (c *generalNominalColumn) set(value any) {
	switch v := value.(type) {
	case nil:
		c.buffer[len(c.buffer)-1] = 0
	case string:
		idx, ok := c.index[v]
		if !ok {
			c.values = append(c.values, v)
			idx = int32(len(c.values))
			c.index[v] = idx
		}
		c.buffer[len(c.buffer)-1] = idx
	default:
		panic(fmt.Sprintf("tabular: cannot write %T to a %s column", value, c.typ))
	}
}

func (c *generalNominalColumn) flush() {
	for _, v := range c.buffer {
		c.data.push(v)
	}
	c.buffer = c.buffer[:0]
}

func (c *generalNominalColumn) build() (Column, error) {
	return NewCategoricalColumn(c.typ, c.data.collect(), NewDictionary(c.values))
}

type generalObjectColumn struct {
	typ    Type
	buffer []any
	data   *chunkBuilder[any]
}

func (c *generalObjectColumn) appendDefault() { c.buffer = append(c.buffer, nil) }

func (c *generalObjectColumn) set(value any) {
	switch v := value.(type) {
	case nil:
		c.buffer[len(c.buffer)-1] = nil
	case string:
		if c.typ.ID() != TextID {
			panic(fmt.Sprintf("tabular: cannot write %T to a %s column", value, c.typ))
		}
		c.buffer[len(c.buffer)-1] = v
	case *TextSet:
		if c.typ.ID() != TextsetID {
			panic(fmt.Sprintf("tabular: cannot write %T to a %s column", value, c.typ))
		}
		c.buffer[len(c.buffer)-1] = v
	case []string:
		if c.typ.ID() != TextsetID {
			panic(fmt.Sprintf("tabular: cannot write %T to a %s column", value, c.typ))
		}
		c.buffer[len(c.buffer)-1] = NewTextSet(v...)
	default:
		panic(fmt.Sprintf("tabular: cannot write %T to a %s column", value, c.typ))
	}
}

func (c *generalObjectColumn) flush() {
	for _, v := range c.buffer {
		c.data.push(v)
	}
	c.buffer = c.buffer[:0]
}

func (c *generalObjectColumn) build() (Column, error) {
	return &objectColumn{typ: c.typ, values: c.data.collect()}, nil
}

type generalTimeColumn struct {
	buffer []int64
	data   *chunkBuilder[int64]
}

func (c *generalTimeColumn) appendDefault() { c.buffer = append(c.buffer, MissingTime) }

func (c *generalTimeColumn) set(value any) {
	var nanos int64
	switch v := value.(type) {
	case nil:
		nanos = MissingTime
	case time.Duration:
		nanos = int64(v)
	case int64:
		nanos = v
	default:
		panic(fmt.Sprintf("tabular: cannot write %T to a TIME column", value))
	}
	if nanos != MissingTime && (nanos < 0 || nanos >= nanosPerDay) {
		panic(fmt.Sprintf("tabular: nanoseconds of day %d out of range", nanos))
	}
	c.buffer[len(c.buffer)-1] = nanos
}

func (c *generalTimeColumn) flush() {
	for _, v := range c.buffer {
		c.data.push(v)
	}
	c.buffer = c.buffer[:0]
}

func (c *generalTimeColumn) build() (Column, error) {
	return &timeColumn{values: c.data.collect()}, nil
}

type generalDateTimeColumn struct {
	secBuffer  []int64
	nanoBuffer []int32
	seconds    *chunkBuilder[int64]
	nanos      *chunkBuilder[int32]
	anyNano    bool
}

func (c *generalDateTimeColumn) appendDefault() {
	c.secBuffer = append(c.secBuffer, MissingDateTime)
	c.nanoBuffer = append(c.nanoBuffer, 0)
}

func (c *generalDateTimeColumn) set(value any) {
	var seconds int64
	var nano int32
	switch v := value.(type) {
	case nil:
		seconds = MissingDateTime
	case time.Time:
		seconds = v.Unix()
		nano = int32(v.Nanosecond())
	case string:
		t, err := iso8601.Parse(v)
		if err != nil {
			panic(fmt.Sprintf("tabular: cannot parse %q as a DATETIME value: %v", v, err))
		}
		seconds = t.Unix()
		nano = int32(t.Nanosecond())
	default:
		panic(fmt.Sprintf("tabular: cannot write %T to a DATETIME column", value))
	}
	if nano != 0 {
		c.anyNano = true
	}
	c.secBuffer[len(c.secBuffer)-1] = seconds
	c.nanoBuffer[len(c.nanoBuffer)-1] = nano
}

func (c *generalDateTimeColumn) flush() {
	for _, v := range c.secBuffer {
		c.seconds.push(v)
	}
	for _, v := range c.nanoBuffer {
		c.nanos.push(v)
	}
	c.secBuffer = c.secBuffer[:0]
	c.nanoBuffer = c.nanoBuffer[:0]
}

func (c *generalDateTimeColumn) build() (Column, error) {
	var nanos []int32
	if c.anyNano {
		nanos = c.nanos.collect()
	}
	return &dateTimeColumn{seconds: c.seconds.collect(), nanos: nanos}, nil
}
