package tabular

import (
	"fmt"
	"strings"
)

const (
	// DefaultBufferSize is the number of rows buffered by the row writers
	// before flushing to chunked storage, and the size of the readers'
	// internal buffer.
	DefaultBufferSize = 2048

	// DefaultInitialChunkSize is the capacity of the first storage chunk
	// allocated by a column builder; subsequent chunks double.
	DefaultInitialChunkSize = 4096

	// DefaultSparsityThreshold is the frequency the most common value of a
	// column must reach for the numeric row writer to switch the column to
	// sparse storage.
	DefaultSparsityThreshold = 0.75

	// DefaultMaxSparsityCheckRows bounds the number of rows during which
	// the numeric row writer keeps probing columns for sparsity.
	DefaultMaxSparsityCheckRows = 32768
)

// The WriterConfig type carries configuration options for row writers.
//
// WriterConfig implements the WriterOption interface so it can be used
// directly as argument to the writer constructors when needed, for example:
//
//	w, err := tabular.NewRowWriter(labels, types, true, &tabular.WriterConfig{
//		BufferSize: 8192,
//	})
type WriterConfig struct {
	BufferSize           int
	InitialChunkSize     int
	SparsityThreshold    float64
	MaxSparsityCheckRows int
	RowCountHint         int
}

// DefaultWriterConfig returns a new WriterConfig value initialized with the
// default writer configuration.
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		BufferSize:           DefaultBufferSize,
		InitialChunkSize:     DefaultInitialChunkSize,
		SparsityThreshold:    DefaultSparsityThreshold,
		MaxSparsityCheckRows: DefaultMaxSparsityCheckRows,
	}
}

// Apply applies the given list of options to c.
func (c *WriterConfig) Apply(options ...WriterOption) {
	for _, opt := range options {
		opt.ConfigureWriter(c)
	}
}

// ConfigureWriter applies configuration options from c to config.
func (c *WriterConfig) ConfigureWriter(config *WriterConfig) {
	*config = WriterConfig{
		BufferSize:           coalesceInt(c.BufferSize, config.BufferSize),
		InitialChunkSize:     coalesceInt(c.InitialChunkSize, config.InitialChunkSize),
		SparsityThreshold:    coalesceFloat64(c.SparsityThreshold, config.SparsityThreshold),
		MaxSparsityCheckRows: coalesceInt(c.MaxSparsityCheckRows, config.MaxSparsityCheckRows),
		RowCountHint:         coalesceInt(c.RowCountHint, config.RowCountHint),
	}
}

// Validate returns a non-nil error if the configuration of c is invalid.
func (c *WriterConfig) Validate() error {
	const baseName = "tabular.(*WriterConfig)."
	return errorInvalidConfiguration(
		validatePositiveInt(baseName+"BufferSize", c.BufferSize),
		validatePositiveInt(baseName+"InitialChunkSize", c.InitialChunkSize),
		validatePositiveInt(baseName+"MaxSparsityCheckRows", c.MaxSparsityCheckRows),
		validateUnitRange(baseName+"SparsityThreshold", c.SparsityThreshold),
		validateNotNegativeInt(baseName+"RowCountHint", c.RowCountHint),
	)
}

// WriterOption is an interface implemented by types carrying configuration
// options for row writers.
type WriterOption interface {
	ConfigureWriter(*WriterConfig)
}

// BufferSize sets the number of rows buffered before flushing to chunked
// storage.
func BufferSize(size int) WriterOption { return writerOption(func(c *WriterConfig) { c.BufferSize = size }) }

// SparsityThreshold sets the frequency of the most common value required to
// switch a column to sparse storage.
func SparsityThreshold(threshold float64) WriterOption {
	return writerOption(func(c *WriterConfig) { c.SparsityThreshold = threshold })
}

// RowCountHint declares the expected number of rows, pre-sizing the column
// builders.
func RowCountHint(rows int) WriterOption {
	return writerOption(func(c *WriterConfig) { c.RowCountHint = rows })
}

type writerOption func(*WriterConfig)

func (opt writerOption) ConfigureWriter(c *WriterConfig) { opt(c) }

func coalesceInt(i1, i2 int) int {
	if i1 != 0 {
		return i1
	}
	return i2
}

func coalesceFloat64(f1, f2 float64) float64 {
	if f1 != 0 {
		return f1
	}
	return f2
}

func validatePositiveInt(name string, value int) error {
	if value > 0 {
		return nil
	}
	return fmt.Errorf("%s: %d is not a positive value", name, value)
}

func validateNotNegativeInt(name string, value int) error {
	if value >= 0 {
		return nil
	}
	return fmt.Errorf("%s: %d is a negative value", name, value)
}

func validateUnitRange(name string, value float64) error {
	if value > 0 && value <= 1 {
		return nil
	}
	return fmt.Errorf("%s: %g is not in (0,1]", name, value)
}

func errorInvalidConfiguration(reasons ...error) error {
	var messages []string
	for _, reason := range reasons {
		if reason != nil {
			messages = append(messages, reason.Error())
		}
	}
	if len(messages) == 0 {
		return nil
	}
	return fmt.Errorf("invalid writer configuration: %s", strings.Join(messages, "; "))
}
