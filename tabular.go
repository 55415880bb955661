// Package tabular implements a columnar in-memory table engine for analytic
// workloads.
//
// A Table is a fixed-width collection of equally tall, typed, immutable
// columns identified by unique labels. Columns are created by row writers,
// by the appender, or from typed buffers, and are never mutated afterwards.
// Values are read in bulk through fill kernels into caller-supplied buffers,
// either contiguously or at a fixed stride, and through cursor-style readers
// layered on top of the kernels.
package tabular

// Missing values are representational, not errors: a missing numeric value
// is NaN, a missing category index is 0, a missing object is nil, and the
// time and date-time columns reserve an int64 sentinel.
