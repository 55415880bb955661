package tabular

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowWriterValidation(t *testing.T) {
	_, err := NewRowWriter(nil, nil, false)
	assert.Error(t, err, "empty labels")

	_, err = NewRowWriter([]string{"a"}, []Type{Real, Real}, false)
	assert.Error(t, err, "length mismatch")

	_, err = NewRowWriter([]string{"a"}, []Type{Nominal}, false)
	assert.Error(t, err, "non-numeric type")

	_, err = NewRowWriter([]string{""}, []Type{Real}, false)
	assert.Error(t, err, "empty label")

	_, err = NewRowWriter([]string{"a"}, []Type{Real}, false, RowCountHint(-1))
	assert.Error(t, err, "negative row hint")

	_, err = NewRowWriter([]string{"a", "a"}, []Type{Real, Real}, false)
	require.NoError(t, err, "duplicate labels are only rejected at Create")
}

func TestRowWriterInitializedDefaults(t *testing.T) {
	w, err := NewRowWriter([]string{"a", "b"}, []Type{Real, Integer53Bit}, true)
	require.NoError(t, err)

	w.Move()
	w.Move()
	w.Set(0, 1.53)
	w.Set(1, 1.987)
	w.Move()

	assert.Equal(t, "Row writer (3x2)", w.String())
	assert.Equal(t, 2, w.Width())

	table, err := w.Create()
	require.NoError(t, err)
	require.Equal(t, 3, table.Height())

	a := table.Column(0).(NumericColumn)
	b := table.Column(1).(NumericColumn)
	buf := make([]float64, 3)

	a.FillFloat64(buf, 0)
	assert.True(t, math.IsNaN(buf[0]))
	assert.Equal(t, 1.53, buf[1])
	assert.True(t, math.IsNaN(buf[2]))

	b.FillFloat64(buf, 0)
	assert.True(t, math.IsNaN(buf[0]))
	assert.Equal(t, 2.0, buf[1], "integer columns round to the nearest integer")
	assert.True(t, math.IsNaN(buf[2]))
}

func TestRowWriterUninitializedDefaults(t *testing.T) {
	w, err := NewRowWriter([]string{"a"}, []Type{Real}, false)
	require.NoError(t, err)
	w.Move()
	w.Move()
	w.Set(0, 5)

	table, err := w.Create()
	require.NoError(t, err)
	buf := make([]float64, 2)
	table.Column(0).(NumericColumn).FillFloat64(buf, 0)
	assert.Equal(t, []float64{0, 5}, buf)
}

func TestRowWriterRoundTrip(t *testing.T) {
	const rows = 10000
	prng := rand.New(rand.NewSource(7))
	w, err := NewRowWriter([]string{"real", "int"}, []Type{Real, Integer53Bit}, true)
	require.NoError(t, err)

	wantReal := make([]float64, rows)
	wantInt := make([]float64, rows)
	for i := 0; i < rows; i++ {
		w.Move()
		r := prng.NormFloat64() * 100
		n := prng.NormFloat64() * 100
		w.Set(0, r)
		w.Set(1, n)
		wantReal[i] = r
		wantInt[i] = math.Round(n)
	}
	table, err := w.Create()
	require.NoError(t, err)
	require.Equal(t, rows, table.Height())

	gotReal := make([]float64, rows)
	gotInt := make([]float64, rows)
	table.Column(0).(NumericColumn).FillFloat64(gotReal, 0)
	table.Column(1).(NumericColumn).FillFloat64(gotInt, 0)
	assert.Equal(t, wantReal, gotReal)
	assert.Equal(t, wantInt, gotInt)
}

func TestRowWriterSparsityDetection(t *testing.T) {
	// 80% of the rows stay unset (NaN) well past the sparsity probing
	// horizon: every column must end up sparse with a NaN default.
	const rows = DefaultMaxSparsityCheckRows + 10000
	w, err := NewRowWriter([]string{"a", "b"}, []Type{Real, Real}, true)
	require.NoError(t, err)

	want := make([]float64, rows)
	for i := 0; i < rows; i++ {
		w.Move()
		if i%5 == 0 {
			w.Set(0, float64(i))
			w.Set(1, float64(-i))
			want[i] = float64(i)
		} else {
			want[i] = math.NaN()
		}
	}

	for i := range w.columns {
		_, sparse := w.columns[i].builder.(*sparseNumericBuilder)
		require.True(t, sparse, "column %d should have switched to a sparse builder", i)
	}

	table, err := w.Create()
	require.NoError(t, err)

	column, ok := table.Column(0).(*sparseNumericColumn)
	require.True(t, ok, "column 0 should be stored sparse")
	assert.True(t, math.IsNaN(column.def), "the locked default should be NaN")

	got := make([]float64, rows)
	column.FillFloat64(got, 0)
	for i := range want {
		if !sameFloat64(got[i], want[i]) {
			t.Fatalf("row %d: got %g, want %g", i, got[i], want[i])
		}
	}
}

func TestRowWriterDensifiesWhenSparsityFades(t *testing.T) {
	// A first flush of constant values switches the column to sparse; the
	// distinct values that follow drag the default's frequency below the
	// threshold, so Create falls back to dense storage.
	const rows = 3 * DefaultBufferSize
	w, err := NewRowWriter([]string{"a"}, []Type{Real}, false)
	require.NoError(t, err)

	want := make([]float64, rows)
	for i := 0; i < rows; i++ {
		w.Move()
		if i >= DefaultBufferSize {
			w.Set(0, float64(i))
			want[i] = float64(i)
		}
	}

	table, err := w.Create()
	require.NoError(t, err)
	_, dense := table.Column(0).(*numericColumn)
	assert.True(t, dense, "column should have been densified before Create")

	got := make([]float64, rows)
	table.Column(0).(NumericColumn).FillFloat64(got, 0)
	assert.Equal(t, want, got)
}

func TestRowWriterCreateTwice(t *testing.T) {
	w, err := NewRowWriter([]string{"a"}, []Type{Real}, false)
	require.NoError(t, err)
	w.Move()
	_, err = w.Create()
	require.NoError(t, err)

	_, err = w.Create()
	assert.ErrorIs(t, err, ErrWriterFrozen)

	assert.Panics(t, func() { w.Move() })
	assert.Panics(t, func() { w.Set(0, 1) })
}

func TestRowWriterDuplicateLabels(t *testing.T) {
	w, err := NewRowWriter([]string{"a", "a"}, []Type{Real, Real}, false)
	require.NoError(t, err)
	w.Move()
	_, err = w.Create()
	assert.Error(t, err)
}

func TestRowWriterSetBeforeMove(t *testing.T) {
	w, err := NewRowWriter([]string{"a"}, []Type{Real}, false)
	require.NoError(t, err)
	assert.Panics(t, func() { w.Set(0, 1) })
}
