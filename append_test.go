package tabular

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNominal(t *testing.T, values []string, indexes []int32) CategoricalColumn {
	t.Helper()
	column, err := NewCategoricalColumn(Nominal, indexes, NewDictionary(values))
	require.NoError(t, err)
	return column
}

func newBooleanNominal(t *testing.T, values []string, positive int, indexes []int32) CategoricalColumn {
	t.Helper()
	dict, err := NewBooleanDictionary(values, positive)
	require.NoError(t, err)
	column, err := NewCategoricalColumn(Nominal, indexes, dict)
	require.NoError(t, err)
	return column
}

func newReal(t *testing.T, values []float64) NumericColumn {
	t.Helper()
	column, err := NewNumericColumn(Real, values)
	require.NoError(t, err)
	return column
}

func TestAppendArgumentValidation(t *testing.T) {
	ctx := context.Background()

	_, err := Append(ctx, nil, 3, nil)
	assert.Error(t, err, "empty column list")

	_, err = Append(ctx, []Column{newReal(t, []float64{1, 2, 3}), nil}, 8, nil)
	assert.Error(t, err, "nil column")

	_, err = Append(ctx, []Column{
		newReal(t, []float64{1, 2, 3}),
		newReal(t, []float64{1, 2, 3, 4, 5}),
	}, -1, nil)
	assert.Error(t, err, "negative total length")
}

func TestAppendNumericPromotion(t *testing.T) {
	ctx := context.Background()
	integers, err := NewNumericColumn(Integer53Bit, []float64{1, 2})
	require.NoError(t, err)

	out, err := Append(ctx, []Column{integers, newReal(t, []float64{0.5})}, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, Real, out.Type(), "any REAL input promotes the result")

	other, err := NewNumericColumn(Integer53Bit, []float64{3})
	require.NoError(t, err)
	out, err = Append(ctx, []Column{integers, other}, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, Integer53Bit, out.Type())

	buf := make([]float64, 3)
	out.(NumericColumn).FillFloat64(buf, 0)
	assert.Equal(t, []float64{1, 2, 3}, buf)
}

func TestAppendNumericPaddingAndTruncation(t *testing.T) {
	ctx := context.Background()
	columns := []Column{newReal(t, []float64{1, 2, 3}), newReal(t, []float64{4, 5})}

	// Excess tail is missing.
	out, err := Append(ctx, columns, 7, nil)
	require.NoError(t, err)
	buf := make([]float64, 7)
	out.(NumericColumn).FillFloat64(buf, 0)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, buf[:5])
	assert.True(t, math.IsNaN(buf[5]))
	assert.True(t, math.IsNaN(buf[6]))

	// Truncation happens within the final contributing column.
	out, err = Append(ctx, columns, 4, nil)
	require.NoError(t, err)
	buf = buf[:4]
	out.(NumericColumn).FillFloat64(buf, 0)
	assert.Equal(t, []float64{1, 2, 3, 4}, buf)
}

func TestAppendCategoricalMergedDictionaries(t *testing.T) {
	ctx := context.Background()
	first := newNominal(t, []string{"A", "B"}, []int32{1, 2, 0, 1, 2})
	second := newNominal(t, []string{"B", "C"}, []int32{1, 2, 1})

	out, err := Append(ctx, []Column{first, second}, 8, nil)
	require.NoError(t, err)
	column := out.(CategoricalColumn)
	require.Equal(t, 8, column.Len())
	assert.Equal(t, []string{"A", "B", "C"}, column.Dictionary().Values(),
		"merged dictionary accumulates entries in first-seen order")

	indexes := make([]int32, 8)
	column.FillInt32(indexes, 0)
	assert.Equal(t, []int32{1, 2, 0, 1, 2, 2, 3, 2}, indexes)
}

func TestAppendCategoricalSameDictionaryFastPath(t *testing.T) {
	ctx := context.Background()
	dict := NewDictionary([]string{"A", "B"})
	first, err := NewCategoricalColumn(Nominal, []int32{1, 2}, dict)
	require.NoError(t, err)
	second, err := NewCategoricalColumn(Nominal, []int32{2, 1}, NewDictionary([]string{"A", "B"}))
	require.NoError(t, err)

	out, err := Append(ctx, []Column{first, second}, 4, nil)
	require.NoError(t, err)
	column := out.(CategoricalColumn)
	assert.Same(t, dict, column.Dictionary(), "value-equal dictionaries are reused without remapping")

	indexes := make([]int32, 4)
	column.FillInt32(indexes, 0)
	assert.Equal(t, []int32{1, 2, 2, 1}, indexes)
}

func TestAppendCategoricalMappedInputs(t *testing.T) {
	ctx := context.Background()
	base := newNominal(t, []string{"A", "B"}, []int32{1, 2, 1})
	mapped := base.Map([]int32{2, -1, 0}, true)

	out, err := Append(ctx, []Column{mapped, newNominal(t, []string{"C"}, []int32{1})}, 4, nil)
	require.NoError(t, err)
	column := out.(CategoricalColumn)
	indexes := make([]int32, 4)
	column.FillInt32(indexes, 0)
	assert.Equal(t, []int32{1, 0, 1, 3}, indexes,
		"mapped inputs are materialized exactly as readers see them")
	assert.Equal(t, []string{"A", "B", "C"}, column.Dictionary().Values())
}

func TestAppendBooleanReconciliation(t *testing.T) {
	ctx := context.Background()

	t.Run("agreeing positives", func(t *testing.T) {
		first := newBooleanNominal(t, []string{"yes", "no"}, 1, []int32{1, 2})
		second := newBooleanNominal(t, []string{"no", "yes"}, 2, []int32{1, 2})
		out, err := Append(ctx, []Column{first, second}, 4, nil)
		require.NoError(t, err)
		dict := out.(CategoricalColumn).Dictionary()
		require.True(t, dict.IsBoolean())
		positive, _ := dict.Get(dict.PositiveIndex())
		assert.Equal(t, "yes", positive)
	})

	t.Run("declared positive wins over NoEntry", func(t *testing.T) {
		first := newBooleanNominal(t, []string{"maybe"}, NoEntry, []int32{1})
		second := newBooleanNominal(t, []string{"maybe"}, 1, []int32{1})
		// Dictionaries differ in their markers, so the merge path runs.
		out, err := Append(ctx, []Column{first, second}, 2, nil)
		require.NoError(t, err)
		dict := out.(CategoricalColumn).Dictionary()
		require.True(t, dict.IsBoolean())
		positive, _ := dict.Get(dict.PositiveIndex())
		assert.Equal(t, "maybe", positive)
	})

	t.Run("conflicting positives", func(t *testing.T) {
		first := newBooleanNominal(t, []string{"yes", "no"}, 1, []int32{1})
		second := newBooleanNominal(t, []string{"yes", "no"}, 2, []int32{2})
		out, err := Append(ctx, []Column{first, second}, 2, nil)
		require.NoError(t, err)
		assert.False(t, out.(CategoricalColumn).Dictionary().IsBoolean())
	})

	t.Run("non-boolean input forces non-boolean", func(t *testing.T) {
		first := newBooleanNominal(t, []string{"yes"}, 1, []int32{1})
		second := newNominal(t, []string{"yes"}, []int32{1, 0})
		out, err := Append(ctx, []Column{first, second}, 3, nil)
		require.NoError(t, err)
		assert.False(t, out.(CategoricalColumn).Dictionary().IsBoolean())
	})

	t.Run("more than two merged entries", func(t *testing.T) {
		first := newBooleanNominal(t, []string{"yes", "no"}, 1, []int32{1})
		second := newBooleanNominal(t, []string{"maybe", "yes"}, 2, []int32{1})
		out, err := Append(ctx, []Column{first, second}, 2, nil)
		require.NoError(t, err)
		assert.False(t, out.(CategoricalColumn).Dictionary().IsBoolean())
	})

	t.Run("unused positive label is honored", func(t *testing.T) {
		// "yes" never appears in the data, and the dictionaries differ so
		// the merge path runs.
		first := newBooleanNominal(t, []string{"yes", "no"}, 1, []int32{2, 2})
		second := newBooleanNominal(t, []string{"no", "yes"}, 2, []int32{1})
		out, err := Append(ctx, []Column{first, second}, 3, nil)
		require.NoError(t, err)
		dict := out.(CategoricalColumn).Dictionary()
		require.True(t, dict.IsBoolean())
		positive, _ := dict.Get(dict.PositiveIndex())
		assert.Equal(t, "yes", positive)
	})
}

func TestAppendIncompatibleTypes(t *testing.T) {
	ctx := context.Background()
	timeColumn3, err := NewTimeColumn([]int64{1, 2, 3})
	require.NoError(t, err)
	timeColumn5, err := NewTimeColumn([]int64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	nominal := newNominal(t, []string{"A"}, []int32{1})

	_, err = Append(ctx, []Column{timeColumn3, nominal, timeColumn5}, 11, nil)
	var incompatible *IncompatibleTypesError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, 1, incompatible.Index)
	assert.Equal(t, "TIME", incompatible.DesiredType)
	assert.Equal(t, "NOMINAL", incompatible.ActualType)
}

func TestAppendTimeColumns(t *testing.T) {
	ctx := context.Background()
	first, err := NewTimeColumn([]int64{1, MissingTime})
	require.NoError(t, err)
	second, err := NewTimeColumn([]int64{2})
	require.NoError(t, err)

	out, err := Append(ctx, []Column{first, second}, 4, nil)
	require.NoError(t, err)
	column := out.(*timeColumn)
	assert.Equal(t, []int64{1, MissingTime, 2, MissingTime}, column.values)
}

func TestAppendDateTimePrecisionPromotion(t *testing.T) {
	ctx := context.Background()
	coarse, err := NewDateTimeColumn([]int64{10}, nil)
	require.NoError(t, err)
	fine, err := NewDateTimeColumn([]int64{20}, []int32{7})
	require.NoError(t, err)

	out, err := Append(ctx, []Column{coarse, fine}, 2, nil)
	require.NoError(t, err)
	column := out.(*dateTimeColumn)
	require.True(t, column.subsecond(), "any nanosecond input promotes the output")
	assert.Equal(t, []int64{10, 20}, column.seconds)
	assert.Equal(t, []int32{0, 7}, column.nanos)

	out, err = Append(ctx, []Column{coarse, coarse}, 2, nil)
	require.NoError(t, err)
	assert.False(t, out.(*dateTimeColumn).subsecond())
}

func TestAppendObjectColumns(t *testing.T) {
	ctx := context.Background()
	first, err := NewObjectColumn(Text, []any{"a", nil})
	require.NoError(t, err)
	second, err := NewObjectColumn(Text, []any{"b"})
	require.NoError(t, err)

	out, err := Append(ctx, []Column{first, second}, 4, nil)
	require.NoError(t, err)
	buf := make([]any, 4)
	out.(ObjectColumn).FillObjects(buf, 0)
	assert.Equal(t, []any{"a", nil, "b", nil}, buf)

	sets, err := NewObjectColumn(Textset, []any{NewTextSet("a")})
	require.NoError(t, err)
	_, err = Append(ctx, []Column{first, sets}, 2, nil)
	var incompatible *IncompatibleTypesError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, 1, incompatible.Index)
	assert.Equal(t, "TEXT", incompatible.DesiredType)
	assert.Equal(t, "TEXTSET", incompatible.ActualType)
}

func TestAppendProgress(t *testing.T) {
	ctx := context.Background()
	var observed []float64
	progress := func(p float64) { observed = append(observed, p) }

	_, err := Append(ctx, []Column{
		newReal(t, randomSequence(5000)),
		newReal(t, randomSequence(3000)),
	}, 10000, progress)
	require.NoError(t, err)

	require.NotEmpty(t, observed)
	for i := 1; i < len(observed); i++ {
		require.LessOrEqual(t, observed[i-1], observed[i], "progress must be nondecreasing")
	}
	assert.Equal(t, 1.0, observed[len(observed)-1])
}

func randomSequence(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i % 97)
	}
	return values
}

func TestAppendCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Append(ctx, []Column{newReal(t, randomSequence(5000))}, 5000, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAppendTables(t *testing.T) {
	ctx := context.Background()

	first, err := NewTable([]string{"a", "b"}, []Column{
		newReal(t, []float64{1, 2}),
		newNominal(t, []string{"x"}, []int32{1, 0}),
	})
	require.NoError(t, err)
	second, err := NewTable([]string{"a", "b"}, []Column{
		newReal(t, []float64{3}),
		newNominal(t, []string{"y"}, []int32{1}),
	})
	require.NoError(t, err)

	var observed []float64
	out, err := AppendTables(ctx, []*Table{first, second}, func(p float64) { observed = append(observed, p) })
	require.NoError(t, err)
	require.Equal(t, 3, out.Height())
	require.Equal(t, 2, out.Width())
	assert.Equal(t, []string{"a", "b"}, out.Labels())

	buf := make([]float64, 3)
	out.Column(0).(NumericColumn).FillFloat64(buf, 0)
	assert.Equal(t, []float64{1, 2, 3}, buf)

	indexes := make([]int32, 3)
	out.Column(1).(CategoricalColumn).FillInt32(indexes, 0)
	assert.Equal(t, []int32{1, 0, 2}, indexes)

	for i := 1; i < len(observed); i++ {
		require.LessOrEqual(t, observed[i-1], observed[i])
	}
	require.NotEmpty(t, observed)
	assert.Equal(t, 1.0, observed[len(observed)-1])
}

func TestAppendTablesEmptyList(t *testing.T) {
	out, err := AppendTables(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Width())
	assert.Equal(t, 0, out.Height())
}

func TestAppendTablesZeroWidth(t *testing.T) {
	tables := []*Table{
		newTableOfHeight(nil, nil, 4),
		newTableOfHeight(nil, nil, 6),
	}
	out, err := AppendTables(context.Background(), tables, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Width())
	assert.Equal(t, 10, out.Height())
}

func TestAppendTablesIncompatibleWidth(t *testing.T) {
	wide, err := NewTable([]string{"a", "b"}, []Column{newReal(t, nil), newReal(t, nil)})
	require.NoError(t, err)
	narrow, err := NewTable([]string{"a"}, []Column{newReal(t, nil)})
	require.NoError(t, err)

	_, err = AppendTables(context.Background(), []*Table{wide, narrow, wide}, nil)
	var incompatible *IncompatibleTableWidthError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, 1, incompatible.TableIndex, "the first deviation is reported")
}

func TestAppendTablesIncompatibleColumns(t *testing.T) {
	first, err := NewTable([]string{"a", "b"}, []Column{newReal(t, nil), newReal(t, nil)})
	require.NoError(t, err)
	second, err := NewTable([]string{"a", "c"}, []Column{newReal(t, nil), newReal(t, nil)})
	require.NoError(t, err)

	_, err = AppendTables(context.Background(), []*Table{first, second}, nil)
	var incompatible *IncompatibleColumnsError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, 1, incompatible.TableIndex)
	assert.Equal(t, "b", incompatible.ColumnName)
}

func TestAppendTablesIncompatibleTypes(t *testing.T) {
	first, err := NewTable([]string{"a"}, []Column{newReal(t, []float64{1})})
	require.NoError(t, err)
	second, err := NewTable([]string{"a"}, []Column{newNominal(t, []string{"x"}, []int32{1})})
	require.NoError(t, err)

	_, err = AppendTables(context.Background(), []*Table{first, second}, nil)
	var incompatible *IncompatibleTypesError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, 1, incompatible.Index)
	assert.Equal(t, "a", incompatible.ColumnName)
	assert.Equal(t, "NOMINAL", incompatible.ActualType)
}

func TestAppendTablesTooLong(t *testing.T) {
	tables := []*Table{
		newTableOfHeight(nil, nil, math.MaxInt32),
		newTableOfHeight(nil, nil, 1),
	}
	_, err := AppendTables(context.Background(), tables, nil)
	assert.ErrorIs(t, err, ErrTableTooLong)
}
