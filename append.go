package tabular

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// appendBatchSize is the number of rows moved per fill call by the
// appender; progress and cancellation are observed at batch boundaries.
const appendBatchSize = DefaultBufferSize

// Append vertically concatenates the given columns into a single column of
// the given total length.
//
// All columns must unify to one type: numeric columns mix REAL and
// INTEGER_53_BIT (the result is REAL if any input is REAL), categorical and
// object columns must share the first column's type, time columns must all
// be TIME, and date-time columns must all be DATETIME with the output
// promoted to nanosecond precision if any input carries it. The first
// offending column is reported through IncompatibleTypesError.
//
// Rows beyond the combined input length are missing; a shorter total length
// truncates within the final contributing column. Categorical inputs with
// different dictionaries are unified into a merged dictionary, reconciling
// the boolean markers of boolean inputs.
//
// The progress callback, when non-nil, observes a nondecreasing sequence of
// fractions ending at exactly 1.0. The context cancels the operation
// between batches; no partial column is returned.
func Append(ctx context.Context, columns []Column, totalLength int, progress Progress) (Column, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("tabular: no columns to append")
	}
	for i, c := range columns {
		if c == nil {
			return nil, fmt.Errorf("tabular: nil column at index %d", i)
		}
	}
	if totalLength < 0 {
		return nil, fmt.Errorf("tabular: negative total length %d", totalLength)
	}
	typ, err := unifyTypes(columns)
	if err != nil {
		return nil, err
	}
	progress = monotonic(progress)

	switch typ.Category() {
	case CategoryNumeric:
		return appendNumeric(ctx, typ, columns, totalLength, progress)
	case CategoryCategorical:
		return appendCategorical(ctx, typ, columns, totalLength, progress)
	case CategoryObject:
		return appendObject(ctx, typ, columns, totalLength, progress)
	case CategoryTime:
		return appendTime(ctx, columns, totalLength, progress)
	default:
		return appendDateTime(ctx, columns, totalLength, progress)
	}
}

// unifyTypes determines the output type of an append, or reports the first
// column whose type cannot be unified with the first column's.
func unifyTypes(columns []Column) (Type, error) {
	first := columns[0].Type()
	switch first.Category() {
	case CategoryNumeric:
		result := Integer53Bit
		for i, c := range columns {
			if c.Type().Category() != CategoryNumeric {
				return nil, incompatible(i, first, c.Type())
			}
			if c.Type().ID() == RealID {
				result = Real
			}
		}
		return result, nil
	default:
		for i, c := range columns {
			if c.Type() != first {
				return nil, incompatible(i, first, c.Type())
			}
		}
		return first, nil
	}
}

func incompatible(index int, desired, actual Type) error {
	return &IncompatibleTypesError{Index: index, DesiredType: desired.String(), ActualType: actual.String()}
}

func appendNumeric(ctx context.Context, typ Type, columns []Column, totalLength int, progress Progress) (Column, error) {
	out := make([]float64, totalLength)
	pos := 0
	for i, c := range columns {
		nc, ok := c.(NumericColumn)
		if !ok {
			return nil, fmt.Errorf("tabular: column %d is not numeric readable", i)
		}
		n := nc.Len()
		if n > totalLength-pos {
			n = totalLength - pos
		}
		for copied := 0; copied < n; copied += appendBatchSize {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			k := n - copied
			if k > appendBatchSize {
				k = appendBatchSize
			}
			nc.FillFloat64(out[pos+copied:pos+copied+k], copied)
			reportRows(progress, pos+copied+k, totalLength)
		}
		pos += n
		if pos == totalLength {
			break
		}
	}
	for ; pos < totalLength; pos++ {
		out[pos] = math.NaN()
	}
	finishRows(progress)
	return &numericColumn{typ: typ, values: out}, nil
}

func appendTime(ctx context.Context, columns []Column, totalLength int, progress Progress) (Column, error) {
	out := make([]int64, totalLength)
	pos := 0
	for i, c := range columns {
		src, ok := c.(timeSource)
		if !ok {
			return nil, fmt.Errorf("tabular: column %d is not a time column", i)
		}
		n := src.Len()
		if n > totalLength-pos {
			n = totalLength - pos
		}
		for copied := 0; copied < n; copied++ {
			if copied%appendBatchSize == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				reportRows(progress, pos+copied, totalLength)
			}
			out[pos+copied] = src.nanosAt(copied)
		}
		pos += n
		if pos == totalLength {
			break
		}
	}
	for ; pos < totalLength; pos++ {
		out[pos] = MissingTime
	}
	finishRows(progress)
	return &timeColumn{values: out}, nil
}

func appendDateTime(ctx context.Context, columns []Column, totalLength int, progress Progress) (Column, error) {
	sources := make([]dateTimeSource, len(columns))
	subsecond := false
	for i, c := range columns {
		src, ok := c.(dateTimeSource)
		if !ok {
			return nil, fmt.Errorf("tabular: column %d is not a date-time column", i)
		}
		sources[i] = src
		if src.subsecond() {
			subsecond = true
		}
	}
	seconds := make([]int64, totalLength)
	var nanos []int32
	if subsecond {
		nanos = make([]int32, totalLength)
	}
	pos := 0
	for _, src := range sources {
		n := src.Len()
		if n > totalLength-pos {
			n = totalLength - pos
		}
		for copied := 0; copied < n; copied++ {
			if copied%appendBatchSize == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				reportRows(progress, pos+copied, totalLength)
			}
			seconds[pos+copied] = src.secondsAt(copied)
			if nanos != nil {
				nanos[pos+copied] = src.nanoAt(copied)
			}
		}
		pos += n
		if pos == totalLength {
			break
		}
	}
	for ; pos < totalLength; pos++ {
		seconds[pos] = MissingDateTime
	}
	finishRows(progress)
	return &dateTimeColumn{seconds: seconds, nanos: nanos}, nil
}

func appendObject(ctx context.Context, typ Type, columns []Column, totalLength int, progress Progress) (Column, error) {
	out := make([]any, totalLength)
	pos := 0
	for i, c := range columns {
		oc, ok := c.(ObjectColumn)
		if !ok {
			return nil, fmt.Errorf("tabular: column %d is not object readable", i)
		}
		n := oc.Len()
		if n > totalLength-pos {
			n = totalLength - pos
		}
		for copied := 0; copied < n; copied += appendBatchSize {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			k := n - copied
			if k > appendBatchSize {
				k = appendBatchSize
			}
			oc.FillObjects(out[pos+copied:pos+copied+k], copied)
			reportRows(progress, pos+copied+k, totalLength)
		}
		pos += n
		if pos == totalLength {
			break
		}
	}
	finishRows(progress)
	return &objectColumn{typ: typ, values: out}, nil
}

func appendCategorical(ctx context.Context, typ Type, columns []Column, totalLength int, progress Progress) (Column, error) {
	cats := make([]CategoricalColumn, len(columns))
	dicts := make([]*Dictionary, len(columns))
	for i, c := range columns {
		cat, ok := c.(CategoricalColumn)
		if !ok {
			return nil, fmt.Errorf("tabular: column %d is not index readable", i)
		}
		cats[i] = cat
		dicts[i] = cat.Dictionary()
	}

	dict := dicts[0]
	sameDictionary := true
	for _, d := range dicts[1:] {
		if !d.Equal(dict) {
			sameDictionary = false
			break
		}
	}
	if !sameDictionary {
		dict = mergeDictionaries(dicts)
		for i := range cats {
			cats[i] = remapCategorical(cats[i], remapInto(dicts[i], dict), dict)
		}
	}

	out := make([]int32, totalLength)
	pos := 0
	for _, cat := range cats {
		n := cat.Len()
		if n > totalLength-pos {
			n = totalLength - pos
		}
		for copied := 0; copied < n; copied += appendBatchSize {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			k := n - copied
			if k > appendBatchSize {
				k = appendBatchSize
			}
			cat.FillInt32(out[pos+copied:pos+copied+k], copied)
			reportRows(progress, pos+copied+k, totalLength)
		}
		pos += n
		if pos == totalLength {
			break
		}
	}
	finishRows(progress)
	return NewCategoricalColumn(typ, out, dict)
}

// mergeDictionaries accumulates the unique non-missing entries of the input
// dictionaries in the order first encountered, and reconciles the boolean
// markers of the inputs.
func mergeDictionaries(dicts []*Dictionary) *Dictionary {
	var merged []string
	seen := make(map[string]struct{})
	for _, d := range dicts {
		for i := 1; i < d.Len(); i++ {
			v, _ := d.Get(i)
			if _, dup := seen[v]; !dup {
				seen[v] = struct{}{}
				merged = append(merged, v)
			}
		}
	}
	return reconcileBoolean(dicts, merged)
}

// reconcileBoolean decides the boolean marker of the merged dictionary: the
// result is boolean iff every input is boolean, at most two non-missing
// entries remain, the declared positive labels do not conflict, and a
// positive label is declared whenever two entries remain. A
// positive label that does not appear in the data is still honored, since
// the merge accumulates dictionary entries rather than used values.
func reconcileBoolean(dicts []*Dictionary, merged []string) *Dictionary {
	if len(merged) > 2 {
		return NewDictionary(merged)
	}
	for _, d := range dicts {
		if !d.IsBoolean() {
			return NewDictionary(merged)
		}
	}
	positive, declared := "", false
	for _, d := range dicts {
		p := d.PositiveIndex()
		if p == NoEntry {
			continue
		}
		label, _ := d.Get(p)
		if declared && label != positive {
			return NewDictionary(merged)
		}
		positive, declared = label, true
	}
	if !declared {
		if len(merged) > 1 {
			return NewDictionary(merged)
		}
		d, _ := NewBooleanDictionary(merged, NoEntry)
		return d
	}
	for i, v := range merged {
		if v == positive {
			d, _ := NewBooleanDictionary(merged, i+1)
			return d
		}
	}
	return NewDictionary(merged)
}

// remapInto returns the remapping translating indexes of from into indexes
// of the merged dictionary.
func remapInto(from, merged *Dictionary) []int32 {
	remap := make([]int32, from.Len())
	for i := 1; i < from.Len(); i++ {
		v, _ := from.Get(i)
		remap[i] = int32(merged.indexOf(v))
	}
	return remap
}

func reportRows(progress Progress, done, total int) {
	if progress != nil && total > 0 {
		progress(float64(done) / float64(total))
	}
}

func finishRows(progress Progress) {
	if progress != nil {
		progress(1)
	}
}

// AppendTables vertically concatenates the given tables. All tables must
// have the same width and the same ordered column labels as the first
// table, the per-column types must unify per the column append rules, and
// the combined height must fit a 32-bit signed counter.
//
// An empty list yields a 0x0 table; zero-width tables concatenate their
// heights. One append task per column is dispatched on the context, and the
// progress callback observes a combined, nondecreasing sequence ending at
// 1.0.
func AppendTables(ctx context.Context, tables []*Table, progress Progress) (*Table, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	progress = monotonic(progress)
	if len(tables) == 0 {
		finishRows(progress)
		return newTableOfHeight(nil, nil, 0), nil
	}
	for i, t := range tables {
		if t == nil {
			return nil, fmt.Errorf("tabular: nil table at index %d", i)
		}
	}

	first := tables[0]
	width := first.Width()
	for i, t := range tables[1:] {
		if t.Width() != width {
			return nil, &IncompatibleTableWidthError{TableIndex: i + 1}
		}
	}
	for j := 0; j < width; j++ {
		label := first.Label(j)
		for i, t := range tables[1:] {
			if t.Label(j) != label {
				return nil, &IncompatibleColumnsError{TableIndex: i + 1, ColumnName: label}
			}
		}
	}

	totalHeight := 0
	for _, t := range tables {
		totalHeight += t.Height()
		if totalHeight > math.MaxInt32 {
			return nil, ErrTableTooLong
		}
	}

	// Validate the per-column type unification before allocating anything.
	for j := 0; j < width; j++ {
		columns := make([]Column, len(tables))
		for i, t := range tables {
			columns[i] = t.Column(j)
		}
		if _, err := unifyTypes(columns); err != nil {
			var incompatibleTypes *IncompatibleTypesError
			if errors.As(err, &incompatibleTypes) {
				incompatibleTypes.ColumnName = first.Label(j)
			}
			return nil, err
		}
	}

	if width == 0 {
		finishRows(progress)
		return newTableOfHeight(nil, nil, totalHeight), nil
	}

	aggregator := newProgressAggregator(progress, width)
	out := make([]Column, width)
	group, groupCtx := errgroup.WithContext(ctx)
	for j := 0; j < width; j++ {
		j := j
		group.Go(func() error {
			columns := make([]Column, len(tables))
			for i, t := range tables {
				columns[i] = t.Column(j)
			}
			column, err := Append(groupCtx, columns, totalHeight, aggregator.column(j))
			if err != nil {
				return err
			}
			out[j] = column
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	aggregator.finish()
	return NewTable(first.Labels(), out)
}
