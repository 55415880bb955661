package tabular_test

import (
	"testing"

	tabular "github.com/segmentio/tabular-go"
)

func TestNumericReader(t *testing.T) {
	// More rows than the reader's internal buffer, so it refills.
	values := randomValues(5000, 6)
	column, _ := tabular.NewNumericColumn(tabular.Real, values)
	reader := tabular.NewNumericReader(column)
	if reader.Remaining() != 5000 {
		t.Fatalf("remaining = %d, want 5000", reader.Remaining())
	}
	for i := range values {
		if got := reader.Read(); got != values[i] {
			t.Fatalf("row %d: got %g, want %g", i, got, values[i])
		}
	}
	if reader.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", reader.Remaining())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected a panic reading past the end")
		}
	}()
	reader.Read()
}

func TestIndexReader(t *testing.T) {
	dict := stringDictionary(3)
	indexes := make([]int32, 3000)
	for i := range indexes {
		indexes[i] = int32(i % 4)
	}
	column, _ := tabular.NewCategoricalColumn(tabular.Nominal, indexes, dict)
	reader := tabular.NewIndexReader(column)
	for i := range indexes {
		if got := reader.Read(); got != indexes[i] {
			t.Fatalf("row %d: got %d, want %d", i, got, indexes[i])
		}
	}
}

func TestObjectReader(t *testing.T) {
	column, _ := tabular.NewObjectColumn(tabular.Text, []any{"a", nil, "c"})
	reader := tabular.NewObjectReader(column)
	if v := reader.Read(); v != "a" {
		t.Errorf("row 0 = %v", v)
	}
	if v := reader.Read(); v != nil {
		t.Errorf("row 1 = %v", v)
	}
	if v := reader.Read(); v != "c" {
		t.Errorf("row 2 = %v", v)
	}
	if reader.Remaining() != 0 {
		t.Errorf("remaining = %d", reader.Remaining())
	}
}
