package tabular

import "fmt"

// A Table is a fixed-width collection of equally tall, immutable columns
// identified by unique labels. Tables are immutable.
type Table struct {
	labels  []string
	columns []Column
	height  int
}

// NewTable returns a table over the given columns. Labels must be non-empty
// and unique, one per column, and all columns must have the same length.
func NewTable(labels []string, columns []Column) (*Table, error) {
	if len(labels) != len(columns) {
		return nil, fmt.Errorf("tabular: %d labels for %d columns", len(labels), len(columns))
	}
	if err := checkLabels(labels); err != nil {
		return nil, err
	}
	height := 0
	for i, c := range columns {
		if c == nil {
			return nil, fmt.Errorf("tabular: nil column %q", labels[i])
		}
		if i == 0 {
			height = c.Len()
		} else if c.Len() != height {
			return nil, fmt.Errorf("tabular: column %q has height %d, want %d", labels[i], c.Len(), height)
		}
	}
	return &Table{labels: labels, columns: columns, height: height}, nil
}

// newTableOfHeight builds a table carrying an explicit height, used for
// zero-width tables whose height cannot be derived from any column.
func newTableOfHeight(labels []string, columns []Column, height int) *Table {
	return &Table{labels: labels, columns: columns, height: height}
}

func checkLabels(labels []string) error {
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if label == "" {
			return fmt.Errorf("tabular: empty column label")
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("tabular: duplicate column label %q", label)
		}
		seen[label] = struct{}{}
	}
	return nil
}

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Height returns the number of rows.
func (t *Table) Height() int { return t.height }

// Labels returns the column labels in column order.
func (t *Table) Labels() []string {
	labels := make([]string, len(t.labels))
	copy(labels, t.labels)
	return labels
}

// Label returns the label of column i.
func (t *Table) Label(i int) string { return t.labels[i] }

// Column returns column i.
func (t *Table) Column(i int) Column { return t.columns[i] }

// ColumnByLabel returns the column with the given label.
func (t *Table) ColumnByLabel(label string) (Column, bool) {
	for i, l := range t.labels {
		if l == label {
			return t.columns[i], true
		}
	}
	return nil, false
}

func (t *Table) String() string {
	return fmt.Sprintf("Table (%dx%d)", t.Width(), t.Height())
}
