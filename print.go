package tabular

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Print writes a human-readable rendering of t to w, showing at most
// maxRows rows. A negative maxRows shows all rows. Missing values render
// as "?".
func Print(w io.Writer, t *Table, maxRows int) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)

	headers := make([]string, t.Width())
	formatters := make([]func(row int) string, t.Width())
	for j := 0; j < t.Width(); j++ {
		c := t.Column(j)
		headers[j] = fmt.Sprintf("%s (%s)", t.Label(j), c.Type())
		formatters[j] = cellFormatter(c)
	}
	tw.SetHeader(headers)

	rows := t.Height()
	truncated := false
	if maxRows >= 0 && rows > maxRows {
		rows = maxRows
		truncated = true
	}
	cells := make([]string, t.Width())
	for row := 0; row < rows; row++ {
		for j := range formatters {
			cells[j] = formatters[j](row)
		}
		tw.Append(cells)
	}
	if truncated {
		for j := range cells {
			cells[j] = "..."
		}
		tw.Append(cells)
	}
	tw.Render()
}

// FormatTable renders t like Print and returns the result as a string.
func FormatTable(t *Table, maxRows int) string {
	s := new(strings.Builder)
	Print(s, t, maxRows)
	return s.String()
}

func cellFormatter(c Column) func(row int) string {
	if oc, ok := c.(ObjectColumn); ok {
		buf := make([]any, 1)
		return func(row int) string {
			oc.FillObjects(buf, row)
			return formatObject(buf[0])
		}
	}
	if nc, ok := c.(NumericColumn); ok {
		buf := make([]float64, 1)
		return func(row int) string {
			nc.FillFloat64(buf, row)
			if math.IsNaN(buf[0]) {
				return "?"
			}
			return strconv.FormatFloat(buf[0], 'g', -1, 64)
		}
	}
	return func(int) string { return "?" }
}

func formatObject(v any) string {
	switch o := v.(type) {
	case nil:
		return "?"
	case string:
		return o
	case *TextSet:
		return o.String()
	case time.Duration:
		return o.String()
	case time.Time:
		return o.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(o)
	}
}
