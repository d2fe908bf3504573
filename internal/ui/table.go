package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// TimeLayout is how timestamps are shown in table cells.
const TimeLayout = "2006-01-02 15:04"

// Table renders rows of data in aligned columns.
type Table struct {
	w       *tabwriter.Writer
	headers []string
}

// NewTable creates a new table writer with the given column headers.
func NewTable(out io.Writer, headers ...string) *Table {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	t := &Table{w: tw, headers: headers}
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return t
}

// Row appends a row of values. Times render as TimeLayout, a zero time or
// false bool as "-", and true as "yes".
func (t *Table) Row(values ...any) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = cell(v)
	}
	_, _ = fmt.Fprintln(t.w, strings.Join(parts, "\t"))
}

func cell(v any) string {
	switch v := v.(type) {
	case time.Time:
		if v.IsZero() {
			return "-"
		}
		return v.Local().Format(TimeLayout)
	case bool:
		if v {
			return "yes"
		}
		return "-"
	case string:
		if v == "" {
			return "-"
		}
		return v
	}
	return fmt.Sprintf("%v", v)
}

// Flush writes the buffered output.
func (t *Table) Flush() error {
	return t.w.Flush()
}
