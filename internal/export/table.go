// Package export renders analysis metrics for terminals and as PDF files.
package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"botcheck/internal/model"
)

// WriteTable prints metrics as an aligned two-column table.
func WriteTable(w io.Writer, metrics []model.Metric) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Metric\tValue")
	fmt.Fprintln(tw, "------\t-----")
	for _, m := range metrics {
		fmt.Fprintf(tw, "%s\t%s\n", m.Name, model.FormatValue(m.Value))
	}
	return tw.Flush()
}
