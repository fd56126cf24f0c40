package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"botcheck/internal/features"
)

// WriteVectorsCSV writes stored feature rows as CSV, one row per report,
// with a trailing prediction column. An empty columns list keeps every
// schema field in schema order.
func WriteVectorsCSV(w io.Writer, schema *features.Schema, columns []string, rows [][]float64, labels []string) error {
	if len(rows) != len(labels) {
		return fmt.Errorf("export: %d rows but %d labels", len(rows), len(labels))
	}
	if len(columns) == 0 {
		columns = schema.Fields()
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		if idx[i] = schema.Index(c); idx[i] < 0 {
			return fmt.Errorf("export: schema %s has no field %q", schema.Name(), c)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string(nil), columns...), "prediction")); err != nil {
		return err
	}
	rec := make([]string, len(columns)+1)
	for r, row := range rows {
		if len(row) != schema.Len() {
			return fmt.Errorf("export: row %d has %d values, schema %s has %d", r, len(row), schema.Name(), schema.Len())
		}
		for i, j := range idx {
			rec[i] = strconv.FormatFloat(row[j], 'f', -1, 64)
		}
		rec[len(columns)] = labels[r]
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
