package render

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/segmetric/segmetric/internal/pivot"
	"github.com/segmetric/segmetric/pkg/types"
)

// PivotCSV writes a pivot table as CSV. The first column holds row
// labels; the header row holds the metric name followed by column
// labels. Values follow the table's rounding policy unchanged.
func PivotCSV(w io.Writer, pt *pivot.PivotTable) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(pt.ColLabels)+1)
	header = append(header, pt.Metric)
	header = append(header, pt.ColLabels...)
	if err := cw.Write(header); err != nil {
		return err
	}

	matrix := pt.Matrix()
	for i, rowLabel := range pt.RowLabels {
		record := make([]string, 0, len(pt.ColLabels)+1)
		record = append(record, rowLabel)
		for _, v := range matrix[i] {
			record = append(record, formatCell(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// TableCSV writes a data table as CSV with a header row of field names.
func TableCSV(w io.Writer, tbl *types.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(tbl.Schema.FieldNames()); err != nil {
		return err
	}

	for _, row := range tbl.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = types.Label(cell)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
