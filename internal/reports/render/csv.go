package render

import (
	"encoding/csv"
	"io"
)

// CSV writes a header row followed by the data rows. Summary lines are not part of
// the table and are left out.
func CSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.Columns); err != nil {
		return err
	}
	for _, row := range report.Rows {
		record := make([]string, len(report.Columns))
		for i := range report.Columns {
			record[i] = cell(row, i)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
