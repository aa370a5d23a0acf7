package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// Text renders the table with columns aligned by a tabwriter.
func Text(w io.Writer, report *Report) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", report.Title, generatedLine(report)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	rules := make([]string, len(report.Columns))
	for i, col := range report.Columns {
		rules[i] = strings.Repeat("-", utf8.RuneCountInString(col))
	}
	fmt.Fprintln(tw, strings.Join(report.Columns, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))

	for _, row := range report.Rows {
		cells := make([]string, len(report.Columns))
		for i := range report.Columns {
			cells[i] = sanitizeCell(cell(row, i))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Summary) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		for _, line := range report.Summary {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// Tabs and newlines inside a value would break the column layout.
func sanitizeCell(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
