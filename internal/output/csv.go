// Package output renders update records as CSV artifacts.
package output

import (
	"bytes"
	"encoding/csv"

	"horizonscan/internal/domain"
)

// utf8BOM prefixes every artifact so spreadsheet tools detect UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	updateColumns   = []string{"date", "topic", "additional_context", "link", "regulator"}
	reviewedColumns = []string{"date", "topic", "additional_context", "link", "regulator", "Recommendation", "Reason"}
	combinedColumns = []string{"date", "topic", "additional_context", "link", "regulator", "source_url", "run_id"}
)

// UpdatesCSV renders the per-site structured records.
func UpdatesCSV(updates []domain.Update) []byte {
	rows := make([][]string, 0, len(updates))
	for _, u := range updates {
		rows = append(rows, []string{u.Date, u.Topic, u.AdditionalContext, u.Link, u.Regulator})
	}
	return render(updateColumns, rows)
}

// ReviewedCSV renders the per-site records with their relevance labels.
func ReviewedCSV(reviewed []domain.ReviewedUpdate) []byte {
	rows := make([][]string, 0, len(reviewed))
	for _, r := range reviewed {
		rows = append(rows, []string{
			r.Date, r.Topic, r.AdditionalContext, r.Link, r.Regulator,
			string(r.Recommendation), r.Reason,
		})
	}
	return render(reviewedColumns, rows)
}

// CombinedCSV renders the merged cross-site table, each row stamped
// with the site and run that produced it.
func CombinedCSV(reviewed []domain.ReviewedUpdate) []byte {
	rows := make([][]string, 0, len(reviewed))
	for _, r := range reviewed {
		rows = append(rows, []string{
			r.Date, r.Topic, r.AdditionalContext, r.Link, r.Regulator,
			r.SourceURL, r.RunID,
		})
	}
	return render(combinedColumns, rows)
}

func render(header []string, rows [][]string) []byte {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	_ = w.WriteAll(rows)
	w.Flush()

	return buf.Bytes()
}
