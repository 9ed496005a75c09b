package reports

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

func reportLines(userID string, rows []EvaluationRow) (string, []string, error) {
	header := fmt.Sprintf("Performance Report - User %s", userID)
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		// encoding/json writes map keys in sorted order.
		answers, err := json.Marshal(row.Answers)
		if err != nil {
			return "", nil, err
		}
		lines = append(lines, fmt.Sprintf("Evaluation %d: %s", i+1, answers))
	}
	return header, lines, nil
}

func renderUserPDF(userID string, rows []EvaluationRow) ([]byte, error) {
	header, lines, err := reportLines(userID, rows)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, header)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range lines {
		pdf.MultiCell(0, 6, line, "", "L", false)
		pdf.Ln(1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
