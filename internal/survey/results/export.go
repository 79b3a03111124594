package results

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	choiceSheet  = "Choice Questions"
	textSheet    = "Text Answers"
)

// BuildWorkbook renders aggregated results as an xlsx workbook: a summary
// sheet, one sheet of per-option counts, and one sheet of text answers.
func BuildWorkbook(r Results) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	summaryRows := [][]interface{}{
		{"Survey", r.Survey.Title},
		{"Category", string(r.Survey.Category)},
		{"Deadline", r.Survey.Deadline.Time.Format("2006-01-02")},
		{"Total responses", r.TotalResponses},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(choiceSheet); err != nil {
		return nil, err
	}
	header := []interface{}{"#", "Question", "Option", "Count", "Percentage"}
	if err := f.SetSheetRow(choiceSheet, "A1", &header); err != nil {
		return nil, err
	}
	rowIndex := 2
	for _, q := range r.Questions {
		for _, opt := range q.Options {
			row := []interface{}{q.OrderIndex, q.Text, opt.Text, opt.Count, opt.Percentage}
			if err := f.SetSheetRow(choiceSheet, fmt.Sprintf("A%d", rowIndex), &row); err != nil {
				return nil, err
			}
			rowIndex++
		}
	}

	if _, err := f.NewSheet(textSheet); err != nil {
		return nil, err
	}
	textHeader := []interface{}{"#", "Question", "Answer", "Submitted at"}
	if err := f.SetSheetRow(textSheet, "A1", &textHeader); err != nil {
		return nil, err
	}
	rowIndex = 2
	for _, q := range r.Questions {
		for _, text := range q.TextAnswers {
			row := []interface{}{q.OrderIndex, q.Text, text.Text, text.SubmittedAt.Format("2006-01-02 15:04:05")}
			if err := f.SetSheetRow(textSheet, fmt.Sprintf("A%d", rowIndex), &row); err != nil {
				return nil, err
			}
			rowIndex++
		}
	}

	return f, nil
}
