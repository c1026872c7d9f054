package pipeline

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"bankreviews/internal"
	"bankreviews/internal/util"
)

const (
	reviewsSheet = "reviews"
	summarySheet = "summary"
)

// ExportRowsToXLSX writes processed reviews and per-bank counts to a
// workbook. Missing translations are left as empty cells.
func ExportRowsToXLSX(rows []internal.ProcessedReview, counts []internal.BankCount, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), reviewsSheet); err != nil {
		return err
	}

	extraCols := extraColumns(rows)
	headers := append([]string{"row", "bank_label", "bank", "text", "text_en", "text_clean"}, extraCols...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reviewsSheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(reviewsSheet, cell, value)
		}

		set(1, row.Row)
		set(2, row.BankLabel)
		set(3, row.Bank)
		set(4, row.Text)
		set(5, util.DerefString(row.TextEN))
		set(6, row.TextClean)
		for j, name := range extraCols {
			if v, ok := row.Extra[name]; ok {
				set(7+j, v)
			}
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	_ = f.SetCellValue(summarySheet, "A1", "bank")
	_ = f.SetCellValue(summarySheet, "B1", "count")
	for i, c := range counts {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetCellValue(summarySheet, cell, c.Bank)
		cell, _ = excelize.CoordinatesToCellName(2, i+2)
		_ = f.SetCellValue(summarySheet, cell, c.Count)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func extraColumns(rows []internal.ProcessedReview) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		for k := range r.Extra {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}
