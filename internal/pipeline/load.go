package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"bankreviews/internal"
	"bankreviews/internal/util"
)

var errLabelColumn = errors.New("label column not found")

// LoadReviews reads a review dataset, picking the parser from the file
// extension (.csv, .xlsx, .html/.htm).
func LoadReviews(path, labelColumn, textColumn string) ([]internal.Review, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var reviews []internal.Review
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reviews, err = parseCSV(blob, labelColumn, textColumn)
	case ".xlsx":
		reviews, err = parseXLSX(blob, labelColumn, textColumn)
	case ".html", ".htm":
		reviews, err = parseHTMLTable(string(blob), labelColumn, textColumn)
	default:
		return nil, fmt.Errorf("unsupported dataset type: %s", path)
	}
	if errors.Is(err, errLabelColumn) {
		return nil, fmt.Errorf("%w: %q in %s", errLabelColumn, labelColumn, path)
	}
	return reviews, err
}

type columns struct {
	headers []string
	label   int
	text    int
}

func resolveColumns(headers []string, labelColumn, textColumn string) (columns, bool) {
	cols := columns{
		headers: headers,
		label:   util.FindColumn(headers, labelColumn),
		text:    util.FindColumn(headers, textColumn),
	}
	if cols.label == cols.text {
		cols.text = -1
	}
	return cols, cols.label >= 0
}

// rowToReview returns nil for rows with neither a label nor a text.
func rowToReview(source internal.ReviewSource, rowNo int, cells []string, cols columns) *internal.Review {
	label := util.PickCell(cells, cols.label)
	text := util.PickCell(cells, cols.text)
	if label == "" && text == "" {
		return nil
	}

	extra := map[string]string{}
	for i, h := range cols.headers {
		if i == cols.label || i == cols.text {
			continue
		}
		name := util.NormalizeSpaces(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("col%d", i+1)
		}
		if v := util.PickCell(cells, i); v != "" {
			extra[name] = v
		}
	}

	return &internal.Review{
		Row:       rowNo,
		Source:    source,
		BankLabel: label,
		Text:      text,
		Extra:     extra,
	}
}

func parseCSV(content []byte, labelColumn, textColumn string) ([]internal.Review, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols, ok := resolveColumns(header, labelColumn, textColumn)
	if !ok {
		return nil, errLabelColumn
	}

	out := []internal.Review{}
	rowNo := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		review := rowToReview(internal.SourceCSV, rowNo+1, normalizeCells(row), cols)
		if review == nil {
			continue
		}
		rowNo++
		out = append(out, *review)
	}
	return out, nil
}

func parseXLSX(content []byte, labelColumn, textColumn string) ([]internal.Review, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []internal.Review{}
	found := false
	rowNo := 0
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		var cols columns
		haveHeader := false
		for _, row := range rows {
			cells := normalizeCells(row)
			if isBlankRow(cells) {
				continue
			}
			if !haveHeader {
				var ok bool
				cols, ok = resolveColumns(cells, labelColumn, textColumn)
				if !ok {
					break
				}
				haveHeader = true
				found = true
				continue
			}
			review := rowToReview(internal.SourceXLSX, rowNo+1, cells, cols)
			if review == nil {
				continue
			}
			review.Extra["sheet"] = sheet
			rowNo++
			out = append(out, *review)
		}
	}

	if !found {
		return nil, errLabelColumn
	}
	return out, nil
}

func parseHTMLTable(html, labelColumn, textColumn string) ([]internal.Review, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	out := []internal.Review{}
	found := false
	rowNo := 0
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := tableRows(table)
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, util.NormalizeSpaces(cell.Text()))
		})
		cols, ok := resolveColumns(headers, labelColumn, textColumn)
		if !ok {
			return
		}
		found = true

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			review := rowToReview(internal.SourceHTML, rowNo+1, cells, cols)
			if review == nil {
				return
			}
			rowNo++
			out = append(out, *review)
		})
	})

	if !found {
		return nil, errLabelColumn
	}
	return out, nil
}

// tableRows returns the rows that belong to table itself, leaving out rows of
// tables nested inside its cells.
func tableRows(table *goquery.Selection) *goquery.Selection {
	return table.ChildrenFiltered("tr").
		AddSelection(table.ChildrenFiltered("thead,tbody,tfoot").ChildrenFiltered("tr"))
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, util.NormalizeSpaces(c))
	}
	return out
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
