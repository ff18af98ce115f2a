package sharepoint

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SortKey sorts rows by one column, compared as text.
type SortKey struct {
	Column    string // column letter, e.g. "A"
	Ascending bool
}

// FormatSpec is the fixed formatting pass re-applied to an export file
// after every create or append.
type FormatSpec struct {
	SortKeys        []SortKey
	BoldRows        []int // 1-based row numbers
	AlignHorizontal string
	AlignVertical   string
	ColumnWidth     float64
	FreezePanes     string // top-left cell of the scrollable area, e.g. "A2"
}

// BuildWorkbook creates a single-sheet xlsx with a header row and one row
// per record.
func BuildWorkbook(sheet string, header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet failed: %w", err)
	}

	if err := setStringRow(f, sheet, 1, header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := setStringRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook failed: %w", err)
	}
	return buf.Bytes(), nil
}

// SheetRows reads all rows of one sheet from xlsx bytes. The first row is
// the header.
func SheetRows(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook failed: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s failed: %w", sheet, err)
	}
	return rows, nil
}

// AppendRows appends flat records to an existing tabular file. Values are
// placed under the file's own header columns; labels the file does not
// know are dropped.
func (c *Client) AppendRows(ctx context.Context, folder, name, sheet string, rows []map[string]string) error {
	data, err := c.FetchFileBytes(ctx, folder, name)
	if err != nil {
		return err
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("open workbook failed: %w", err)
	}
	defer f.Close()

	existing, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s failed: %w", sheet, err)
	}
	if len(existing) == 0 {
		return fmt.Errorf("sheet %s has no header row", sheet)
	}
	header := existing[0]

	next := len(existing) + 1
	for _, row := range rows {
		values := make([]string, len(header))
		for i, label := range header {
			values[i] = row[label]
		}
		if err := setStringRow(f, sheet, next, values); err != nil {
			return err
		}
		next++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("write workbook failed: %w", err)
	}
	return c.UploadBytes(ctx, folder, name, buf.Bytes())
}

// FormatAndSort re-applies the formatting pass: sorts the data rows,
// rewrites them, styles header and body, fixes column widths and freezes
// the header row.
func (c *Client) FormatAndSort(ctx context.Context, folder, name, sheet string, spec FormatSpec) error {
	data, err := c.FetchFileBytes(ctx, folder, name)
	if err != nil {
		return err
	}

	formatted, err := FormatWorkbook(data, sheet, spec)
	if err != nil {
		return fmt.Errorf("format %s failed: %w", name, err)
	}
	return c.UploadBytes(ctx, folder, name, formatted)
}

// FormatWorkbook applies a FormatSpec to xlsx bytes.
func FormatWorkbook(data []byte, sheet string, spec FormatSpec) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook failed: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s failed: %w", sheet, err)
	}
	if len(rows) == 0 {
		return data, nil
	}

	// GetRows trims trailing empty cells, so rows whose last columns are
	// empty come back short. Pad to a uniform width before the rewrite,
	// otherwise a short row written over a longer one keeps the old
	// trailing cells.
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	for i, row := range rows {
		for len(row) < cols {
			row = append(row, "")
		}
		rows[i] = row
	}

	if err := sortRows(rows, spec.SortKeys); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := setStringRow(f, sheet, i+1, row); err != nil {
			return nil, err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return nil, err
	}

	bodyStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: spec.AlignHorizontal,
			Vertical:   spec.AlignVertical,
		},
	})
	if err != nil {
		return nil, err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{
			Horizontal: spec.AlignHorizontal,
			Vertical:   spec.AlignVertical,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("%s%d", lastCol, len(rows)), bodyStyle); err != nil {
		return nil, err
	}
	for _, row := range spec.BoldRows {
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), boldStyle); err != nil {
			return nil, err
		}
	}

	if spec.ColumnWidth > 0 {
		if err := f.SetColWidth(sheet, "A", lastCol, spec.ColumnWidth); err != nil {
			return nil, err
		}
	}

	if spec.FreezePanes != "" {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			XSplit:      0,
			YSplit:      1,
			TopLeftCell: spec.FreezePanes,
			ActivePane:  "bottomLeft",
		}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook failed: %w", err)
	}
	return buf.Bytes(), nil
}

// sortRows permutes the data rows (header excluded) by the sort keys,
// comparing cell values as text.
func sortRows(rows [][]string, keys []SortKey) error {
	if len(keys) == 0 || len(rows) < 3 {
		return nil
	}

	idx := make([]int, len(keys))
	for i, key := range keys {
		n, err := excelize.ColumnNameToNumber(key.Column)
		if err != nil {
			return fmt.Errorf("bad sort column %q: %w", key.Column, err)
		}
		idx[i] = n - 1
	}

	body := rows[1:]
	sort.SliceStable(body, func(a, b int) bool {
		for i, key := range keys {
			va, vb := cell(body[a], idx[i]), cell(body[b], idx[i])
			cmp := strings.Compare(va, vb)
			if cmp == 0 {
				continue
			}
			if key.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func setStringRow(f *excelize.File, sheet string, row int, values []string) error {
	cellName, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cellName, &cells); err != nil {
		return fmt.Errorf("write row %d failed: %w", row, err)
	}
	return nil
}
