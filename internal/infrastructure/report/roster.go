package report

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
)

const (
	// maxRosterRows bounds the legacy .xls reader.
	maxRosterRows = 100000

	// xlsMaxCols is how many columns are read from a legacy row. Rows the
	// reader creates from bare cells report no width of their own.
	xlsMaxCols = 32
)

type rosterField int

const (
	fieldName rosterField = iota
	fieldEmail
	fieldPassword
	fieldPosition
	fieldRole
)

// rosterHeaders maps accent-folded, lowercased header names to fields.
var rosterHeaders = map[string]rosterField{
	"nome":     fieldName,
	"name":     fieldName,
	"email":    fieldEmail,
	"e-mail":   fieldEmail,
	"senha":    fieldPassword,
	"codigo":   fieldPassword,
	"password": fieldPassword,
	"cargo":    fieldPosition,
	"position": fieldPosition,
	"perfil":   fieldRole,
	"role":     fieldRole,
}

// ReadRoster parses a staff spreadsheet. The first sheet must start with a
// header row containing at least a name column. Blank lines are skipped.
// filename selects the format: .xls uses the legacy BIFF reader, anything
// else is read as .xlsx.
func ReadRoster(r io.Reader, filename string) ([]staff.RosterRow, error) {
	rows, err := readSheet(r, filename)
	if err != nil {
		return nil, err
	}

	cols := map[rosterField]int{}
	for i, h := range rows[0] {
		if f, ok := rosterHeaders[normalizeHeader(h)]; ok {
			if _, seen := cols[f]; !seen {
				cols[f] = i
			}
		}
	}
	if _, ok := cols[fieldName]; !ok {
		return nil, shared.WrapError("report", "ReadRoster", shared.ErrInvalidFormat,
			"header row has no name column", shared.ErrInvalidRoster)
	}

	get := func(row []string, f rosterField) string {
		idx, ok := cols[f]
		if !ok {
			return ""
		}
		return cellValue(row, idx)
	}

	out := make([]staff.RosterRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, staff.RosterRow{
			Line: i + 2,
			Input: staff.NewUserInput{
				Name:     get(row, fieldName),
				Email:    get(row, fieldEmail),
				Password: get(row, fieldPassword),
				Role:     get(row, fieldRole),
				Position: get(row, fieldPosition),
			},
		})
	}
	return out, nil
}

func readSheet(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("report: read roster: %w", err)
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, invalidRoster("cannot open .xls file", err)
		}
		if workbook == nil || workbook.NumSheets() == 0 {
			return nil, invalidRoster("no worksheet found", nil)
		}
		rows = xlsRows(workbook.GetSheet(0))
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, invalidRoster("cannot open .xlsx file", err)
		}
		defer func() { _ = file.Close() }()

		sheet := file.GetSheetName(0)
		if sheet == "" {
			return nil, invalidRoster("no worksheet found", nil)
		}
		if rows, err = file.GetRows(sheet); err != nil {
			return nil, invalidRoster("cannot read worksheet", err)
		}
	}
	if len(rows) == 0 {
		return nil, invalidRoster("worksheet is empty", nil)
	}
	return rows, nil
}

// xlsRows reads one legacy worksheet. Row numbers the file never declared
// come back empty so line numbers stay aligned with the sheet.
func xlsRows(sheet *xls.WorkSheet) [][]string {
	n := int(sheet.MaxRow) + 1
	if n > maxRosterRows {
		n = maxRosterRows
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		width := max(row.LastCol(), xlsMaxCols)
		cells := make([]string, width)
		for j := range cells {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return rows
}

// xlsRow returns row i or nil. WorkSheet.Row dereferences a nil row for
// numbers with no record, so the panic is turned into a missing row.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func invalidRoster(msg string, err error) error {
	if err == nil {
		err = shared.ErrInvalidRoster
	} else {
		err = fmt.Errorf("%w: %v", shared.ErrInvalidRoster, err)
	}
	return shared.WrapError("report", "ReadRoster", shared.ErrInvalidFormat, msg, err)
}

// normalizeHeader lowercases, trims and strips accents, so "Código" and
// "codigo" match.
func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, h)
	if err != nil {
		return h
	}
	return folded
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
