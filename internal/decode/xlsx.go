package decode

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/roster-cli/internal/registration"
)

func decodeXLSX(payload []byte, opts Options) ([]registration.Row, error) {
	f, err := xlsx.OpenBinary(payload)
	if err != nil {
		return nil, decodeErr(eris.Wrap(err, "xlsx: open workbook"))
	}

	sheet, err := getSheet(f, opts.Sheet)
	if err != nil {
		return nil, parseErr(err)
	}

	var header []string
	var records [][]string
	for i, row := range sheet.Rows {
		cells := rowToStrings(row)
		if header == nil {
			if isBlank(cells) {
				continue
			}
			header = trimTrailingBlank(cells)
			continue
		}
		if isBlank(cells) {
			continue
		}
		// Spreadsheets drop trailing empty cells; pad them back.
		if len(cells) > len(header) {
			if !isBlank(cells[len(header):]) {
				return nil, parseErr(eris.Errorf("xlsx: row %d has %d cells, header has %d", i+1, len(cells), len(header)))
			}
			cells = cells[:len(header)]
		}
		for len(cells) < len(header) {
			cells = append(cells, "")
		}
		records = append(records, cells)
	}

	if header == nil {
		return nil, decodeErr(eris.New("xlsx: sheet is empty"))
	}
	return zipRows(header, records), nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimTrailingBlank(cells []string) []string {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	return cells[:end]
}
