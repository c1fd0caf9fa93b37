package decode

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/registration"
)

func decodeCSV(text string, opts Options) ([]registration.Row, error) {
	reader := csv.NewReader(strings.NewReader(text))
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	// Every record must match the header width.
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err == io.EOF {
		return nil, decodeErr(eris.New("empty payload"))
	}
	if err != nil {
		return nil, parseErr(eris.Wrap(err, "csv: read header"))
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseErr(eris.Wrap(err, "csv: read row"))
		}
		records = append(records, record)
	}

	return zipRows(header, records), nil
}
