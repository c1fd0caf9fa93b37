// Package decode turns a raw registration payload into rows keyed by the
// header names of its first line.
package decode

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/registration"
)

// Format selects the tabular parser.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "csv" || strings.HasSuffix(s, ".csv") || strings.HasSuffix(s, ".txt"):
		return FormatCSV, nil
	case s == "xlsx" || strings.HasSuffix(s, ".xlsx"):
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("decode: unsupported format %q", s)
	}
}

// Kind tells a payload that could not be read from one that could not be
// parsed as a table.
type Kind int

const (
	// KindDecode covers empty payloads and invalid text encodings.
	KindDecode Kind = iota + 1
	// KindParse covers malformed tabular structure.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindParse:
		return "parse"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// InputError aborts a whole import; no row of the payload is used.
type InputError struct {
	Kind Kind
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("decode: input %s failure: %v", e.Kind, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

func decodeErr(err error) error { return &InputError{Kind: KindDecode, Err: err} }
func parseErr(err error) error  { return &InputError{Kind: KindParse, Err: err} }

// Options configures Decode.
type Options struct {
	Format    Format
	Delimiter rune   // CSV only, default ','
	Charset   string // WHATWG label, default utf-8
	Sheet     string // XLSX only, default first sheet
}

// Decode parses payload into rows. Every row holds every header column.
// A payload with only a header yields zero rows and no error.
func Decode(payload []byte, opts Options) ([]registration.Row, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, decodeErr(eris.New("empty payload"))
	}

	switch opts.Format {
	case FormatXLSX:
		return decodeXLSX(payload, opts)
	case FormatCSV, "":
		text, err := toUTF8(payload, opts.Charset)
		if err != nil {
			return nil, decodeErr(err)
		}
		return decodeCSV(text, opts)
	default:
		return nil, eris.Errorf("decode: unsupported format %q", opts.Format)
	}
}

// zipRows pairs each record with the header. Records must have exactly the
// header's width.
func zipRows(header []string, records [][]string) []registration.Row {
	rows := make([]registration.Row, 0, len(records))
	for _, rec := range records {
		row := make(registration.Row, len(header))
		for i, h := range header {
			row[h] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows
}
