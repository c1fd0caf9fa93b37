package decode

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func requireInputError(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	var inErr *InputError
	require.True(t, errors.As(err, &inErr), "expected *InputError, got %T: %v", err, err)
	assert.Equal(t, kind, inErr.Kind)
}

func TestDecode_CSV(t *testing.T) {
	payload := []byte("Pilot Name 1,Pilot Nickname 1,registertype\n" +
		"Jane Doe,JD,as a singlepilot\n" +
		"\"Doe, John\",JoDo,as a teampilot\n")

	rows, err := Decode(payload, Options{Format: FormatCSV})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Jane Doe", rows[0]["Pilot Name 1"])
	assert.Equal(t, "Doe, John", rows[1]["Pilot Name 1"])
	assert.Equal(t, "as a teampilot", rows[1]["registertype"])
}

func TestDecode_CSVKeepsCellWhitespace(t *testing.T) {
	rows, err := Decode([]byte("a,b\n  x  ,\n"), Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "  x  ", rows[0]["a"])
	v, ok := rows[0]["b"]
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestDecode_CSVDelimiterAndBOM(t *testing.T) {
	payload := append([]byte("\xef\xbb\xbf"), []byte("name;callsign\nJane;JD\n")...)
	rows, err := Decode(payload, Options{Format: FormatCSV, Delimiter: ';'})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane", rows[0]["name"])
}

func TestDecode_HeaderOnly(t *testing.T) {
	rows, err := Decode([]byte("a,b,c\n"), Options{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecode_EmptyPayload(t *testing.T) {
	for _, payload := range [][]byte{nil, {}, []byte("  \n\t\n")} {
		_, err := Decode(payload, Options{})
		requireInputError(t, err, KindDecode)
	}
}

func TestDecode_InvalidUTF8(t *testing.T) {
	_, err := Decode([]byte("name\nJ\xfcrgen\n"), Options{})
	requireInputError(t, err, KindDecode)
}

func TestDecode_Charset(t *testing.T) {
	rows, err := Decode([]byte("name\nJ\xfcrgen\n"), Options{Charset: "iso-8859-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jürgen", rows[0]["name"])

	_, err = Decode([]byte("name\nx\n"), Options{Charset: "klingon"})
	requireInputError(t, err, KindDecode)
}

func TestDecode_MalformedCSV(t *testing.T) {
	tests := map[string]string{
		"ragged row":     "a,b\n1,2,3\n",
		"short row":      "a,b,c\n1,2\n",
		"bare quote":     "a,b\n1,x\"y\n",
		"unclosed quote": "a,b\n\"1,2\n",
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload), Options{})
			requireInputError(t, err, KindParse)
		})
	}
}

func TestDecode_UnknownFormat(t *testing.T) {
	_, err := Decode([]byte("a\n1\n"), Options{Format: "json"})
	require.Error(t, err)
	var inErr *InputError
	assert.False(t, errors.As(err, &inErr))
}

func buildWorkbook(t *testing.T, sheetName string, rows [][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestDecode_XLSX(t *testing.T) {
	payload := buildWorkbook(t, "Registrations", [][]string{
		{"Pilot Name 1", "Pilot Nickname 1", "Pilot Phone 1"},
		{"Jane Doe", "JD", "0049123"},
		{"John", "JO"},
	})

	rows, err := Decode(payload, Options{Format: FormatXLSX})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "JD", rows[0]["Pilot Nickname 1"])
	v, ok := rows[1]["Pilot Phone 1"]
	assert.True(t, ok, "short spreadsheet rows are padded to the header")
	assert.Equal(t, "", v)
}

func TestDecode_XLSXNamedSheet(t *testing.T) {
	payload := buildWorkbook(t, "Form", [][]string{{"name"}, {"Jane"}})

	rows, err := Decode(payload, Options{Format: FormatXLSX, Sheet: "Form"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = Decode(payload, Options{Format: FormatXLSX, Sheet: "Missing"})
	requireInputError(t, err, KindParse)
}

func TestDecode_XLSXExtraCells(t *testing.T) {
	payload := buildWorkbook(t, "Sheet1", [][]string{{"a"}, {"1", "surprise"}})
	_, err := Decode(payload, Options{Format: FormatXLSX})
	requireInputError(t, err, KindParse)
}

func TestDecode_XLSXNotAWorkbook(t *testing.T) {
	_, err := Decode([]byte("definitely not a zip"), Options{Format: FormatXLSX})
	requireInputError(t, err, KindDecode)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"", FormatCSV},
		{"CSV", FormatCSV},
		{"registrations.csv", FormatCSV},
		{"export.txt", FormatCSV},
		{"xlsx", FormatXLSX},
		{"/tmp/Registrations.XLSX", FormatXLSX},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("data.json")
	assert.Error(t, err)
}

func TestInputError_Message(t *testing.T) {
	err := &InputError{Kind: KindParse, Err: errors.New("boom")}
	assert.Equal(t, "decode: input parse failure: boom", err.Error())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}
