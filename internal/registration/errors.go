package registration

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrorKind classifies a per-field problem.
type ErrorKind int

const (
	// FieldNotFound means the column is absent from the row.
	FieldNotFound ErrorKind = iota + 1
	// FieldEmpty means the column is present with a zero-length value.
	FieldEmpty
)

func (k ErrorKind) String() string {
	switch k {
	case FieldNotFound:
		return "not found"
	case FieldEmpty:
		return "is empty"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// FieldError is one problem found while mapping a row. Field is the
// looked-up name including any group suffix.
type FieldError struct {
	Field string    `json:"field"`
	Kind  ErrorKind `json:"kind"`
}

func (e FieldError) String() string {
	return e.Field + " " + e.Kind.String()
}

// MarshalText renders the error the way it is reported to users.
func (e FieldError) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses "<field> not found" or "<field> is empty".
func (e *FieldError) UnmarshalText(text []byte) error {
	s := string(text)
	for _, k := range []ErrorKind{FieldNotFound, FieldEmpty} {
		if field, ok := strings.CutSuffix(s, " "+k.String()); ok {
			*e = FieldError{Field: field, Kind: k}
			return nil
		}
	}
	return eris.Errorf("registration: unrecognized field error %q", s)
}

// RowError collects the problems of one source row.
type RowError struct {
	Index  int          `json:"index"`
	Row    Row          `json:"row"`
	Errors []FieldError `json:"errors"`
}

// Messages renders every error of the row.
func (e RowError) Messages() []string {
	out := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe.String()
	}
	return out
}
