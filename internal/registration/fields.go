package registration

import (
	"strconv"
	"strings"

	"github.com/sells-group/roster-cli/internal/mapping"
)

// ValidateFields maps the fields of m from row into work and reports
// whether every field was present and non-empty.
//
// When group > 0 the group number is appended to each field name before
// lookup ("Pilot Name " + "2"). With allMandatory the first missing or
// empty field stops the scan and work is left untouched; otherwise every
// field is tried and each one found is merged. Problems up to the stopping
// point are always appended to errs.
func ValidateFields(row Row, m mapping.Mapping, work *Record, errs *[]FieldError, allMandatory bool, group int) bool {
	foundAll := true
	staged := NewRecord()

	for _, e := range m {
		key := e.Field
		if group > 0 {
			key += strconv.Itoa(group)
		}

		value, ok := row[key]
		switch {
		case !ok:
			foundAll = false
			*errs = append(*errs, FieldError{Field: key, Kind: FieldNotFound})
		case len(value) == 0:
			foundAll = false
			*errs = append(*errs, FieldError{Field: key, Kind: FieldEmpty})
		default:
			stage(&staged, e.Target, strings.TrimSpace(value))
			continue
		}

		if allMandatory {
			break
		}
	}

	if foundAll || !allMandatory {
		work.Merge(staged)
	}
	return foundAll
}

func stage(r *Record, t mapping.Target, value string) {
	if !t.IsNamespaced() {
		r.Fields[t.Name] = value
		return
	}
	if r.Attributes == nil {
		r.Attributes = map[string]string{}
	}
	r.Attributes[t.Name] = value
}
