package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/mapping"
)

func messages(errs []FieldError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.String()
	}
	return out
}

func TestValidateFields_AllFound(t *testing.T) {
	row := Row{"Pilot Name 1": "  Jane Doe  ", "Pilot Nickname 1": "JD"}
	m := mapping.MustFromPairs("Pilot Name ", "name", "Pilot Nickname ", "callsign")

	work := NewRecord()
	var errs []FieldError
	ok := ValidateFields(row, m, &work, &errs, true, 1)

	assert.True(t, ok)
	assert.Empty(t, errs)
	assert.Equal(t, map[string]string{"name": "Jane Doe", "callsign": "JD"}, work.Fields)
	assert.Nil(t, work.Attributes)
}

func TestValidateFields_UngroupedLookup(t *testing.T) {
	row := Row{"team_logo": "logo.png", "team_logo0": "wrong"}
	m := mapping.MustFromPairs("team_logo", "logo")

	work := NewRecord()
	var errs []FieldError
	assert.True(t, ValidateFields(row, m, &work, &errs, false, 0))
	assert.Equal(t, "logo.png", work.Get("logo"))
}

func TestValidateFields_MandatoryShortCircuits(t *testing.T) {
	row := Row{"a": "1", "c": "3"}
	m := mapping.MustFromPairs("a", "first", "b", "second", "c", "third")

	work := NewRecord()
	work.Fields["existing"] = "kept"
	var errs []FieldError
	ok := ValidateFields(row, m, &work, &errs, true, 0)

	assert.False(t, ok)
	assert.Equal(t, []string{"b not found"}, messages(errs))
	// Nothing from this call is committed, not even "a".
	assert.Equal(t, map[string]string{"existing": "kept"}, work.Fields)
}

func TestValidateFields_OptionalCollectsEverything(t *testing.T) {
	row := Row{"a": "1", "b": "", "d": " 4 "}
	m := mapping.MustFromPairs("a", "first", "b", "second", "c", "third", "d", "fourth")

	work := NewRecord()
	var errs []FieldError
	ok := ValidateFields(row, m, &work, &errs, false, 0)

	assert.False(t, ok)
	assert.Equal(t, []string{"b is empty", "c not found"}, messages(errs))
	assert.Equal(t, map[string]string{"first": "1", "fourth": "4"}, work.Fields)
}

func TestValidateFields_EmptyVsWhitespace(t *testing.T) {
	row := Row{"x1": "", "y1": "   "}
	m := mapping.MustFromPairs("x", "x", "y", "y")

	work := NewRecord()
	var errs []FieldError
	ValidateFields(row, m, &work, &errs, false, 1)

	require.Len(t, errs, 1)
	assert.Equal(t, FieldError{Field: "x1", Kind: FieldEmpty}, errs[0])
	// A whitespace-only value is present and non-empty; it is stored trimmed.
	v, ok := work.Fields["y"]
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestValidateFields_AttributesAccumulate(t *testing.T) {
	row := Row{"registertype": "1", "teamname": " Falcons ", "club": "FPV Club"}
	m := mapping.MustFromPairs(
		"registertype", "attributes:solo_mode",
		"teamname", "attributes:team_callsign",
	)

	work := NewRecord()
	work.Attributes = map[string]string{"existing": "x"}
	var errs []FieldError
	assert.True(t, ValidateFields(row, m, &work, &errs, true, 0))

	assert.Equal(t, map[string]string{
		"existing":      "x",
		"solo_mode":     "1",
		"team_callsign": "Falcons",
	}, work.Attributes)

	more := mapping.MustFromPairs("club", "attributes:club")
	assert.True(t, ValidateFields(row, more, &work, &errs, false, 0))
	assert.Len(t, work.Attributes, 4)
	assert.Empty(t, errs)
}

func TestValidateFields_EmptyMappingIsVacuouslyValid(t *testing.T) {
	work := NewRecord()
	var errs []FieldError
	assert.True(t, ValidateFields(Row{}, mapping.Mapping{}, &work, &errs, true, 0))
	assert.Empty(t, errs)
	assert.Empty(t, work.Fields)
}

func TestValidateFields_ErrorsAppendToExisting(t *testing.T) {
	errs := []FieldError{{Field: "earlier", Kind: FieldEmpty}}
	work := NewRecord()
	ValidateFields(Row{}, mapping.MustFromPairs("Pilot Name ", "name"), &work, &errs, true, 3)
	assert.Equal(t, []string{"earlier is empty", "Pilot Name 3 not found"}, messages(errs))
}
