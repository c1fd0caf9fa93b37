package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		input string
		want  Target
	}{
		{"callsign", Direct("callsign")},
		{" name ", Direct("name")},
		{"attributes:solo_mode", Namespaced("attributes", "solo_mode")},
		{"attributes:team_callsign", Namespaced("attributes", "team_callsign")},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTarget(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.IsNamespaced(), got.IsNamespaced())
		})
	}
}

func TestParseTarget_Errors(t *testing.T) {
	for _, input := range []string{"", "   ", "attributes", " attributes ", "attributes:", "extra:foo"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTarget(input)
			assert.Error(t, err)
		})
	}
}

func TestFromPairs_RejectsBareAttributesTarget(t *testing.T) {
	_, err := FromPairs("Club ", "attributes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs an attribute name")
}

func TestTarget_String(t *testing.T) {
	assert.Equal(t, "name", Direct("name").String())
	assert.Equal(t, "attributes:solo_mode", Namespaced("attributes", "solo_mode").String())
}

func TestFromPairs_PreservesOrder(t *testing.T) {
	m, err := FromPairs(
		"Pilot Nickname ", "callsign",
		"Pilot Name ", "name",
		"registertype", "attributes:solo_mode",
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pilot Nickname ", "Pilot Name ", "registertype"}, m.Fields())
	assert.True(t, m[2].Target.IsNamespaced())
}

func TestFromPairs_Errors(t *testing.T) {
	_, err := FromPairs("only-field")
	assert.Error(t, err)

	_, err = FromPairs("a", "name", "a", "callsign")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate field")

	_, err = FromPairs("a", "bogus:x")
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	s := Default()
	assert.Empty(t, s.TeamMandatory)
	assert.Equal(t, []string{"team_logo"}, s.TeamOptional.Fields())
	assert.Equal(t, []string{"Pilot Name ", "Pilot Nickname "}, s.MemberMandatory.Fields())
	assert.Equal(t, []string{"Pilot Phone ", "Pilot Mail "}, s.MemberOptional.Fields())
}
