package mapping

import (
	"github.com/rotisserie/eris"
)

// Entry maps one external field name (without group suffix) to a target.
type Entry struct {
	Field  string `json:"field"`
	Target Target `json:"target"`
}

// Mapping is an ordered list of entries. Order is the evaluation order
// used when validating a row, so it is preserved from the source.
type Mapping []Entry

// FromPairs builds a Mapping from alternating field/target strings.
func FromPairs(pairs ...string) (Mapping, error) {
	if len(pairs)%2 != 0 {
		return nil, eris.Errorf("mapping: odd number of arguments (%d)", len(pairs))
	}
	m := make(Mapping, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		t, err := ParseTarget(pairs[i+1])
		if err != nil {
			return nil, eris.Wrapf(err, "mapping: field %q", pairs[i])
		}
		m, err = m.with(pairs[i], t)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustFromPairs is like FromPairs but panics on error. Intended for
// package-level defaults.
func MustFromPairs(pairs ...string) Mapping {
	m, err := FromPairs(pairs...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Mapping) with(field string, t Target) (Mapping, error) {
	if field == "" {
		return nil, eris.New("mapping: empty field name")
	}
	for _, e := range m {
		if e.Field == field {
			return nil, eris.Errorf("mapping: duplicate field %q", field)
		}
	}
	return append(m, Entry{Field: field, Target: t}), nil
}

// Fields returns the external field names in evaluation order.
func (m Mapping) Fields() []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.Field
	}
	return out
}

// Set groups the four mappings an import needs.
type Set struct {
	TeamMandatory   Mapping `yaml:"-"`
	TeamOptional    Mapping `yaml:"-"`
	MemberMandatory Mapping `yaml:"-"`
	MemberOptional  Mapping `yaml:"-"`
}

// Default returns the built-in mappings for WordPress Contact Form 7
// pilot registration exports.
func Default() Set {
	return Set{
		TeamMandatory: Mapping{},
		TeamOptional: MustFromPairs(
			"team_logo", "logo",
		),
		MemberMandatory: MustFromPairs(
			"Pilot Name ", "name",
			"Pilot Nickname ", "callsign",
		),
		MemberOptional: MustFromPairs(
			"Pilot Phone ", "phone",
			"Pilot Mail ", "mail",
		),
	}
}
