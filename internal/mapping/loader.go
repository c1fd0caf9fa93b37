package mapping

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a mapping file. Sections that are omitted
// keep the built-in default; an explicit empty map ({}) clears one.
//
//	team:
//	  optional:
//	    team_logo: logo
//	member:
//	  mandatory:
//	    "Pilot Name ": name
//	    "Pilot Nickname ": callsign
//	  optional:
//	    "Pilot Phone ": phone
type File struct {
	Team   Section `yaml:"team"`
	Member Section `yaml:"member"`
}

// Section holds the mandatory and optional mappings of one level.
type Section struct {
	Mandatory *Mapping `yaml:"mandatory"`
	Optional  *Mapping `yaml:"optional"`
}

// UnmarshalYAML decodes a YAML mapping node into entries, keeping the
// key order of the document.
func (m *Mapping) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return eris.Errorf("mapping: line %d: expected a map of field: target", node.Line)
	}

	out := make(Mapping, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return eris.Errorf("mapping: line %d: field and target must be strings", k.Line)
		}
		t, err := ParseTarget(v.Value)
		if err != nil {
			return eris.Wrapf(err, "mapping: line %d", v.Line)
		}
		out, err = out.with(k.Value, t)
		if err != nil {
			return eris.Wrapf(err, "mapping: line %d", k.Line)
		}
	}
	*m = out
	return nil
}

// MarshalYAML encodes entries as an ordered YAML map.
func (m Mapping) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range m {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Field},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Target.String()},
		)
	}
	return node, nil
}

// Parse decodes mapping YAML and overlays it on the defaults.
func Parse(data []byte) (Set, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Set{}, eris.Wrap(err, "mapping: parse yaml")
	}
	return f.Apply(Default()), nil
}

// LoadFile reads and parses a mapping file. An empty path returns the
// built-in defaults.
func LoadFile(path string) (Set, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, eris.Wrapf(err, "mapping: read file %s", path)
	}
	return Parse(data)
}

// Apply overlays the sections present in f onto base.
func (f File) Apply(base Set) Set {
	if f.Team.Mandatory != nil {
		base.TeamMandatory = *f.Team.Mandatory
	}
	if f.Team.Optional != nil {
		base.TeamOptional = *f.Team.Optional
	}
	if f.Member.Mandatory != nil {
		base.MemberMandatory = *f.Member.Mandatory
	}
	if f.Member.Optional != nil {
		base.MemberOptional = *f.Member.Optional
	}
	return base
}

// Marshal renders a Set in the File layout.
func Marshal(s Set) ([]byte, error) {
	f := File{
		Team:   Section{Mandatory: &s.TeamMandatory, Optional: &s.TeamOptional},
		Member: Section{Mandatory: &s.MemberMandatory, Optional: &s.MemberOptional},
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, eris.Wrap(err, "mapping: marshal yaml")
	}
	return data, nil
}
