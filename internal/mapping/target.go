// Package mapping describes how external registration fields map onto
// pilot record fields.
package mapping

import (
	"strings"

	"github.com/rotisserie/eris"
)

// AttributesNamespace is the only namespace a target may reference.
const AttributesNamespace = "attributes"

// Target is where a mapped value lands in a record: either a direct field
// (Namespace empty) or a key inside a namespaced sub-map.
type Target struct {
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
}

// Direct returns a target for a top-level record field.
func Direct(name string) Target {
	return Target{Name: name}
}

// Namespaced returns a target for a key inside the given namespace.
func Namespaced(namespace, name string) Target {
	return Target{Namespace: namespace, Name: name}
}

// IsNamespaced reports whether the value belongs in a sub-map.
func (t Target) IsNamespaced() bool {
	return t.Namespace != ""
}

func (t Target) String() string {
	if t.IsNamespaced() {
		return t.Namespace + ":" + t.Name
	}
	return t.Name
}

// ParseTarget parses a target descriptor such as "callsign" or
// "attributes:solo_mode".
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, eris.New("mapping: empty target")
	}

	ns, name, found := strings.Cut(s, ":")
	if !found {
		if s == AttributesNamespace {
			return Target{}, eris.Errorf("mapping: target %q needs an attribute name (%s:<name>)", s, AttributesNamespace)
		}
		return Direct(s), nil
	}
	if ns != AttributesNamespace {
		return Target{}, eris.Errorf("mapping: unknown namespace %q in target %q", ns, s)
	}
	if name == "" {
		return Target{}, eris.Errorf("mapping: empty attribute name in target %q", s)
	}
	return Namespaced(ns, name), nil
}
