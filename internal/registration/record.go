// Package registration validates registration rows and flattens them into
// one record per pilot.
package registration

// Row is one decoded registration: header name to cell value.
type Row = map[string]string

// AttributesKey is the name under which namespaced values travel to the
// roster store.
const AttributesKey = "attributes"

// AllowedFields is the set of record keys the roster store accepts.
var AllowedFields = []string{"name", "callsign", "phonetic", "team", "color", AttributesKey}

// Record is the structured result for one pilot.
type Record struct {
	Fields     map[string]string `json:"fields"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// NewRecord returns an empty record ready for use.
func NewRecord() Record {
	return Record{Fields: map[string]string{}}
}

// Get returns a direct field value.
func (r Record) Get(key string) string {
	return r.Fields[key]
}

// Clone deep-copies the record so callers can mutate it independently.
func (r Record) Clone() Record {
	out := Record{Fields: make(map[string]string, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	if r.Attributes != nil {
		out.Attributes = make(map[string]string, len(r.Attributes))
		for k, v := range r.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}

// Merge copies src into r. Attributes are merged key-wise.
func (r *Record) Merge(src Record) {
	if r.Fields == nil {
		r.Fields = make(map[string]string, len(src.Fields))
	}
	for k, v := range src.Fields {
		r.Fields[k] = v
	}
	if len(src.Attributes) == 0 {
		return
	}
	if r.Attributes == nil {
		r.Attributes = make(map[string]string, len(src.Attributes))
	}
	for k, v := range src.Attributes {
		r.Attributes[k] = v
	}
}

// Filter returns a copy holding only the allowed keys. Attributes survive
// only when AttributesKey is allowed.
func (r Record) Filter(allowed []string) Record {
	keep := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		keep[k] = true
	}

	out := r.Clone()
	for k := range out.Fields {
		if !keep[k] {
			delete(out.Fields, k)
		}
	}
	if !keep[AttributesKey] {
		out.Attributes = nil
	}
	return out
}
