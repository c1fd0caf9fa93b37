// Package roster persists pilots and reconciles imported records against
// them by callsign.
package roster

import (
	"time"

	"github.com/rotisserie/eris"
)

// Pilot column names accepted by Create and Update.
const (
	FieldName     = "name"
	FieldCallsign = "callsign"
	FieldPhonetic = "phonetic"
	FieldTeam     = "team"
	FieldColor    = "color"
)

var pilotFields = map[string]bool{
	FieldName:     true,
	FieldCallsign: true,
	FieldPhonetic: true,
	FieldTeam:     true,
	FieldColor:    true,
}

// ErrNotFound is returned when a pilot ID does not exist.
var ErrNotFound = eris.New("roster: pilot not found")

// Pilot is one roster entry. Callsign is the natural key.
type Pilot struct {
	ID         string            `json:"id"`
	Callsign   string            `json:"callsign"`
	Name       string            `json:"name"`
	Phonetic   string            `json:"phonetic,omitempty"`
	Team       string            `json:"team,omitempty"`
	Color      string            `json:"color,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func checkFields(fields map[string]string) error {
	for k := range fields {
		if !pilotFields[k] {
			return eris.Errorf("roster: unknown pilot field %q", k)
		}
	}
	return nil
}

// apply sets the given fields and merges attrs into p.
func (p *Pilot) apply(fields map[string]string, attrs map[string]string) error {
	if err := checkFields(fields); err != nil {
		return err
	}
	for k, v := range fields {
		switch k {
		case FieldName:
			p.Name = v
		case FieldCallsign:
			p.Callsign = v
		case FieldPhonetic:
			p.Phonetic = v
		case FieldTeam:
			p.Team = v
		case FieldColor:
			p.Color = v
		}
	}
	if len(attrs) > 0 {
		if p.Attributes == nil {
			p.Attributes = make(map[string]string, len(attrs))
		}
		for k, v := range attrs {
			p.Attributes[k] = v
		}
	}
	return nil
}
