package roster

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Entry is one imported pilot: flat pilot fields plus attributes.
type Entry struct {
	Fields     map[string]string
	Attributes map[string]string
}

// Summary counts what a reconciliation did.
type Summary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	// Skipped counts entries whose callsign was blank after trimming.
	Skipped int `json:"skipped,omitempty"`
}

// Reconciler upserts entries into a Store using the callsign as key.
type Reconciler struct {
	store       Store
	defaultTeam string
}

// NewReconciler creates a Reconciler. defaultTeam is assigned to newly
// created pilots whose entry carries no team.
func NewReconciler(store Store, defaultTeam string) *Reconciler {
	return &Reconciler{store: store, defaultTeam: defaultTeam}
}

// Apply updates pilots whose callsign already exists and creates the rest.
// Entries are applied in order, so a repeated callsign updates the pilot
// created by an earlier entry.
func (r *Reconciler) Apply(ctx context.Context, entries []Entry) (Summary, error) {
	var sum Summary
	for _, e := range entries {
		callsign := e.Fields[FieldCallsign]
		if callsign == "" {
			sum.Skipped++
			zap.L().Warn("skipping pilot without callsign", zap.String("name", e.Fields[FieldName]))
			continue
		}

		existing, err := r.store.FindByCallsign(ctx, callsign)
		if err != nil {
			return sum, eris.Wrap(err, "roster: reconcile")
		}

		if existing != nil {
			if _, err := r.store.Update(ctx, existing.ID, e.Fields, e.Attributes); err != nil {
				return sum, eris.Wrapf(err, "roster: reconcile: update %q", callsign)
			}
			sum.Updated++
			zap.L().Debug("pilot updated", zap.String("callsign", callsign), zap.String("id", existing.ID))
			continue
		}

		fields := make(map[string]string, len(e.Fields)+1)
		for k, v := range e.Fields {
			fields[k] = v
		}
		// TODO: place the pilot in the team of an existing pilot with the
		// same attributes.team_callsign instead of the default team.
		if fields[FieldTeam] == "" && r.defaultTeam != "" {
			fields[FieldTeam] = r.defaultTeam
		}

		created, err := r.store.Create(ctx, fields)
		if err != nil {
			return sum, eris.Wrapf(err, "roster: reconcile: create %q", callsign)
		}
		if len(e.Attributes) > 0 {
			if _, err := r.store.Update(ctx, created.ID, nil, e.Attributes); err != nil {
				return sum, eris.Wrapf(err, "roster: reconcile: set attributes %q", callsign)
			}
		}
		sum.Created++
		zap.L().Debug("pilot created", zap.String("callsign", callsign), zap.String("id", created.ID))
	}
	return sum, nil
}
