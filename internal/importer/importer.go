// Package importer runs a registration import end to end: decode the
// payload, flatten rows into pilot records and reconcile them with the
// roster.
package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/decode"
	"github.com/sells-group/roster-cli/internal/registration"
	"github.com/sells-group/roster-cli/internal/roster"
)

// Options configures one import.
type Options struct {
	Decode      decode.Options
	Flatten     registration.Config
	ResetStore  bool
	DefaultTeam string
	// DryRun validates and reports without touching the store.
	DryRun bool
}

// Result describes one import. OK is false only when the payload could
// not be decoded or parsed at all.
type Result struct {
	OK      bool                    `json:"success"`
	Records []registration.Record   `json:"records"`
	Errors  []registration.RowError `json:"errors"`
	Summary roster.Summary          `json:"summary"`
}

// Valid returns the number of records produced.
func (r *Result) Valid() int {
	return len(r.Records)
}

// Importer imports registration payloads into a roster store.
type Importer struct {
	store    roster.Store
	notifier Notifier
}

// New creates an Importer. store may be nil when only dry runs are made.
func New(store roster.Store, notifier Notifier) *Importer {
	if notifier == nil {
		notifier = NewZapNotifier(nil)
	}
	return &Importer{store: store, notifier: notifier}
}

// Import decodes payload, flattens its rows and reconciles the valid
// records with the store. A payload that cannot be decoded returns a
// Result with OK false together with the *decode.InputError.
func (im *Importer) Import(ctx context.Context, payload []byte, opts Options) (*Result, error) {
	rows, err := decode.Decode(payload, opts.Decode)
	if err != nil {
		im.notifier.Notify(fmt.Sprintf("Unable to import file: %v", err))
		return &Result{OK: false}, eris.Wrap(err, "importer: decode")
	}

	flat := registration.Flatten(rows, opts.Flatten)
	res := &Result{OK: true, Records: flat.Records, Errors: flat.Errors}

	im.notifier.Notify(fmt.Sprintf("Valid pilots in registration data: %d", res.Valid()))
	if len(res.Errors) > 0 {
		im.notifier.Notify(fmt.Sprintf("Errors during import: %s", FormatErrors(res.Errors)))
	}
	zap.L().Debug("valid registration data",
		zap.Int("rows", len(rows)),
		zap.Any("records", res.Records),
	)

	if opts.DryRun {
		return res, nil
	}
	if im.store == nil {
		return res, eris.New("importer: no roster store configured")
	}

	if opts.ResetStore {
		n, err := im.store.Reset(ctx)
		if err != nil {
			return res, eris.Wrap(err, "importer: reset store")
		}
		zap.L().Info("roster reset", zap.Int64("removed", n))
	}

	sum, err := roster.NewReconciler(im.store, opts.DefaultTeam).Apply(ctx, Entries(res.Records))
	res.Summary = sum
	if err != nil {
		return res, eris.Wrap(err, "importer: reconcile")
	}

	im.notifier.Notify(fmt.Sprintf("Imported pilots: %d created, %d updated", sum.Created, sum.Updated))
	return res, nil
}

// Entries strips every record down to the fields the roster accepts.
func Entries(records []registration.Record) []roster.Entry {
	entries := make([]roster.Entry, 0, len(records))
	for _, rec := range records {
		f := rec.Filter(registration.AllowedFields)
		entries = append(entries, roster.Entry{Fields: f.Fields, Attributes: f.Attributes})
	}
	return entries
}

// FormatErrors renders an error report as "row N: a, b; row M: c".
// Rows are numbered from 1, excluding the header.
func FormatErrors(errs []registration.RowError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = fmt.Sprintf("row %d: %s", e.Index+1, strings.Join(e.Messages(), ", "))
	}
	return strings.Join(parts, "; ")
}
