package api

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/decode"
	"github.com/sells-group/roster-cli/internal/importer"
	"github.com/sells-group/roster-cli/internal/registration"
	"github.com/sells-group/roster-cli/internal/roster"
)

// importResponse is the body of POST /v1/imports.
type importResponse struct {
	Success  bool                    `json:"success"`
	Valid    int                     `json:"valid"`
	Records  []registration.Record   `json:"records"`
	Errors   []registration.RowError `json:"errors"`
	Created  int                     `json:"created"`
	Updated  int                     `json:"updated"`
	Messages []string                `json:"messages"`
	Error    string                  `json:"error,omitempty"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	opts, err := importOptions(s.defaults, r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	notes := &importer.Collector{}
	im := importer.New(s.store, importer.Tee(notes, importer.NewZapNotifier(nil)))
	res, err := im.Import(r.Context(), payload, opts)

	resp := importResponse{
		Success:  res != nil && res.OK,
		Messages: notes.Messages,
		Records:  []registration.Record{},
		Errors:   []registration.RowError{},
	}
	if res != nil {
		resp.Valid = res.Valid()
		if res.Records != nil {
			resp.Records = res.Records
		}
		if res.Errors != nil {
			resp.Errors = res.Errors
		}
		resp.Created = res.Summary.Created
		resp.Updated = res.Summary.Updated
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case !resp.Success:
		// The payload itself could not be read; no row was used.
		resp.Error = err.Error()
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		zap.L().Error("import failed", zap.Error(err))
		resp.Error = "import failed"
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func (s *Server) handleListPilots(w http.ResponseWriter, r *http.Request) {
	pilots, err := s.store.List(r.Context())
	if err != nil {
		zap.L().Error("list pilots", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list pilots")
		return
	}
	if pilots == nil {
		pilots = []roster.Pilot{}
	}
	writeJSON(w, http.StatusOK, pilots)
}

// importOptions applies query parameter overrides to the server defaults.
func importOptions(base importer.Options, q url.Values) (importer.Options, error) {
	opts := base

	if v := q.Get("max_teamsize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, eris.Errorf("max_teamsize must be a positive integer, got %q", v)
		}
		opts.Flatten.MaxTeamSize = n
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"report_optional_errors", &opts.Flatten.ReportOptionalErrors},
		{"reset", &opts.ResetStore},
		{"dry_run", &opts.DryRun},
	}
	for _, b := range bools {
		v := q.Get(b.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return opts, eris.Errorf("%s must be a boolean, got %q", b.key, v)
		}
		*b.dst = parsed
	}

	if v := q.Get("format"); v != "" {
		f, err := decode.ParseFormat(v)
		if err != nil {
			return opts, err
		}
		opts.Decode.Format = f
	}
	if v := q.Get("delimiter"); v != "" {
		if utf8.RuneCountInString(v) != 1 {
			return opts, eris.Errorf("delimiter must be a single character, got %q", v)
		}
		d, _ := utf8.DecodeRuneInString(v)
		opts.Decode.Delimiter = d
	}
	if v := q.Get("charset"); v != "" {
		opts.Decode.Charset = v
	}
	if v := q.Get("sheet"); v != "" {
		opts.Decode.Sheet = v
	}
	return opts, nil
}
