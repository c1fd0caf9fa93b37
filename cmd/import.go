package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/roster-cli/internal/decode"
	"github.com/sells-group/roster-cli/internal/importer"
	"github.com/sells-group/roster-cli/internal/mapping"
	"github.com/sells-group/roster-cli/internal/roster"
	"github.com/sells-group/roster-cli/internal/source"
)

var (
	importFiles                []string
	importMaxTeamSize          int
	importReportOptionalErrors bool
	importReset                bool
	importDryRun               bool
	importFormat               string
	importMapping              string
	importSheet                string
	importCharset              string
)

// maxConcurrentLoads bounds parallel downloads when several files are given.
const maxConcurrentLoads = 4

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import registration exports into the roster",
	Long: "Loads one or more registration exports (local path, http(s) or ftp URL), " +
		"validates every row, flattens team registrations into one record per pilot " +
		"and upserts the valid records by callsign.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if len(importFiles) == 0 {
			return eris.New("at least one --file is required")
		}

		opts, err := importOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		payloads, err := loadPayloads(ctx, importFiles)
		if err != nil {
			return err
		}

		var st roster.Store
		if !opts.DryRun {
			st, err = openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		im := importer.New(st, importer.NewZapNotifier(nil))
		var failed []string
		for i, location := range importFiles {
			fileOpts := opts
			fileOpts.Decode.Format = formatFor(location, opts.Decode.Format, cmd.Flags().Changed("format"))
			// Only the first file may reset the roster; later files add to it.
			fileOpts.ResetStore = opts.ResetStore && i == 0

			start := time.Now()
			res, err := im.Import(ctx, payloads[i], fileOpts)
			if res != nil {
				formatImportResult(os.Stdout, location, res)
			}
			if err != nil {
				zap.L().Error("import failed", zap.String("file", location), zap.Error(err))
				failed = append(failed, location)
				continue
			}
			zap.L().Info("import complete",
				zap.String("file", location),
				zap.Int("valid", res.Valid()),
				zap.Int("errors", len(res.Errors)),
				zap.Int("created", res.Summary.Created),
				zap.Int("updated", res.Summary.Updated),
				zap.Duration("elapsed", time.Since(start)),
			)
		}

		if len(failed) > 0 {
			return eris.Errorf("import failed for %s", strings.Join(failed, ", "))
		}
		return nil
	},
}

// importOptionsFromFlags starts from the configuration and applies every
// flag the user set explicitly.
func importOptionsFromFlags(cmd *cobra.Command) (importer.Options, error) {
	ic := cfg.Import
	flags := cmd.Flags()
	if flags.Changed("mapping") {
		ic.MappingFile = importMapping
	}
	if flags.Changed("format") {
		ic.Format = importFormat
	}

	opts, err := baseImportOptions(ic)
	if err != nil {
		return opts, err
	}

	if flags.Changed("max-teamsize") {
		if importMaxTeamSize < 1 {
			return opts, eris.Errorf("--max-teamsize must be >= 1, got %d", importMaxTeamSize)
		}
		opts.Flatten.MaxTeamSize = importMaxTeamSize
	}
	if flags.Changed("report-optional-errors") {
		opts.Flatten.ReportOptionalErrors = importReportOptionalErrors
	}
	if flags.Changed("reset") {
		opts.ResetStore = importReset
	}
	if flags.Changed("sheet") {
		opts.Decode.Sheet = importSheet
	}
	if flags.Changed("charset") {
		opts.Decode.Charset = importCharset
	}
	opts.DryRun = importDryRun
	return opts, nil
}

func newSourceLoader() *source.Loader {
	return source.NewLoader(source.Options{
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
		RatePerSec: cfg.Fetch.RatePerSec,
	})
}

// loadPayloads fetches every location concurrently, keeping input order.
func loadPayloads(ctx context.Context, locations []string) ([][]byte, error) {
	loader := newSourceLoader()
	payloads := make([][]byte, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, loc := range locations {
		g.Go(func() error {
			data, err := loader.Load(gctx, loc)
			if err != nil {
				return err
			}
			payloads[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "load registration files")
	}
	return payloads, nil
}

// formatFor picks the payload format. An explicit --format wins; otherwise a
// known file extension, then the configured default.
func formatFor(location string, fallback decode.Format, explicit bool) decode.Format {
	if explicit {
		return fallback
	}
	p := location
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if ext := path.Ext(p); ext != "" {
		if f, err := decode.ParseFormat(ext); err == nil {
			return f
		}
	}
	return fallback
}

func formatImportResult(out io.Writer, location string, res *importer.Result) {
	if !res.OK {
		_, _ = fmt.Fprintf(out, "%s: unable to import file\n", location)
		return
	}

	_, _ = fmt.Fprintf(out, "%s: %d valid pilots, %d rows with errors, %d created, %d updated\n",
		location, res.Valid(), len(res.Errors), res.Summary.Created, res.Summary.Updated)

	if len(res.Records) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CALLSIGN\tNAME\tTEAM\tATTRIBUTES")
		_, _ = fmt.Fprintln(w, "--------\t----\t----\t----------")
		for _, rec := range res.Records {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				rec.Get(roster.FieldCallsign),
				rec.Get(roster.FieldName),
				rec.Get(roster.FieldTeam),
				formatAttributes(rec.Attributes),
			)
		}
		_ = w.Flush()
	}

	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(out, "  row %d: %s\n", e.Index+1, strings.Join(e.Messages(), ", "))
	}
}

func formatAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attrs))
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		parts = append(parts, mapping.Namespaced(mapping.AttributesNamespace, k).String()+"="+attrs[k])
	}
	return strings.Join(parts, " ")
}

func init() {
	importCmd.Flags().StringArrayVar(&importFiles, "file", nil, "registration export to import: path, http(s) or ftp URL (repeatable)")
	importCmd.Flags().IntVar(&importMaxTeamSize, "max-teamsize", 0, "maximum pilots per team registration (default from config)")
	importCmd.Flags().BoolVar(&importReportOptionalErrors, "report-optional-errors", false, "also report missing or empty optional fields")
	importCmd.Flags().BoolVar(&importReset, "reset", false, "remove all pilots before importing")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate and report without writing to the roster")
	importCmd.Flags().StringVar(&importFormat, "format", "", "payload format: csv or xlsx (default from file extension, then config)")
	importCmd.Flags().StringVar(&importMapping, "mapping", "", "YAML mapping file overriding the built-in field mappings")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	importCmd.Flags().StringVar(&importCharset, "charset", "", "payload charset, e.g. windows-1252 (default from config)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
