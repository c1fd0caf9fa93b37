package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/roster-cli/internal/roster"
)

var pilotsJSON bool

var pilotsCmd = &cobra.Command{
	Use:   "pilots",
	Short: "List pilots in the roster",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pilots, err := st.List(ctx)
		if err != nil {
			return eris.Wrap(err, "pilots list")
		}

		if pilotsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(pilots)
		}
		if len(pilots) == 0 {
			fmt.Fprintln(os.Stderr, "No pilots found.")
			return nil
		}
		formatPilotsList(os.Stdout, pilots)
		return nil
	},
}

func formatPilotsList(out io.Writer, pilots []roster.Pilot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CALLSIGN\tNAME\tTEAM\tCOLOR\tATTRIBUTES\tUPDATED")
	_, _ = fmt.Fprintln(w, "--------\t----\t----\t-----\t----------\t-------")
	for _, p := range pilots {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Callsign,
			p.Name,
			p.Team,
			p.Color,
			formatAttributes(p.Attributes),
			p.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func init() {
	pilotsCmd.Flags().BoolVar(&pilotsJSON, "json", false, "print pilots as JSON")
	rootCmd.AddCommand(pilotsCmd)
}
