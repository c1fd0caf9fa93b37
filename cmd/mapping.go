package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/roster-cli/internal/mapping"
)

var (
	mappingFile     string
	mappingColumns  bool
	mappingTeamSize int
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Print the effective field mappings",
	Long: "Prints the built-in field mappings, overlaid with a mapping file when given, " +
		"in the YAML layout accepted by --mapping. With --columns, lists the export " +
		"columns an import looks up instead.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := cfg.Import.MappingFile
		if cmd.Flags().Changed("mapping") {
			path = mappingFile
		}
		set, err := mapping.LoadFile(path)
		if err != nil {
			return eris.Wrap(err, "load mapping file")
		}

		if mappingColumns {
			size := cfg.Import.MaxTeamSize
			if cmd.Flags().Changed("max-teamsize") {
				size = mappingTeamSize
			}
			if size < 1 {
				return eris.Errorf("--max-teamsize must be >= 1, got %d", size)
			}
			writeColumns(os.Stdout, set, size)
			return nil
		}

		data, err := mapping.Marshal(set)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

// writeColumns lists team columns once and member columns per slot.
func writeColumns(out io.Writer, set mapping.Set, size int) {
	for _, f := range append(set.TeamMandatory.Fields(), set.TeamOptional.Fields()...) {
		_, _ = fmt.Fprintln(out, f)
	}
	member := append(set.MemberMandatory.Fields(), set.MemberOptional.Fields()...)
	for slot := 1; slot <= size; slot++ {
		for _, f := range member {
			_, _ = fmt.Fprintln(out, f+strconv.Itoa(slot))
		}
	}
}

func init() {
	mappingCmd.Flags().StringVar(&mappingFile, "mapping", "", "YAML mapping file to overlay on the built-in mappings")
	mappingCmd.Flags().BoolVar(&mappingColumns, "columns", false, "list the looked-up export columns instead of YAML")
	mappingCmd.Flags().IntVar(&mappingTeamSize, "max-teamsize", 0, "member slots to list with --columns (default from config)")
	rootCmd.AddCommand(mappingCmd)
}
