package main

import (
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/config"
	"github.com/sells-group/roster-cli/internal/decode"
	"github.com/sells-group/roster-cli/internal/importer"
	"github.com/sells-group/roster-cli/internal/mapping"
	"github.com/sells-group/roster-cli/internal/registration"
)

// baseImportOptions turns the import configuration into importer options.
func baseImportOptions(ic config.ImportConfig) (importer.Options, error) {
	var opts importer.Options

	set, err := mapping.LoadFile(ic.MappingFile)
	if err != nil {
		return opts, eris.Wrap(err, "load mapping file")
	}

	format, err := decode.ParseFormat(ic.Format)
	if err != nil {
		return opts, err
	}

	var delim rune
	if ic.Delimiter != "" {
		if utf8.RuneCountInString(ic.Delimiter) != 1 {
			return opts, eris.Errorf("import.delimiter must be a single character, got %q", ic.Delimiter)
		}
		delim, _ = utf8.DecodeRuneInString(ic.Delimiter)
	}

	opts.Decode = decode.Options{
		Format:    format,
		Delimiter: delim,
		Charset:   ic.Charset,
		Sheet:     ic.Sheet,
	}
	opts.Flatten = registration.Config{
		Mappings:             set,
		MaxTeamSize:          ic.MaxTeamSize,
		ReportOptionalErrors: ic.ReportOptionalErrors,
		Discriminator: registration.Discriminator{
			Field:  ic.RegistrationType.Field,
			Single: ic.RegistrationType.Single,
			Team:   ic.RegistrationType.Team,
		},
	}
	opts.ResetStore = ic.ResetExistingStore
	opts.DefaultTeam = ic.DefaultTeam
	return opts, nil
}
