package registration

import (
	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/mapping"
)

// Discriminator names the optional column that tells a single-pilot
// registration from a team registration. Only Single changes the team
// size; a value matching neither Single nor Team is treated as a team
// registration and logged.
type Discriminator struct {
	Field  string `json:"field" yaml:"field" mapstructure:"field"`
	Single string `json:"single" yaml:"single" mapstructure:"single"`
	Team   string `json:"team" yaml:"team" mapstructure:"team"`
}

// Normalized discriminator values written back into the row so a mapping
// can carry them into attributes (e.g. attributes:solo_mode).
const (
	SoloModeOn  = "1"
	SoloModeOff = "0"
)

// DefaultDiscriminator matches the Contact Form 7 registration export.
func DefaultDiscriminator() Discriminator {
	return Discriminator{
		Field:  "registertype",
		Single: "as a singlepilot",
		Team:   "as a teampilot",
	}
}

// Config controls one Flatten call.
type Config struct {
	Mappings             mapping.Set
	MaxTeamSize          int
	ReportOptionalErrors bool
	Discriminator        Discriminator
}

// DefaultConfig returns the built-in mappings with two pilots per team.
func DefaultConfig() Config {
	return Config{
		Mappings:      mapping.Default(),
		MaxTeamSize:   2,
		Discriminator: DefaultDiscriminator(),
	}
}

// Result is the output of Flatten. Errors holds at most one entry per row.
type Result struct {
	Records []Record   `json:"records"`
	Errors  []RowError `json:"errors"`
}

// Flatten validates each row and emits one record per complete member
// slot. Rows are independent of each other.
func Flatten(rows []Row, cfg Config) Result {
	var res Result
	for i, row := range rows {
		records, rowErr := flattenRow(i, row, cfg)
		res.Records = append(res.Records, records...)
		if rowErr != nil {
			res.Errors = append(res.Errors, *rowErr)
		}
	}
	return res
}

func flattenRow(index int, row Row, cfg Config) ([]Record, *RowError) {
	var mandatoryErrs, optionalErrs []FieldError

	work, size := resolveTeamSize(row, cfg)

	var records []Record
	base := NewRecord()
	if ValidateFields(work, cfg.Mappings.TeamMandatory, &base, &mandatoryErrs, true, 0) {
		ValidateFields(work, cfg.Mappings.TeamOptional, &base, &optionalErrs, false, 0)

		for slot := 1; slot <= size; slot++ {
			member := base.Clone()
			if !ValidateFields(work, cfg.Mappings.MemberMandatory, &member, &mandatoryErrs, true, slot) {
				continue
			}
			ValidateFields(work, cfg.Mappings.MemberOptional, &member, &optionalErrs, false, slot)
			records = append(records, member)
		}
	}

	errs := mandatoryErrs
	if cfg.ReportOptionalErrors {
		errs = append(errs, optionalErrs...)
	}
	if len(errs) == 0 {
		return records, nil
	}
	return records, &RowError{Index: index, Row: row, Errors: errs}
}

// resolveTeamSize decides how many member slots the row has. When the
// discriminator is present the returned row is a copy with the
// discriminator rewritten to SoloModeOn/SoloModeOff.
func resolveTeamSize(row Row, cfg Config) (Row, int) {
	size := cfg.MaxTeamSize
	if size <= 0 {
		size = 1
	}

	d := cfg.Discriminator
	if d.Field == "" {
		return row, size
	}
	value, ok := row[d.Field]
	if !ok {
		return row, size
	}

	work := make(Row, len(row))
	for k, v := range row {
		work[k] = v
	}
	if value == d.Single {
		work[d.Field] = SoloModeOn
		return work, 1
	}
	if d.Team != "" && value != d.Team {
		zap.L().Warn("unknown registration type, treating as team",
			zap.String("field", d.Field),
			zap.String("value", value),
		)
	}
	work[d.Field] = SoloModeOff
	return work, size
}
