package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS pilots (
	id         TEXT PRIMARY KEY,
	callsign   TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	phonetic   TEXT NOT NULL DEFAULT '',
	team       TEXT NOT NULL DEFAULT '',
	color      TEXT NOT NULL DEFAULT '',
	attributes TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_pilots_team ON pilots(team);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const pilotColumns = `id, callsign, name, phonetic, team, color, attributes, created_at, updated_at`

func (s *SQLiteStore) FindByCallsign(ctx context.Context, callsign string) (*Pilot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pilotColumns+` FROM pilots WHERE callsign = ?`,
		callsign,
	)
	p, err := scanPilot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find pilot %q", callsign)
	}
	return p, nil
}

func (s *SQLiteStore) Create(ctx context.Context, fields map[string]string) (*Pilot, error) {
	p, err := newPilot(fields)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pilots (`+pilotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Callsign, p.Name, p.Phonetic, p.Team, p.Color, "{}", p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert pilot %q", p.Callsign)
	}
	return p, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, fields map[string]string, attrs map[string]string) (*Pilot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	p, err := scanPilot(tx.QueryRowContext(ctx, `SELECT `+pilotColumns+` FROM pilots WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: update pilot %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load pilot %s", id)
	}

	if err := p.apply(fields, attrs); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()

	attrsJSON, err := marshalAttributes(p.Attributes)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE pilots SET callsign = ?, name = ?, phonetic = ?, team = ?, color = ?, attributes = ?, updated_at = ? WHERE id = ?`,
		p.Callsign, p.Name, p.Phonetic, p.Team, p.Color, string(attrsJSON), p.UpdatedAt, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update pilot %s", id)
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit update")
	}
	return p, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Pilot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pilotColumns+` FROM pilots ORDER BY team, callsign`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pilots")
	}
	defer rows.Close()

	var pilots []Pilot
	for rows.Next() {
		p, err := scanPilot(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pilot")
		}
		pilots = append(pilots, *p)
	}
	return pilots, eris.Wrap(rows.Err(), "sqlite: list pilots iterate")
}

func (s *SQLiteStore) Reset(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pilots`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: reset pilots")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

// scanPilot returns the scan error unwrapped so callers can test for
// sql.ErrNoRows.
func scanPilot(row scannable) (*Pilot, error) {
	var p Pilot
	var attrsJSON string
	if err := row.Scan(&p.ID, &p.Callsign, &p.Name, &p.Phonetic, &p.Team, &p.Color, &attrsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalAttributes([]byte(attrsJSON), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func newPilot(fields map[string]string) (*Pilot, error) {
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	if fields[FieldCallsign] == "" {
		return nil, eris.New("roster: callsign is required")
	}
	now := time.Now().UTC()
	p := &Pilot{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	if err := p.apply(fields, nil); err != nil {
		return nil, err
	}
	return p, nil
}

func marshalAttributes(attrs map[string]string) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	data, err := json.Marshal(attrs)
	return data, eris.Wrap(err, "roster: marshal attributes")
}

func unmarshalAttributes(data []byte, p *Pilot) error {
	if len(data) == 0 {
		return nil
	}
	var attrs map[string]string
	if err := json.Unmarshal(data, &attrs); err != nil {
		return eris.Wrap(err, "roster: unmarshal attributes")
	}
	if len(attrs) > 0 {
		p.Attributes = attrs
	}
	return nil
}
