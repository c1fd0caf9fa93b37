package roster

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS pilots (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	callsign   TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	phonetic   TEXT NOT NULL DEFAULT '',
	team       TEXT NOT NULL DEFAULT '',
	color      TEXT NOT NULL DEFAULT '',
	attributes JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_pilots_team ON pilots(team);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) FindByCallsign(ctx context.Context, callsign string) (*Pilot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pilotColumns+` FROM pilots WHERE callsign = $1`,
		callsign,
	)
	p, err := scanPgPilot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find pilot %q", callsign)
	}
	return p, nil
}

func (s *PostgresStore) Create(ctx context.Context, fields map[string]string) (*Pilot, error) {
	p, err := newPilot(fields)
	if err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pilots (`+pilotColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Callsign, p.Name, p.Phonetic, p.Team, p.Color, "{}", p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert pilot %q", p.Callsign)
	}
	return p, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, fields map[string]string, attrs map[string]string) (*Pilot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	p, err := scanPgPilot(tx.QueryRow(ctx,
		`SELECT `+pilotColumns+` FROM pilots WHERE id = $1 FOR UPDATE`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: update pilot %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load pilot %s", id)
	}

	if err := p.apply(fields, attrs); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()

	attrsJSON, err := marshalAttributes(p.Attributes)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE pilots SET callsign = $1, name = $2, phonetic = $3, team = $4, color = $5, attributes = $6, updated_at = $7 WHERE id = $8`,
		p.Callsign, p.Name, p.Phonetic, p.Team, p.Color, string(attrsJSON), p.UpdatedAt, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update pilot %s", id)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit update")
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Pilot, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+pilotColumns+` FROM pilots ORDER BY team, callsign`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pilots")
	}
	defer rows.Close()

	var pilots []Pilot
	for rows.Next() {
		p, err := scanPgPilot(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan pilot")
		}
		pilots = append(pilots, *p)
	}
	return pilots, eris.Wrap(rows.Err(), "postgres: list pilots iterate")
}

func (s *PostgresStore) Reset(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pilots`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: reset pilots")
	}
	return tag.RowsAffected(), nil
}

func scanPgPilot(row pgx.Row) (*Pilot, error) {
	var p Pilot
	var attrsJSON []byte
	if err := row.Scan(&p.ID, &p.Callsign, &p.Name, &p.Phonetic, &p.Team, &p.Color, &attrsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalAttributes(attrsJSON, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
