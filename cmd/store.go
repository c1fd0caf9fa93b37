package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/roster"
)

func initStore(ctx context.Context) (roster.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "roster.db"
		}
		return roster.NewSQLite(dsn)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("postgres store requires store.database_url (ROSTER_STORE_DATABASE_URL)")
		}
		return roster.NewPostgres(ctx, cfg.Store.DatabaseURL, &roster.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens the configured store and applies its schema.
func openStore(ctx context.Context) (roster.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
