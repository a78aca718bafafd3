package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/electrify-cli/internal/resilience"
	"github.com/sells-group/electrify-cli/internal/store"
)

// initStore opens the configured run ledger and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "electrify.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Store.ConnectAttempts
		retry.OnRetry = resilience.RetryLogger("postgres", "connect")
		st, err = resilience.DoVal(ctx, retry, func(ctx context.Context) (store.Store, error) {
			return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	migrate := resilience.DefaultRetryConfig()
	migrate.MaxAttempts = cfg.Store.ConnectAttempts
	migrate.OnRetry = resilience.RetryLogger(cfg.Store.Driver, "migrate")
	if err := resilience.Do(ctx, migrate, st.Migrate); err != nil {
		st.Close() //nolint:errcheck,gosec
		return nil, err
	}
	return st, nil
}
