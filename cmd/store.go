package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/db"
	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/ward"
)

// openWardStore opens the configured ward store. For postgres the
// connection is verified before returning.
func openWardStore(ctx context.Context) (ward.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		st, err := ward.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := ward.NewPostgres(ctx, cfg.Store.DatabaseURL, &db.PoolConfig{MaxConns: cfg.Store.MaxConns})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
