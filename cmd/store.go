package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/discgeo/discgeo/internal/store"
)

// openStore opens the configured store backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	}
	return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
}
