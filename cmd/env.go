package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/provider"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/store"
	"github.com/Retzlik/Authoricy-Engine-sub001/pkg/staticprovider"
)

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, cfg.Store.SQLitePath)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// initRegistry loads fixture-backed providers and designates the primary
// source for reconciliation.
func initRegistry() (*provider.Registry, error) {
	providers, err := staticprovider.LoadDir(cfg.Providers.FixturesDir)
	if err != nil {
		return nil, eris.Wrap(err, "load providers")
	}

	reg := provider.NewRegistry(cfg.Providers.Primary)
	for _, p := range providers {
		reg.Register(p)
	}
	zap.L().Info("providers registered",
		zap.Int("count", reg.Len()),
		zap.String("primary", reg.Primary()),
	)
	return reg, nil
}
