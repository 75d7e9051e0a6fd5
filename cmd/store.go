package main

import (
	"context"

	"github.com/thinkloop-ai/procure-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}
