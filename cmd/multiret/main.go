// multiret is a hybrid multilingual retrieval CLI: BM25 lexical search
// fused with embedding-based semantic search.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hayatlabs/multiret/cmd/multiret/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
