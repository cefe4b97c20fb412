package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/hayatlabs/multiret/internal/config"
	"github.com/hayatlabs/multiret/internal/output"
	"github.com/hayatlabs/multiret/internal/store"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context())
		},
	}
}

func runStats(ctx context.Context) error {
	w := output.New(os.Stdout)

	cfg, err := config.Load(projectDir)
	if err != nil {
		w.Errorf("invalid configuration: %v", err)
		return err
	}

	corpus, err := store.NewCorpusStore(cfg.CorpusPath())
	if err != nil {
		w.Errorf("no index found, run 'multiret index' first: %v", err)
		return err
	}
	defer func() { _ = corpus.Close() }()

	count, err := corpus.Count(ctx)
	if err != nil {
		return err
	}

	w.Statusf("", "documents:  %d", count)
	w.Statusf("", "data dir:   %s", cfg.DataDir)
	w.Statusf("", "mode:       %s (alpha %.2f, top_k %d)", cfg.Search.Mode, cfg.Search.Alpha, cfg.Search.TopK)

	if model, err := corpus.GetState(ctx, store.StateKeyEmbedModel); err == nil && model != "" {
		dims, _ := corpus.GetState(ctx, store.StateKeyEmbedDimensions)
		w.Statusf("", "embeddings: %s (%s dimensions)", model, dims)
	}
	return nil
}
