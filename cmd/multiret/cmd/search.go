package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hayatlabs/multiret/internal/config"
	"github.com/hayatlabs/multiret/internal/embed"
	"github.com/hayatlabs/multiret/internal/output"
	"github.com/hayatlabs/multiret/internal/search"
	"github.com/hayatlabs/multiret/internal/store"
)

func newSearchCmd() *cobra.Command {
	var (
		mode    string
		alpha   float64
		topK    int
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the index with hybrid retrieval",
		Long: `Runs the query through the configured retrieval streams and prints the
fused ranking. Mode, alpha and top-k flags override the configuration for
this invocation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := searchOverrides{offline: offline}
			if cmd.Flags().Changed("mode") {
				overrides.mode = &mode
			}
			if cmd.Flags().Changed("alpha") {
				overrides.alpha = &alpha
			}
			if cmd.Flags().Changed("top-k") {
				overrides.topK = &topK
			}
			return runSearch(cmd.Context(), args[0], overrides)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Retrieval mode: hybrid, lexical or semantic")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "Semantic weight in [0, 1]")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of results")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings (no Ollama required)")
	return cmd
}

type searchOverrides struct {
	mode    *string
	alpha   *float64
	topK    *int
	offline bool
}

func runSearch(ctx context.Context, query string, overrides searchOverrides) error {
	w := output.New(os.Stdout)

	cfg, err := config.Load(projectDir)
	if err != nil {
		w.Errorf("invalid configuration: %v", err)
		return err
	}
	if overrides.mode != nil {
		cfg.Search.Mode = *overrides.mode
	}
	if overrides.alpha != nil {
		cfg.Search.Alpha = *overrides.alpha
	}
	if overrides.topK != nil {
		cfg.Search.TopK = *overrides.topK
	}
	if overrides.offline {
		cfg.Embeddings.Provider = embed.ProviderStatic
	}
	if err := cfg.Validate(); err != nil {
		w.Errorf("invalid configuration: %v", err)
		return err
	}

	corpus, err := store.NewCorpusStore(cfg.CorpusPath())
	if err != nil {
		w.Errorf("no index found, run 'multiret index' first: %v", err)
		return err
	}
	defer func() { _ = corpus.Close() }()

	docs, err := corpus.AllDocuments(ctx)
	if err != nil {
		w.Errorf("cannot load corpus: %v", err)
		return err
	}

	engineMode := search.Mode(cfg.Search.Mode)
	var semantic search.SemanticSearcher
	if engineMode != search.ModeLexical {
		semantic, err = buildSemanticSearcher(ctx, cfg, corpus, w)
		if err != nil {
			return err
		}
	}

	engine, err := search.NewEngine(semantic, corpus, cfg.EngineConfig(), slog.Default())
	if err != nil {
		w.Errorf("cannot start engine: %v", err)
		return err
	}
	if err := engine.Rebuild(docs, cfg.IndexConfig()); err != nil {
		w.Errorf("cannot build lexical index: %v", err)
		return err
	}

	resp, err := engine.Search(ctx, query)
	if err != nil {
		w.Errorf("search failed: %v", err)
		return err
	}

	if resp.Degraded {
		w.Warning(resp.Warning)
	}
	w.Results(resp.Results)
	return nil
}

// buildSemanticSearcher wires embedder, saved vector index and corpus
// lookup into the semantic stream. A model recorded at index time that
// differs from the configured one gets a warning: distances across models
// are meaningless.
func buildSemanticSearcher(ctx context.Context, cfg *config.Config, corpus *store.CorpusStore, w *output.Writer) (search.SemanticSearcher, error) {
	embedder, err := embed.NewEmbedder(ctx, cfg.EmbedOptions())
	if err != nil {
		w.Errorf("cannot start embedder: %v", err)
		return nil, err
	}

	if indexed, stateErr := corpus.GetState(ctx, store.StateKeyEmbedModel); stateErr == nil &&
		indexed != "" && indexed != embedder.ModelName() {
		w.Warning("index was built with model " + indexed + ", current model is " +
			embedder.ModelName() + "; run 'multiret index' to rebuild")
	}

	vecStore, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(0))
	if err != nil {
		return nil, err
	}
	if err := vecStore.Load(cfg.VectorIndexPath()); err != nil {
		w.Errorf("cannot load vector index, run 'multiret index' first: %v", err)
		return nil, err
	}

	return search.NewVectorAdapter(embedder, vecStore, corpus)
}
