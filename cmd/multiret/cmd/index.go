package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hayatlabs/multiret/internal/config"
	"github.com/hayatlabs/multiret/internal/embed"
	"github.com/hayatlabs/multiret/internal/ingest"
	"github.com/hayatlabs/multiret/internal/output"
	"github.com/hayatlabs/multiret/internal/store"
)

func newIndexCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "index <corpus.csv>",
		Short: "Build the corpus and vector index from a CSV file",
		Long: `Reads a corpus CSV (columns: doc_id, lang, text, optional
en_translation), stores the documents, embeds every text and builds the
vector index. Re-running replaces the previous index.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), args[0], offline)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings (no Ollama required)")
	return cmd
}

func runIndex(ctx context.Context, corpusPath string, offline bool) error {
	w := output.New(os.Stdout)
	start := time.Now()

	cfg, err := config.Load(projectDir)
	if err != nil {
		w.Errorf("invalid configuration: %v", err)
		return err
	}
	if offline {
		cfg.Embeddings.Provider = embed.ProviderStatic
	}

	docs, err := ingest.ReadCSVFile(corpusPath)
	if err != nil {
		w.Errorf("cannot read corpus: %v", err)
		return err
	}
	w.Statusf("📄", "loaded %d documents from %s", len(docs), corpusPath)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("cannot create data directory %s: %w", cfg.DataDir, err)
	}

	corpus, err := store.NewCorpusStore(cfg.CorpusPath())
	if err != nil {
		w.Errorf("cannot open corpus store: %v", err)
		return err
	}
	defer func() { _ = corpus.Close() }()

	if err := corpus.ReplaceDocuments(ctx, docs); err != nil {
		w.Errorf("cannot store documents: %v", err)
		return err
	}

	embedder, err := embed.NewEmbedder(ctx, cfg.EmbedOptions())
	if err != nil {
		w.Errorf("cannot start embedder: %v", err)
		return err
	}
	defer func() { _ = embedder.Close() }()
	w.Statusf("🧠", "embedding with %s", embedder.ModelName())

	ids := make([]string, len(docs))
	vectors := make([][]float32, 0, len(docs))
	batchSize := cfg.Embeddings.BatchSize

	for i, doc := range docs {
		ids[i] = doc.DocID
	}
	for i := 0; i < len(docs); i += batchSize {
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		texts := make([]string, 0, end-i)
		for _, doc := range docs[i:end] {
			texts = append(texts, doc.Text)
		}

		batch, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			w.Newline()
			w.Errorf("embedding failed: %v", err)
			return err
		}
		vectors = append(vectors, batch...)
		w.Progress(end, len(docs), "embedding corpus")
	}

	if err := corpus.SaveEmbeddings(ctx, ids, vectors); err != nil {
		w.Errorf("cannot store embeddings: %v", err)
		return err
	}

	vecStore, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(embedder.Dimensions()))
	if err != nil {
		w.Errorf("cannot create vector index: %v", err)
		return err
	}
	defer func() { _ = vecStore.Close() }()

	if err := vecStore.Add(ctx, ids, vectors); err != nil {
		w.Errorf("cannot build vector index: %v", err)
		return err
	}
	if err := vecStore.Save(cfg.VectorIndexPath()); err != nil {
		w.Errorf("cannot save vector index: %v", err)
		return err
	}

	// Record the embedder identity so search can detect a mismatch.
	if err := corpus.SetState(ctx, store.StateKeyEmbedModel, embedder.ModelName()); err != nil {
		return err
	}
	if err := corpus.SetState(ctx, store.StateKeyEmbedDimensions, strconv.Itoa(embedder.Dimensions())); err != nil {
		return err
	}

	w.Successf("indexed %d documents in %s", len(docs), time.Since(start).Round(time.Millisecond))
	return nil
}
