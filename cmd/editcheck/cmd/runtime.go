package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/assistant"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/corpus"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/engine"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/metrics"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// newEngine wires the engine from cfg. The returned cleanup stops the
// corpus watcher when rules.watch is set.
func newEngine(ctx context.Context, m metrics.Metrics) (*engine.Engine, func(), error) {
	cleanup := func() {}

	var indexer corpus.Indexer = corpus.NewFreshIndexer(cfg.Rules.Root, cfg.Rules.Extensions)
	if cfg.Rules.Watch {
		watched, err := corpus.NewWatchedIndexer(cfg.Rules.Root, cfg.Rules.Extensions, logger)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to watch rule corpus: %w", err)
		}
		watched.Start(ctx)
		indexer = watched
		cleanup = func() { watched.Close() }
	}

	collaborator, err := assistant.New(cfg.LLMService(), nil, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	e, err := engine.New(indexer, collaborator, engine.Config{
		ReferenceCategories: cfg.Rules.ReferenceCategories,
		Logger:              logger,
		Metrics:             m,
	})
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	logger.Debug("engine ready",
		zap.String("rules_root", cfg.Rules.Root),
		zap.String("provider", cfg.LLM.Provider),
		zap.Bool("watch", cfg.Rules.Watch))
	return e, cleanup, nil
}

// readSubmission decodes a submission JSON file, or stdin for "-".
func readSubmission(path string, stdin io.Reader) (*types.Submission, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read submission: %w", err)
	}
	return types.DecodeSubmission(data)
}

// writeOutput encodes v as indented JSON or YAML.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (expected json or yaml)", format)
	}
}
