// Command bestiary identifies animals from observed features by forward
// chaining over the rule catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bestiary/internal/archive"
	"bestiary/internal/blob"
	"bestiary/internal/catalog"
	"bestiary/internal/classify"
	"bestiary/internal/config"
	"bestiary/internal/engine"
	"bestiary/internal/knowledge"
	"bestiary/internal/logging"
	"bestiary/internal/metrics"
	"bestiary/internal/transcript"
)

// app holds the per-invocation state built by the root PersistentPreRunE.
type app struct {
	logLevel      string
	logFormat     string
	catalogPath   string
	knowledgePath string
	strategy      string

	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	expvar   *metrics.Expvar
	service  *classify.Service
	closers  []func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	defer func() { _ = a.close() }()
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "bestiary",
		Short:         "Rule-based animal identification",
		Long:          "bestiary asserts observed features and forward-chains the rule catalog to a fixpoint, then reports the animal it identified.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), cmd.ErrOrStderr())
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (console, json)")
	flags.StringVar(&a.catalogPath, "catalog", "", "rule catalog YAML file (default: embedded Animals-10 rules)")
	flags.StringVar(&a.knowledgePath, "knowledge", "", "knowledge base YAML file (default: embedded animals)")
	flags.StringVar(&a.strategy, "strategy", "", "pass strategy (naive, indexed)")

	root.AddCommand(
		newVocabCmd(a),
		newAnimalsCmd(a),
		newRulesCmd(a),
		newKnowledgeCmd(a),
		newClassifyCmd(a),
		newInteractiveCmd(a),
		newBatchCmd(a),
		newHistoryCmd(a),
		newServeCmd(a),
	)
	return root
}

// init loads configuration, applies flag overrides and wires the service.
func (a *app) init(ctx context.Context, logOut io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if a.catalogPath != "" {
		cfg.CatalogPath = a.catalogPath
	}
	if a.knowledgePath != "" {
		cfg.KnowledgePath = a.knowledgePath
	}
	if a.strategy != "" {
		cfg.Strategy = a.strategy
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: logOut})
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	strategy, err := engine.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	kb, err := loadKnowledge(cfg.KnowledgePath)
	if err != nil {
		return err
	}

	a.registry = prometheus.NewRegistry()
	prom, err := metrics.NewPrometheus(a.registry)
	if err != nil {
		return err
	}
	a.expvar = metrics.NewExpvar("")

	opts := []classify.Option{
		classify.WithStrategy(strategy),
		classify.WithLogger(logging.Component(logger, "classify")),
		classify.WithRecorder(metrics.Multi{prom, a.expvar}),
	}

	store, err := archive.Open(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	if store != nil {
		a.closers = append(a.closers, store.Close)
		opts = append(opts, classify.WithArchive(store))
	}

	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	if blobs != nil {
		opts = append(opts, classify.WithTranscripts(transcript.NewWriter(blobs, logging.Component(logger, "transcript"))))
	}

	a.service = classify.NewService(cat, kb, opts...)
	logger.Debug("service ready",
		zap.String("strategy", string(strategy)),
		zap.Int("rules", cat.Len()),
		zap.Int("animals", kb.Len()),
		zap.String("archive", cfg.Archive.Driver),
		zap.String("blob", cfg.Blob.Driver),
	)
	return nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

func loadKnowledge(path string) (*knowledge.Base, error) {
	if path == "" {
		return knowledge.Default()
	}
	return knowledge.LoadFile(path)
}
