package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/upb/clearpath-assistant/app"
	"github.com/upb/clearpath-assistant/routes"
	"github.com/upb/clearpath-assistant/services/eval"
)

func runServe(ctx context.Context) error {
	cfg, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	logger.Info("starting clearpath assistant",
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
		zap.String("address", cfg.Server.Address()),
	)

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer closeDependencies(deps, logger)

	if err := deps.LoadPipeline(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func runIngest(ctx context.Context, out io.Writer, docsDir string) error {
	cfg, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	if docsDir == "" {
		docsDir = cfg.Corpus.DocsDir
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer closeDependencies(deps, logger)

	result, err := deps.NewIngestService().IngestDir(ctx, docsDir)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", docsDir, err)
	}

	fmt.Fprintf(out, "Ingested %d documents into %d passages (dimension %d) in %s\n",
		result.Documents, result.Passages, result.Dimension, result.Duration.Round(time.Millisecond))
	return nil
}

func runEval(ctx context.Context, out io.Writer, casesPath string) error {
	cfg, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	if casesPath == "" {
		casesPath = cfg.Eval.CasesFile
	}

	cases, err := eval.LoadCases(casesPath)
	if err != nil {
		return err
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer closeDependencies(deps, logger)

	if err := deps.LoadPipeline(ctx); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := deps.NewEvalRunner(out).Run(ctx, cases)
	if err != nil {
		return err
	}
	if report.Passed < report.Total {
		return fmt.Errorf("%d of %d cases failed", report.Total-report.Passed, report.Total)
	}
	return nil
}

func closeDependencies(deps *app.Dependencies, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := deps.Close(ctx); err != nil {
		logger.Warn("error closing dependencies", zap.Error(err))
	}
}
