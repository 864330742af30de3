// Command shopassist runs the conversational shopping assistant server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopassist/pkg/approval"
	"shopassist/pkg/commerce"
	"shopassist/pkg/config"
	"shopassist/pkg/httpapi"
	"shopassist/pkg/knowledge"
	"shopassist/pkg/llm/clients"
	"shopassist/pkg/logx"
	"shopassist/pkg/metrics"
	"shopassist/pkg/orchestrator"
	"shopassist/pkg/persistence"
	"shopassist/pkg/tools"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "shopassist: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Debug {
		logx.SetDebug(true)
	}
	logger := logx.NewLogger("shopassist")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := commerce.Open(cfg.Commerce.Path)
	if err != nil {
		return fmt.Errorf("failed to open commerce database: %w", err)
	}
	defer svc.Close()
	if err := svc.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	kb, err := knowledge.Open(cfg.Knowledge.Path)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()
	if err := kb.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed knowledge base: %w", err)
	}

	store, err := persistence.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	client, err := clients.New(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	logger.Info("using %s via %s", client.GetModelName(), cfg.LLM.Provider)

	approvals := approval.NewManager()
	recorder := metrics.NewRecorder()
	registry := tools.NewCommerceRegistry(svc, kb, cfg.Knowledge.TokenBudget)

	orch := orchestrator.New(orchestrator.Options{
		Store:     store,
		Registry:  registry,
		Client:    client,
		Commerce:  svc,
		Approvals: approvals,
		Recorder:  recorder,
		Config:    cfg,
	})

	server := httpapi.NewServer(cfg.Server.Addr, orch, store, approvals, recorder)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
