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

	"github.com/marginguard/marginguard/pkg/agent"
	"github.com/marginguard/marginguard/pkg/analysis"
	"github.com/marginguard/marginguard/pkg/api"
	"github.com/marginguard/marginguard/pkg/config"
	"github.com/marginguard/marginguard/pkg/dataset"
	"github.com/marginguard/marginguard/pkg/digest"
	"github.com/marginguard/marginguard/pkg/health"
	"github.com/marginguard/marginguard/pkg/logger"
	"github.com/marginguard/marginguard/pkg/notify"
	"github.com/marginguard/marginguard/pkg/providers"
	"github.com/marginguard/marginguard/pkg/tools"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "marginguard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "marginguard.json", "path to the JSON config file")
	dataDir := flag.String("data", "", "dataset directory (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.SetLevel(cfg.Log.Level)
	if *dataDir != "" {
		cfg.Dataset.Dir = *dataDir
	}

	store, err := dataset.Load(cfg.Dataset.Dir)
	if err != nil {
		return fmt.Errorf("loading dataset from %s: %w", cfg.Dataset.Dir, err)
	}
	analyzer := analysis.New(store, nil)

	mailer := notify.NewMailer(cfg.Email.APIKey, cfg.Email.APIBase, cfg.Email.From)
	registry, err := tools.DefaultRegistry(analyzer, mailer, cfg.Email.DefaultTo)
	if err != nil {
		return fmt.Errorf("building tool registry: %w", err)
	}

	var loop *agent.Loop
	if err := cfg.ValidateForChat(); err != nil {
		logger.WarnCF("main", "Chat disabled", map[string]interface{}{
			"reason": err.Error(),
		})
	} else {
		provider := providers.NewHTTPProvider(cfg.Model.APIKey, cfg.Model.APIBase, "")
		loop = agent.New(provider, registry, cfg.Model.Name, cfg.Agent.MaxRounds)
		loop.SetOptions(map[string]interface{}{
			"max_tokens":  cfg.Model.MaxTokens,
			"temperature": cfg.Model.Temperature,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Digest.Cron != "" && cfg.Email.APIKey != "" && cfg.Email.DefaultTo != "" {
		sched, err := digest.New(cfg.Digest.Cron, analyzer, mailer, cfg.Email.DefaultTo, nil)
		if err != nil {
			return fmt.Errorf("digest schedule: %w", err)
		}
		go sched.Start(ctx)
	}

	server := api.NewServer(cfg, analyzer, loop)
	if loop != nil {
		server.AddCheck("model_api", health.EndpointCheck(cfg.Model.APIBase, 5*time.Second))
	}
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoCF("main", "Server listening", map[string]interface{}{
			"addr": addr,
		})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.InfoCF("main", "Shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
