// Command missionctl runs the Mission Control backend: a conversational
// operations assistant with programmatic tool calling over the company's
// operational data.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/structuredai/missionctl/chatloop"
	"github.com/structuredai/missionctl/config"
	"github.com/structuredai/missionctl/httpapi"
	"github.com/structuredai/missionctl/llm"
	"github.com/structuredai/missionctl/opstools"
	"github.com/structuredai/missionctl/store"
)

func main() {
	logger := log.New(os.Stderr, "missionctl ", log.LstdFlags)
	if err := run(logger); err != nil {
		logger.Fatal(err)
	}
}

func run(logger *log.Logger) error {
	cfg := config.Load()
	if cfg.APIKey == "" {
		return errors.New("ANTHROPIC_API_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	adapter, err := llm.NewGollmAdapter(cfg.Provider, cfg.APIKey,
		llm.WithModel(cfg.Model),
		llm.WithMaxTokens(cfg.MaxTokens),
	)
	if err != nil {
		return err
	}
	client := llm.NewClient(
		llm.WithProvider(cfg.Provider, adapter),
		llm.WithMiddleware(llm.RetryMiddleware(llm.DefaultRetryPolicy())),
	)
	defer client.Close()

	registry := chatloop.NewRegistry()
	opstools.RegisterAll(registry)

	loopConfig := chatloop.DefaultConfig()
	loopConfig.Model = cfg.Model
	loopConfig.MaxTokens = cfg.MaxTokens
	loopConfig.MaxIterations = cfg.MaxIterations
	loopConfig.HistoryLimit = cfg.HistoryLimit
	loop := chatloop.New(client, registry, &loopConfig)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.NewRouter(db, loop, registry, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Printf("shutting down")
	return server.Shutdown(shutdownCtx)
}
