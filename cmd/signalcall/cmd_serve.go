package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/signalcall/internal/analysis"
	"github.com/user/signalcall/internal/api"
	"github.com/user/signalcall/internal/orchestrator"
	"github.com/user/signalcall/internal/state"
	"github.com/user/signalcall/internal/sweep"
	"github.com/user/signalcall/internal/voice"
	"github.com/user/signalcall/internal/voice/vapi"
	"github.com/user/signalcall/pkg/llm"
	"github.com/user/signalcall/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the signalcall daemon",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	store := state.NewStore()

	// Voice provider
	var provider voice.Provider
	if cfg.MockVoice {
		provider = voice.MockProvider{}
	} else {
		provider = vapi.New(&vapi.Config{
			APIKey:        cfg.Vapi.APIKey,
			PhoneNumberID: cfg.Vapi.PhoneNumberID,
			Model:         cfg.Vapi.Model,
			Voice:         cfg.Vapi.Voice,
			WebhookURL:    cfg.BaseURL + "/webhook/vapi",
		})
	}

	// Analyzer: LLM-backed when an API key is configured, heuristic otherwise.
	var analyzer analysis.Analyzer = analysis.Heuristic{}
	if cfg.LLM.APIKey != "" {
		analyzer = analysis.NewLLM(openai.New(&llm.Config{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		}))
	}

	retry := orchestrator.DefaultRetryPolicy()
	if cfg.Dial.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Dial.MaxAttempts
	}

	orch := orchestrator.New(store, provider, analyzer, int64(cfg.MaxDials), retry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch.Start(ctx)
	defer orch.Stop()

	sweeper := sweep.New(store, time.Duration(cfg.Sweep.StaleAfterMin)*time.Minute)
	if err := sweeper.Start(cfg.Sweep.Schedule); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	defer sweeper.Stop()

	server := api.NewServer(orch, provider, store)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("signalcall started",
			"port", cfg.Port,
			"base_url", cfg.BaseURL,
			"mock_voice", cfg.MockVoice,
			"max_dials", cfg.MaxDials,
			"sweep_schedule", cfg.Sweep.Schedule,
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-sigChan:
	}

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
