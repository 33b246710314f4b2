package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"kiosk-assistant/internal/assistant"
	"kiosk-assistant/internal/config"
	"kiosk-assistant/internal/extract"
	"kiosk-assistant/internal/metrics"
	"kiosk-assistant/internal/server"
	"kiosk-assistant/internal/store"
	"kiosk-assistant/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, closer, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	slog.SetDefault(logger)

	err = run(cfg, logger)
	if err != nil {
		logger.Error("server stopped", "err", err)
	}
	closer.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st := store.NewMemoryStore(cfg.MaxMemoryMessages)
	m := metrics.New(reg, cfg.MetricsNamespace, func() float64 { return float64(st.Len()) })

	prompts, err := assistant.LoadPromptPack(cfg.PromptsPath)
	if err != nil {
		return err
	}
	llm, err := assistant.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	if err != nil {
		return err
	}
	chat := assistant.NewService(llm, st, prompts, assistant.NewKnowledgeBase(cfg.KnowledgeDir, cfg.KnowledgeCacheTTL), assistant.Options{
		Model:       cfg.Model,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Temperature: cfg.OpenAITemperature,
		Timeout:     cfg.OpenAITimeout,
	}, m, logger)
	extractor := extract.NewService(llm, extract.Options{Model: cfg.ExtractModel, Timeout: cfg.OpenAITimeout}, m, logger)

	deps := server.Deps{
		Store:     st,
		Chat:      chat,
		Extractor: extractor,
		Metrics:   m,
		Gatherer:  reg,
		Logger:    logger,
	}
	speech, err := tts.New(tts.Config{
		APIKey:  cfg.ElevenAPIKey,
		BaseURL: cfg.ElevenBaseURL,
		VoiceID: cfg.ElevenVoiceID,
		ModelID: cfg.ElevenModel,
		Timeout: cfg.ElevenTimeout,
	}, m, logger)
	if err != nil {
		logger.Warn("text-to-speech disabled", "err", err)
	} else {
		deps.Speech = speech
	}

	s, err := server.NewServer(cfg, deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("kiosk server listening", "addr", srv.Addr, "model", cfg.Model)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
