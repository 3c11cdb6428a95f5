package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/supreme-chatbot/internal/config"
	"github.com/zhouzirui/supreme-chatbot/internal/handler"
	"github.com/zhouzirui/supreme-chatbot/internal/model/persona"
	"github.com/zhouzirui/supreme-chatbot/internal/service/ai"
	"github.com/zhouzirui/supreme-chatbot/internal/service/companion"
	"github.com/zhouzirui/supreme-chatbot/pkg/logging"
	"github.com/zhouzirui/supreme-chatbot/pkg/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.Setup("info", os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.Setup(cfg.LogLevel, os.Stderr)
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("no .env file, using system environment only")
	}

	responder, err := newResponder(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize companion")
	}

	router := handler.NewCompanionRouter(responder, logger)
	srv := server.New(cfg.Server.Addr, router)

	logger.Info().Msg("Supreme Chatbot companion backend starting")
	if err := server.Run(ctx, srv, logger); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// newResponder 根据配置选择大模型回复或启发式回复
func newResponder(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (companion.Responder, error) {
	fallback := companion.NewFallback()

	if !cfg.AI.Enabled() {
		logger.Info().Msg("Ark credentials not configured, answering with heuristic replies")
		return fallback, nil
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err == nil {
		var svc *ai.Service
		svc, err = ai.NewService(ctx, chatModel, persona.Supreme(), cfg.Companion.HistoryLimit, logger)
		if err == nil {
			logger.Info().Str("model", cfg.AI.Model).Msg("AI service initialized")
			if !cfg.Companion.FallbackEnabled {
				return svc, nil
			}
			return companion.WithFallback(svc, fallback, logger), nil
		}
	}

	if !cfg.Companion.FallbackEnabled {
		return nil, err
	}
	logger.Warn().Err(err).Msg("AI service unavailable, answering with heuristic replies")
	return fallback, nil
}
