package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/supreme-chatbot/internal/config"
	"github.com/zhouzirui/supreme-chatbot/internal/handler"
	"github.com/zhouzirui/supreme-chatbot/internal/handler/widget"
	"github.com/zhouzirui/supreme-chatbot/internal/model/persona"
	"github.com/zhouzirui/supreme-chatbot/internal/service/backend"
	"github.com/zhouzirui/supreme-chatbot/internal/service/chat"
	"github.com/zhouzirui/supreme-chatbot/internal/tui"
	"github.com/zhouzirui/supreme-chatbot/pkg/logging"
	"github.com/zhouzirui/supreme-chatbot/pkg/server"
)

type flags struct {
	addr     string
	backend  string
	userID   string
	logLevel string
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "widget",
		Short:         "Supreme Chatbot chat widget",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.backend, "backend", "", "chat backend endpoint (overrides CHAT_BACKEND_URL)")
	root.PersistentFlags().StringVar(&f.userID, "user", "", "user id sent with every message (overrides CHAT_USER_ID)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the widget page over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}
	serve.Flags().StringVar(&f.addr, "addr", "", "listen address (overrides WIDGET_ADDR)")

	terminal := &cobra.Command{
		Use:   "tui",
		Short: "Run the widget in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), f)
		},
	}

	root.AddCommand(serve, terminal)
	return root
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(f flags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if f.addr != "" {
		cfg.Widget.Addr = f.addr
	}
	if f.backend != "" {
		cfg.Widget.BackendURL = f.backend
	}
	if f.userID != "" {
		cfg.Widget.UserID = f.userID
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, nil
}

func newRegistry(cfg *config.Config, logger zerolog.Logger) *chat.Registry {
	client := backend.NewClient(cfg.Widget.BackendURL, backend.WithTimeout(cfg.Widget.BackendTimeout))
	logger.Info().
		Str("backend", client.Endpoint()).
		Str("user", cfg.Widget.UserID).
		Dur("timeout", cfg.Widget.BackendTimeout).
		Msg("chat backend configured")

	return chat.NewRegistry(client, chat.Options{
		UserID: cfg.Widget.UserID,
		Logger: logger,
	})
}

func runServe(ctx context.Context, f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, os.Stderr)

	registry := newRegistry(cfg, logger)
	go registry.Expire(ctx, cfg.Widget.SessionTTL, cfg.Widget.SessionTTL/2)

	widgetHandler := widget.New(registry, persona.Supreme(), logger)
	srv := server.New(cfg.Widget.Addr, handler.NewWidgetRouter(widgetHandler, logger))

	logger.Info().Msg("Supreme Chatbot widget starting")
	return server.Run(ctx, srv, logger, widgetHandler.Wait)
}

func runTUI(ctx context.Context, f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	var out io.Writer = io.Discard
	if cfg.Widget.TUILogFile != "" {
		file, err := os.OpenFile(cfg.Widget.TUILogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer file.Close()
		out = file
	}
	logger := logging.Setup(cfg.LogLevel, out)

	conv := newRegistry(cfg, logger).Create(ctx)
	program := tea.NewProgram(tui.New(ctx, conv, persona.Supreme()), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run terminal widget: %w", err)
	}
	return nil
}
