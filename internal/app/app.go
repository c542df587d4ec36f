package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"talkdoc/internal/backend"
	"talkdoc/internal/config"
	"talkdoc/internal/session"
	"talkdoc/internal/tui"
)

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	logFile := setupLogger(cfg)
	if logFile != nil {
		defer func() {
			if err := logFile.Close(); err != nil {
				slog.Error("Failed to close log file", "error", err)
			}
		}()
	}

	client := backend.NewClient(cfg.BackendURL, cfg.APIVariant, time.Duration(cfg.RequestTimeout)*time.Second)

	// Reachability is reported, not required: the user can still browse the
	// (empty) registry and the first request will surface any real failure.
	if err := client.Health(context.Background()); err != nil {
		slog.Warn("Backend is not reachable", "url", cfg.BackendURL, "error", err)
	} else {
		slog.Info("Backend is ready", "url", cfg.BackendURL)
	}

	registry := session.NewRegistry(client)
	chat := session.NewChat(client, cfg.TopK)
	registry.OnRemoved(chat.DropSelection)
	uploader := session.NewUploader(client, registry)

	program := tea.NewProgram(tui.New(registry, uploader, chat), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		slog.Error("TUI failed", "error", err)
		return 1
	}

	return 0
}

// setupLogger configures the default slog logger. The TUI owns the
// terminal, so logs go to a file when one is configured, stderr otherwise.
// Returns the file so the caller can close it, or nil.
func setupLogger(cfg *config.Config) *os.File {
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stderr
	var logFile *os.File
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			out = f
			logFile = f
		}
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logFile
}
