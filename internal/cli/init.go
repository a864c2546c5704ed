// Package cli provides the start-up helpers shared by the financeflow
// commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"financeflow/internal/config"
	"financeflow/internal/log"
)

// SetupLogger builds the process logger at the given level and installs it
// as the slog default. An unknown level falls back to info and is reported.
func SetupLogger(level string, out io.Writer) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentCLI,
		Output:    out,
	})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadAndValidateConfig reads and validates the configuration.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// returned stop function releases the signal handler.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
