package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("debug", &buf)
	logger.Debug("hello")
	require.Contains(t, buf.String(), "hello")
	require.Contains(t, buf.String(), "component=cli")

	buf.Reset()
	logger = SetupLogger("chatty", &buf)
	require.Contains(t, buf.String(), "Unknown log level")
	logger.Debug("hidden")
	require.NotContains(t, buf.String(), "hidden")
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINANCEFLOW_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("FINANCEFLOW_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("FINANCEFLOW_TEST_VALUE"))

	LoadEnvFile(path)
	require.Equal(t, "from-file", os.Getenv("FINANCEFLOW_TEST_VALUE"))

	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("CREDENTIAL_BACKEND", "memory")
	t.Setenv("API_BASE_URL", "https://ledger.example.com")
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	require.Equal(t, "https://ledger.example.com", cfg.APIBaseURL)

	t.Setenv("API_BASE_URL", "ftp://nope")
	_, err = LoadAndValidateConfig()
	require.ErrorContains(t, err, "configuration validation failed")
}

func TestGracefulShutdownStop(t *testing.T) {
	var buf bytes.Buffer
	ctx, stop := GracefulShutdown(context.Background(), SetupLogger("info", &buf))
	require.NoError(t, ctx.Err())
	stop()
	<-ctx.Done()
}
