package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 7000, cfg.Budget.MaxTokens)
	assert.Equal(t, 6, cfg.Budget.MaxTotalSources)
	assert.Equal(t, 100, cfg.Budget.MinTailTokens)
	assert.Equal(t, 3, cfg.Research.MaxSubQuestions)
	assert.Equal(t, 3, cfg.Research.PerQueryResults)
	assert.Equal(t, 3000, cfg.Research.FindingMaxChars)
	assert.Equal(t, "gpt-4", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.LLM.RetryDelay)
	assert.Equal(t, "config/safety.yaml", cfg.Safety.TaxonomyPath)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seeker.yaml")
	data := []byte(`
server:
  addr: ":9090"
budget:
  max_tokens: 5000
llm:
  model: gpt-4o
  timeout: 30s
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5000, cfg.Budget.MaxTokens)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	// Unset keys keep defaults.
	assert.Equal(t, 6, cfg.Budget.MaxTotalSources)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "gpt-4-turbo")
	t.Setenv("LLM_TIMEOUT_SECONDS", "90")
	t.Setenv("MAX_TOTAL_SOURCES", "4")
	t.Setenv("MAX_PROMPT_TOKENS", "6000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4-turbo", cfg.LLM.Model)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 4, cfg.Budget.MaxTotalSources)
	assert.Equal(t, 6000, cfg.Budget.MaxTokens)
}

func TestEnvOverrideIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("MAX_TOTAL_SOURCES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Budget.MaxTotalSources)
}
