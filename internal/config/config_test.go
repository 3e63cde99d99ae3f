package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchflow/internal/types"
)

const sampleConfig = `
executors:
  arxiv:
    enabled: true
    config:
      categories:
        - cs.AI
        - cs.LG
      max_papers: 5
      use_mock: true
  chatgpt:
    enabled: false
    config:
      api_key: ${OPENAI_API_KEY}
      queries:
        - test query
  genspark:
    enabled: false
  twitter:
    enabled: false
  reddit:
    enabled: true
    config:
      subreddits:
        - MachineLearning
      post_limit: 10
      time_filter: day

execution:
  parallel: false
  timeout: 30s
  retries: 1
  output_dir: /tmp/researchflow-test
  log_level: debug
  save_results: false
`

func TestParsePreservesDeclarationOrder(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	names := make([]string, 0, len(cfg.Executors))
	for _, ex := range cfg.Executors {
		names = append(names, ex.Name)
	}
	assert.Equal(t, []string{"arxiv", "chatgpt", "genspark", "twitter", "reddit"}, names)
}

func TestParseExecutionSection(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.False(t, cfg.Execution.Parallel)
	assert.Equal(t, 30*time.Second, cfg.Execution.TimeoutDuration())
	assert.Equal(t, 1, cfg.Execution.Retries)
	assert.Equal(t, "/tmp/researchflow-test", cfg.Execution.OutputDir)
	assert.False(t, cfg.Execution.SaveResults)
	assert.False(t, cfg.Storage.Enabled())
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("executors:\n  arxiv:\n    enabled: true\n"))
	require.NoError(t, err)

	assert.True(t, cfg.Execution.Parallel)
	assert.Equal(t, 60*time.Second, cfg.Execution.TimeoutDuration())
	assert.Equal(t, 2, cfg.Execution.Retries)
	assert.Equal(t, "./outputs", cfg.Execution.OutputDir)
	assert.True(t, cfg.Execution.SaveResults)
}

func TestParseRejectsEmptyConfig(t *testing.T) {
	_, err := Parse([]byte("execution:\n  parallel: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no executors")
}

func TestParseRejectsBadTimeout(t *testing.T) {
	_, err := Parse([]byte("executors:\n  arxiv:\n    enabled: true\nexecution:\n  timeout: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}

func TestParseRejectsUnknownStorageType(t *testing.T) {
	_, err := Parse([]byte("executors:\n  arxiv:\n    enabled: true\nstorage:\n  type: dynamo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage type")
}

func TestResolveReturnsEnabledInOrder(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	resolved, err := Resolve(cfg)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "arxiv", resolved[0].Name)
	assert.Equal(t, "reddit", resolved[1].Name)
}

func TestResolveSubstitutesEnvPlaceholders(t *testing.T) {
	t.Setenv("RESEARCHFLOW_TEST_KEY", "secret-token")

	cfg, err := Parse([]byte(`
executors:
  genspark:
    enabled: true
    config:
      api_key: ${RESEARCHFLOW_TEST_KEY}
      keywords:
        - prefix ${RESEARCHFLOW_TEST_KEY} suffix
`))
	require.NoError(t, err)

	resolved, err := Resolve(cfg)
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	assert.Equal(t, "secret-token", GetString(resolved[0].Settings, "api_key", ""))
	assert.Equal(t, []string{"prefix secret-token suffix"}, GetStringSlice(resolved[0].Settings, "keywords"))
}

func TestResolveFailsOnMissingCredential(t *testing.T) {
	cfg, err := Parse([]byte(`
executors:
  chatgpt:
    enabled: true
    config:
      api_key: ${RESEARCHFLOW_DEFINITELY_UNSET_VAR}
`))
	require.NoError(t, err)

	_, err = Resolve(cfg)
	require.Error(t, err)
	assert.True(t, types.IsMissingCredential(err))
	assert.Contains(t, err.Error(), "RESEARCHFLOW_DEFINITELY_UNSET_VAR")
	assert.Contains(t, err.Error(), "chatgpt")
}

func TestResolveIgnoresPlaceholdersInDisabledBlocks(t *testing.T) {
	cfg, err := Parse([]byte(`
executors:
  arxiv:
    enabled: true
    config:
      use_mock: true
  chatgpt:
    enabled: false
    config:
      api_key: ${RESEARCHFLOW_DEFINITELY_UNSET_VAR}
`))
	require.NoError(t, err)

	resolved, err := Resolve(cfg)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "arxiv", resolved[0].Name)
}

func TestSettingsAccessors(t *testing.T) {
	settings := map[string]interface{}{
		"str":      "value",
		"int":      42,
		"float":    7.0,
		"bool":     true,
		"slice":    []interface{}{"a", "b"},
		"duration": "45s",
	}

	assert.Equal(t, "value", GetString(settings, "str", "fallback"))
	assert.Equal(t, "fallback", GetString(settings, "absent", "fallback"))
	assert.Equal(t, 42, GetInt(settings, "int", 0))
	assert.Equal(t, 7, GetInt(settings, "float", 0))
	assert.Equal(t, 9, GetInt(settings, "absent", 9))
	assert.True(t, GetBool(settings, "bool", false))
	assert.False(t, GetBool(settings, "absent", false))
	assert.Equal(t, []string{"a", "b"}, GetStringSlice(settings, "slice"))
	assert.Empty(t, GetStringSlice(settings, "absent"))
	assert.Equal(t, 45*time.Second, GetDuration(settings, "duration", time.Second))
	assert.Equal(t, time.Second, GetDuration(settings, "absent", time.Second))
}
