package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Executors ExecutorList    `yaml:"executors"`
	Execution ExecutionConfig `yaml:"execution"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ExecutorConfig is one executor's block from the config file. Settings is
// the opaque source-specific mapping under the "config" key.
type ExecutorConfig struct {
	Name     string
	Enabled  bool
	Settings map[string]interface{}
}

// ExecutorList preserves the declaration order of the executors mapping.
// Sequential runs and result ordering depend on it.
type ExecutorList []ExecutorConfig

func (l *ExecutorList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("executors must be a mapping, got %s", value.Tag)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("invalid executor key: %w", err)
		}

		var block struct {
			Enabled  bool                   `yaml:"enabled"`
			Settings map[string]interface{} `yaml:"config"`
		}
		if err := value.Content[i+1].Decode(&block); err != nil {
			return fmt.Errorf("invalid executor block %q: %w", name, err)
		}

		*l = append(*l, ExecutorConfig{
			Name:     name,
			Enabled:  block.Enabled,
			Settings: block.Settings,
		})
	}

	return nil
}

type ExecutionConfig struct {
	Parallel    bool   `yaml:"parallel"`
	Timeout     string `yaml:"timeout"`
	Retries     int    `yaml:"retries"`
	OutputDir   string `yaml:"output_dir"`
	LogLevel    string `yaml:"log_level"`
	SaveResults bool   `yaml:"save_results"`
}

func (e ExecutionConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// StorageConfig selects the optional run-history backend. An empty type
// disables storage entirely.
type StorageConfig struct {
	Type     string                 `yaml:"type"`
	Path     string                 `yaml:"path"`
	Settings map[string]interface{} `yaml:"settings"`
}

func (s StorageConfig) Enabled() bool {
	return s.Type != ""
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	config := &Config{
		Execution: ExecutionConfig{
			Parallel:    true,
			Timeout:     "60s",
			Retries:     2,
			OutputDir:   "./outputs",
			LogLevel:    "info",
			SaveResults: true,
		},
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if len(config.Executors) == 0 {
		return fmt.Errorf("no executors configured")
	}

	if config.Execution.Timeout == "" {
		config.Execution.Timeout = "60s"
	}

	if _, err := time.ParseDuration(config.Execution.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	if config.Execution.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}

	if config.Execution.OutputDir == "" {
		config.Execution.OutputDir = "./outputs"
	}

	if config.Execution.LogLevel == "" {
		config.Execution.LogLevel = "info"
	}

	if config.Storage.Enabled() && config.Storage.Type != "sqlite" && config.Storage.Type != "redis" {
		return fmt.Errorf("unsupported storage type: %s", config.Storage.Type)
	}

	if config.Storage.Type == "sqlite" && config.Storage.Path == "" {
		config.Storage.Path = "./researchflow.db"
	}

	return nil
}

// LogLevel maps the configured level string onto slog's levels.
func (c *Config) LogLevel() slog.Level {
	switch c.Execution.LogLevel {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "warning", "WARN", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func GetString(settings map[string]interface{}, key string, defaultValue string) string {
	if val, ok := settings[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return defaultValue
}

func GetInt(settings map[string]interface{}, key string, defaultValue int) int {
	if val, ok := settings[key]; ok {
		switch i := val.(type) {
		case int:
			return i
		case int64:
			return int(i)
		case float64:
			return int(i)
		}
	}
	return defaultValue
}

func GetBool(settings map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := settings[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return defaultValue
}

func GetStringSlice(settings map[string]interface{}, key string) []string {
	if val, ok := settings[key]; ok {
		if arr, ok := val.([]interface{}); ok {
			result := make([]string, 0, len(arr))
			for _, item := range arr {
				if str, ok := item.(string); ok {
					result = append(result, str)
				}
			}
			return result
		}
	}
	return []string{}
}

func GetDuration(settings map[string]interface{}, key string, defaultValue time.Duration) time.Duration {
	if val, ok := settings[key]; ok {
		if str, ok := val.(string); ok {
			if d, err := time.ParseDuration(str); err == nil {
				return d
			}
		}
	}
	return defaultValue
}
