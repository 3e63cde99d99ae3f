package config

import (
	"os"
	"regexp"

	"researchflow/internal/types"
)

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Resolve returns the enabled executors in declaration order with every
// ${VAR} placeholder in their settings substituted from the environment.
// An unresolved placeholder aborts resolution with a MissingCredentialError;
// placeholders inside disabled executor blocks are never evaluated.
func Resolve(config *Config) ([]ExecutorConfig, error) {
	resolved := make([]ExecutorConfig, 0, len(config.Executors))

	for _, ex := range config.Executors {
		if !ex.Enabled {
			continue
		}

		settings, err := substituteMap(ex.Settings, ex.Name)
		if err != nil {
			return nil, err
		}

		resolved = append(resolved, ExecutorConfig{
			Name:     ex.Name,
			Enabled:  true,
			Settings: settings,
		})
	}

	return resolved, nil
}

func substituteMap(settings map[string]interface{}, executor string) (map[string]interface{}, error) {
	if settings == nil {
		return map[string]interface{}{}, nil
	}

	out := make(map[string]interface{}, len(settings))
	for key, val := range settings {
		sub, err := substituteValue(val, executor)
		if err != nil {
			return nil, err
		}
		out[key] = sub
	}
	return out, nil
}

func substituteValue(val interface{}, executor string) (interface{}, error) {
	switch v := val.(type) {
	case string:
		return substituteString(v, executor)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			sub, err := substituteValue(item, executor)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	case map[string]interface{}:
		return substituteMap(v, executor)
	default:
		return val, nil
	}
}

func substituteString(s, executor string) (string, error) {
	var missing *types.MissingCredentialError

	result := placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		value, ok := os.LookupEnv(name)
		if !ok {
			if missing == nil {
				missing = types.NewMissingCredentialError(name, executor)
			}
			return match
		}
		return value
	})

	if missing != nil {
		return "", missing
	}
	return result, nil
}
