package render

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadVarsFile reads a YAML or JSON mapping of scalar values. JSON parses
// as YAML, so one decoder covers both.
func LoadVarsFile(path string) (Replacements, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vars file: %w", err)
	}

	return ParseVars(data)
}

// ParseVars decodes a vars document. Non-scalar values are rejected, and
// null becomes the empty string.
func ParseVars(data []byte) (Replacements, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse vars: %w", err)
	}

	repl := make(Replacements, len(raw))
	for name, value := range raw {
		s, err := scalarString(value)
		if err != nil {
			return nil, fmt.Errorf("vars entry %q: %w", name, err)
		}
		repl[name] = s
	}

	return repl, nil
}

func scalarString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("expected a scalar value, got %T", value)
	}
}
