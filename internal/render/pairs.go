// Package render substitutes replacement values into SVG templates.
package render

import (
	"fmt"
	"sort"
	"strings"
)

// Replacements maps placeholder names to their substituted text.
type Replacements map[string]string

// PairError reports a replacement token that is not a single name:value pair.
type PairError struct {
	Token string
}

func (e *PairError) Error() string {
	return fmt.Sprintf("wrong format of replacement pair %q, expected name:value", e.Token)
}

// ParsePairs builds a replacement set from name:value tokens. A token must
// contain exactly one colon. Later tokens override earlier ones.
func ParsePairs(tokens []string) (Replacements, error) {
	repl := make(Replacements, len(tokens))
	for _, token := range tokens {
		if strings.Count(token, ":") != 1 {
			return nil, &PairError{Token: token}
		}

		name, value, _ := strings.Cut(token, ":")
		repl[name] = value
	}

	return repl, nil
}

// Merge returns a new set holding base overridden by each of overrides in turn.
func Merge(base Replacements, overrides ...Replacements) Replacements {
	out := make(Replacements, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, o := range overrides {
		for k, v := range o {
			out[k] = v
		}
	}

	return out
}

// Names returns the sorted placeholder names of the set.
func (r Replacements) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
