package render

import (
	"regexp"
	"strings"
)

var (
	commentRe = regexp.MustCompile(`(?s)\{#.*?#\}`)
	printRe   = regexp.MustCompile(`(?s)\{\{-?(.*?)-?\}\}`)
	tagRe     = regexp.MustCompile(`(?s)\{%-?\s*(.*?)\s*-?%\}`)
	stringRe  = regexp.MustCompile(`"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`)
	identRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// names never reported as placeholders
var reserved = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"true": true, "false": true, "True": true, "False": true,
	"none": true, "None": true, "nil": true,
	"forloop": true,
}

// Placeholders lists the root variable names referenced by print
// expressions in text, in order of first appearance. Attribute lookups,
// filter names and names bound by template tags are left out.
func Placeholders(text string) []string {
	text = commentRe.ReplaceAllString(text, "")
	bound := boundNames(text)

	var names []string
	seen := make(map[string]bool)
	for _, m := range printRe.FindAllStringSubmatch(text, -1) {
		for _, name := range expressionNames(m[1]) {
			if seen[name] || bound[name] || reserved[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}

	return names
}

// Missing returns the placeholders of text not covered by repl.
func Missing(text string, repl Replacements) []string {
	var missing []string
	for _, name := range Placeholders(text) {
		if _, ok := repl[name]; !ok {
			missing = append(missing, name)
		}
	}

	return missing
}

// expressionNames scans an expression for identifiers that start a
// variable lookup.
func expressionNames(expr string) []string {
	expr = stringRe.ReplaceAllString(expr, `""`)

	var names []string
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case isIdentStart(c):
			j := i + 1
			for j < len(expr) && isIdentPart(expr[j]) {
				j++
			}
			if !followsAccessor(expr, i) {
				names = append(names, expr[i:j])
			}
			i = j
		case isDigit(c):
			// numbers such as 1e5 must not yield "e5"
			j := i + 1
			for j < len(expr) && (isIdentPart(expr[j]) || expr[j] == '.') {
				j++
			}
			i = j
		default:
			i++
		}
	}

	return names
}

// followsAccessor reports whether the identifier at i is an attribute or
// filter name.
func followsAccessor(expr string, i int) bool {
	for k := i - 1; k >= 0; k-- {
		switch expr[k] {
		case ' ', '\t', '\n', '\r':
			continue
		case '.', '|':
			return true
		}
		return false
	}

	return false
}

// boundNames collects names introduced by for, set, with, macro and import tags.
func boundNames(text string) map[string]bool {
	bound := make(map[string]bool)
	add := func(names ...string) {
		for _, n := range names {
			n = strings.TrimSpace(n)
			if identRe.MatchString(n) {
				bound[n] = true
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		fields := strings.Fields(m[1])
		if len(fields) == 0 {
			continue
		}

		args := strings.TrimSpace(strings.TrimPrefix(m[1], fields[0]))
		switch fields[0] {
		case "for":
			if vars, _, ok := strings.Cut(args, " in "); ok {
				add(strings.Split(vars, ",")...)
			}
		case "set":
			if name, _, ok := strings.Cut(args, "="); ok {
				add(name)
			}
		case "with":
			add(assignedNames(args)...)
		case "macro":
			add(macroNames(args)...)
		case "import":
			add(importNames(args)...)
		}
	}

	return bound
}

// assignedNames handles both "a=1 b=2" and "value as a" forms.
func assignedNames(args string) []string {
	args = stringRe.ReplaceAllString(args, `""`)

	var names []string
	fields := strings.Fields(strings.ReplaceAll(args, "=", " = "))
	for i, f := range fields {
		if f == "=" && i > 0 {
			names = append(names, fields[i-1])
		}
		if f == "as" && i+1 < len(fields) {
			names = append(names, fields[i+1])
		}
	}

	return names
}

// macroNames returns the macro name and its parameter names.
func macroNames(args string) []string {
	name, params, ok := strings.Cut(args, "(")
	if !ok {
		return nil
	}

	names := []string{name}
	params, _, _ = strings.Cut(params, ")")
	for _, p := range strings.Split(params, ",") {
		p, _, _ = strings.Cut(p, "=")
		names = append(names, p)
	}

	return names
}

// importNames returns the local names of `import "file" a, b as c`.
func importNames(args string) []string {
	loc := stringRe.FindStringIndex(args)
	if loc == nil {
		return nil
	}

	var names []string
	for _, part := range strings.Split(args[loc[1]:], ",") {
		fields := strings.Fields(part)
		switch {
		case len(fields) == 3 && fields[1] == "as":
			names = append(names, fields[2])
		case len(fields) == 1:
			names = append(names, fields[0])
		}
	}

	return names
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
