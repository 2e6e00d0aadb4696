package render

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// Options controls placeholder policy and escaping.
type Options struct {
	// AllowMissing renders unknown placeholders as empty strings instead
	// of failing.
	AllowMissing bool
	// Escape HTML/XML-escapes substituted values.
	Escape bool
}

// MissingError lists placeholders that have no replacement value.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return "no replacement for placeholder(s): " + strings.Join(e.Names, ", ")
}

// TemplateError reports a template that failed to parse or execute.
type TemplateError struct {
	Line   int
	Column int
	Err    error
}

func (e *TemplateError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("template error at line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("template error: %v", e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// pongo2 rejects contexts holding keys outside this set
var contextKeyRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

const (
	escapeOff = "{% autoescape off %}"
	escapeEnd = "{% endautoescape %}"
)

// tags that read other files
var bannedTags = []string{"ssi", "include", "extends", "import"}

// errNoFiles is returned by noFiles for every template lookup.
var errNoFiles = errors.New("templates cannot load other files")

type noFiles struct{}

func (noFiles) Abs(_, name string) string { return name }

func (noFiles) Get(string) (io.Reader, error) { return nil, errNoFiles }

// newTemplateSet returns a set that cannot reach the filesystem.
func newTemplateSet() (*pongo2.TemplateSet, error) {
	set := pongo2.NewSet("svgconv", noFiles{})
	for _, tag := range bannedTags {
		if err := set.BanTag(tag); err != nil {
			return nil, fmt.Errorf("ban tag %s: %w", tag, err)
		}
	}
	return set, nil
}

// Render substitutes repl into text. Unless opts.AllowMissing is set, every
// placeholder must have a value.
func Render(text string, repl Replacements, opts Options) (string, error) {
	if !opts.AllowMissing {
		if missing := Missing(text, repl); len(missing) > 0 {
			return "", &MissingError{Names: missing}
		}
	}

	source := text
	if !opts.Escape {
		source = escapeOff + text + escapeEnd
	}

	set, err := newTemplateSet()
	if err != nil {
		return "", err
	}

	tpl, err := set.FromString(source)
	if err != nil {
		return "", templateError(err, len(source) != len(text))
	}

	ctx := make(pongo2.Context, len(repl))
	for name, value := range repl {
		if !contextKeyRe.MatchString(name) {
			continue
		}
		ctx[name] = value
	}

	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", templateError(err, len(source) != len(text))
	}

	return out, nil
}

// templateError unwraps a pongo2 error and corrects the column for the
// autoescape prefix on the first line.
func templateError(err error, wrapped bool) error {
	var perr *pongo2.Error
	if !errors.As(err, &perr) {
		return &TemplateError{Err: err}
	}

	cause := perr.OrigError
	if cause == nil {
		cause = err
	}

	column := perr.Column
	if wrapped && perr.Line == 1 && column > len(escapeOff) {
		column -= len(escapeOff)
	}

	return &TemplateError{Line: perr.Line, Column: column, Err: cause}
}
