package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("prompt aborted")

// Prompter asks for a placeholder value. Tests substitute a canned
// implementation.
type Prompter interface {
	Ask(ctx context.Context, name string) (string, error)
}

// SurveyPrompter prompts on the terminal. Questions go to stderr so that
// --stdout output stays clean.
type SurveyPrompter struct {
	In  terminal.FileReader
	Out terminal.FileWriter
	Err io.Writer
}

// NewSurveyPrompter returns a prompter bound to the process stdio.
func NewSurveyPrompter() *SurveyPrompter {
	return &SurveyPrompter{In: os.Stdin, Out: os.Stderr, Err: os.Stderr}
}

// Ask implements Prompter.
func (p *SurveyPrompter) Ask(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var out string
	prompt := &survey.Input{
		Message: fmt.Sprintf("Value for %s:", name),
	}
	if err := survey.AskOne(prompt, &out, survey.WithStdio(p.In, p.Out, p.Err)); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", ErrAborted
		}
		return "", err
	}

	return out, nil
}

// Fill asks for every placeholder in text that repl does not cover and
// returns the completed set. repl is not modified.
func Fill(ctx context.Context, p Prompter, text string, repl Replacements) (Replacements, error) {
	out := Merge(repl)
	for _, name := range Missing(text, repl) {
		value, err := p.Ask(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read value for %s: %w", name, err)
		}
		out[name] = value
	}

	return out, nil
}
