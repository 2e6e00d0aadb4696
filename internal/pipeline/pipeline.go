// Package pipeline runs one svgconv invocation: validate, read, render,
// then print or convert and write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	svgconv "github.com/galihrivanto/go-svgconv"
	"github.com/galihrivanto/go-svgconv/internal/output"
	"github.com/galihrivanto/go-svgconv/internal/render"
)

// Request is the validated form of the command line.
type Request struct {
	Input    string
	InputSet bool

	Output    string
	OutputSet bool
	Stdout    bool

	// Pairs holds raw name:value tokens.
	Pairs    []string
	VarsFile string

	AllowMissing bool
	Escape       bool
	Prompt       bool
}

// Validate checks the request without touching the filesystem and returns
// the parsed replacement pairs.
func (r Request) Validate() (render.Replacements, error) {
	if !r.InputSet {
		return nil, output.NewUserError("the following arguments are required: -i/--in")
	}
	if r.Input == "" {
		return nil, output.NewUserError("argument -i/--in: expected not empty file path")
	}

	switch {
	case r.Stdout && r.OutputSet:
		return nil, output.NewUserError("argument -o/--out: not allowed with argument --stdout")
	case !r.Stdout && !r.OutputSet:
		return nil, output.NewUserError("one of the arguments --stdout -o/--out is required")
	case r.OutputSet && r.Output == "":
		return nil, output.NewUserError("argument -o/--out: expected not empty file path")
	}

	pairs, err := render.ParsePairs(r.Pairs)
	if err != nil {
		return nil, output.NewUserError("argument --replacements: " + err.Error())
	}

	return pairs, nil
}

// templating reports whether the input goes through the template engine.
func (r Request) templating() bool {
	return len(r.Pairs) > 0 || r.VarsFile != "" || r.Prompt
}

// Runner carries the collaborators of a run.
type Runner struct {
	Converter svgconv.Converter
	Stdout    io.Writer
	Stderr    io.Writer
	Prompter  render.Prompter
	Logger    *slog.Logger

	// IsTTY decides whether the summary line is printed, output.IsTTY by default.
	IsTTY func(io.Writer) bool
}

// Run executes req. Errors are *output.ExitError values carrying the
// process exit code.
func (r *Runner) Run(ctx context.Context, req Request) error {
	pairs, err := req.Validate()
	if err != nil {
		return err
	}

	logger := r.logger()

	raw, err := os.ReadFile(req.Input)
	if err != nil {
		return output.NewIOError(fmt.Sprintf("cannot read input file %s", req.Input), err)
	}
	logger.Debug("read input", "path", req.Input, "bytes", len(raw))

	text := string(raw)
	if req.templating() {
		text, err = r.render(ctx, req, text, pairs)
		if err != nil {
			return err
		}
	}

	if req.Stdout {
		if _, err := fmt.Fprintln(r.Stdout, text); err != nil {
			return output.NewIOError("cannot write to stdout", err)
		}
		return nil
	}

	return r.write(ctx, req.Output, text)
}

func (r *Runner) render(ctx context.Context, req Request, text string, pairs render.Replacements) (string, error) {
	repl := pairs
	if req.VarsFile != "" {
		vars, err := render.LoadVarsFile(req.VarsFile)
		if err != nil {
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				return "", output.NewIOError(fmt.Sprintf("cannot read vars file %s", req.VarsFile), err)
			}
			return "", output.NewUserError(fmt.Sprintf("invalid vars file %s: %v", req.VarsFile, err))
		}
		repl = render.Merge(vars, pairs)
	}

	if req.Prompt && r.Prompter != nil {
		filled, err := render.Fill(ctx, r.Prompter, text, repl)
		if err != nil {
			return "", output.NewUserError(err.Error())
		}
		repl = filled
	}

	logger := r.logger()
	logger.Debug("rendering template", "replacements", repl.Names(), "allow_missing", req.AllowMissing, "escape", req.Escape)
	if req.AllowMissing {
		if missing := render.Missing(text, repl); len(missing) > 0 {
			logger.Warn("placeholders rendered empty", "names", missing)
		}
	}

	out, err := render.Render(text, repl, render.Options{
		AllowMissing: req.AllowMissing,
		Escape:       req.Escape,
	})
	if err != nil {
		return "", output.NewUserError(err.Error())
	}

	return out, nil
}

func (r *Runner) write(ctx context.Context, path, text string) error {
	format := svgconv.FormatFromPath(path)

	data := []byte(text)
	if !svgconv.IsTextFormat(format) {
		if r.Converter == nil {
			return output.NewConversionError(fmt.Sprintf("cannot convert to %s", format), svgconv.ErrCommandNotAvailable)
		}

		r.logger().Debug("converting", "backend", r.Converter.Name(), "format", format)

		converted, err := r.Converter.Convert(ctx, data, format)
		if err != nil {
			return output.NewConversionError(fmt.Sprintf("cannot convert to %s", format), err)
		}
		data = converted
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return output.NewIOError(fmt.Sprintf("cannot create directory %s", dir), err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return output.NewIOError(fmt.Sprintf("cannot write output file %s", path), err)
	}

	r.summary(path, format, len(data))

	return nil
}

func (r *Runner) summary(path, format string, n int) {
	if r.Stderr == nil {
		return
	}

	isTTY := r.IsTTY
	if isTTY == nil {
		isTTY = output.IsTTY
	}
	if !isTTY(r.Stderr) {
		return
	}

	if format == "" {
		format = svgconv.FormatSVG
	}
	output.NewPrinter(r.Stderr, true).Success("Wrote %s (%s, %d bytes)", path, format, n)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}
