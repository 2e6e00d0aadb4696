package svgconv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/galihrivanto/runner"
	"github.com/google/uuid"
)

const (
	defaultCmdName = "inkscape"
	defaultDPI     = 96

	// grace period for pipes of a killed process
	waitDelay = 2 * time.Second
)

var inkscapeFormats = []string{"png", "pdf", "ps", "eps", "emf", "wmf"}

// Inkscape converts svg by running one inkscape process per conversion.
// The svg is piped through stdin and the export is read back from a
// temporary file.
type Inkscape struct {
	options Options
}

// NewInkscape create inkscape backed converter
func NewInkscape(opts ...Option) *Inkscape {
	return newInkscape(mergeOptions(defaultOptions(), opts...))
}

func newInkscape(options Options) *Inkscape {
	return &Inkscape{options: options}
}

// Name satisfy Converter interface
func (p *Inkscape) Name() string {
	return BackendInkscape
}

// Available reports whether inkscape executable can be found
func (p *Inkscape) Available() bool {
	_, err := p.lookPath()
	return err == nil
}

// Formats satisfy Converter interface
func (p *Inkscape) Formats() []string {
	return inkscapeFormats
}

// Version returns the first line of `inkscape --version`
func (p *Inkscape) Version(ctx context.Context) (string, error) {
	commandPath, err := p.lookPath()
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, commandPath, Version())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", commandError(err, &stderr)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(stdout.String()), "\n")

	return line, nil
}

// Convert svg into format
func (p *Inkscape) Convert(ctx context.Context, svg []byte, format string) ([]byte, error) {
	f := NormalizeFormat(format)
	if f == FormatSVG {
		return svg, nil
	}
	if !supports(inkscapeFormats, f) {
		return nil, conversionError(BackendInkscape, f, ErrUnsupportedFormat)
	}

	commandPath, err := p.lookPath()
	if err != nil {
		return nil, conversionError(BackendInkscape, f, err)
	}

	p.options.debug("inkscape", "path", commandPath, "format", f)

	out, err := p.exportWithRetry(ctx, commandPath, svg, f)
	if err != nil {
		return nil, conversionError(BackendInkscape, f, err)
	}

	return out, nil
}

func (p *Inkscape) lookPath() (string, error) {
	commandPath, err := exec.LookPath(p.options.commandName)
	if err != nil {
		return "", ErrCommandNotAvailable
	}

	return commandPath, nil
}

// exportWithRetry runs export, retrying with exponential backoff when
// max retry is set. It blocks until an attempt succeeds, the retries are
// used up or ctx is done.
func (p *Inkscape) exportWithRetry(ctx context.Context, commandPath string, svg []byte, format string) ([]byte, error) {
	if p.options.maxRetry <= 0 {
		return p.export(ctx, commandPath, svg, format)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		out     []byte
		lastErr error
		ok      bool
		attempt int
	)

	retry := newFinishingRetry(runner.NewExponentialBackoffRetry(p.options.maxRetry))

	runner.RunWithRetry(
		runCtx,
		func(ctx context.Context) error {
			data, err := p.export(ctx, commandPath, svg, format)

			mu.Lock()
			defer mu.Unlock()

			attempt++
			if err != nil {
				lastErr = err
				p.options.debug("inkscape export failed", "attempt", attempt, "error", err)
				return err
			}

			out, ok = data, true
			retry.finish()

			// stop the runner instead of letting it reset and run again
			return runner.ErrGiveUp
		},
		retry,
	)

	select {
	case <-retry.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()

	if ok {
		return out, nil
	}
	if lastErr == nil {
		return nil, errors.New("inkscape export did not run")
	}

	return nil, lastErr
}

// finishingRetry closes done once the wrapped strategy stops or an
// attempt succeeds, so callers can wait for the runner goroutine.
type finishingRetry struct {
	runner.RetryStrategy

	done chan struct{}
	once sync.Once
}

func newFinishingRetry(strategy runner.RetryStrategy) *finishingRetry {
	return &finishingRetry{
		RetryStrategy: strategy,
		done:          make(chan struct{}),
	}
}

func (r *finishingRetry) Next() time.Duration {
	next := r.RetryStrategy.Next()
	if next == runner.Stop {
		r.finish()
	}

	return next
}

func (r *finishingRetry) finish() {
	r.once.Do(func() { close(r.done) })
}

// export runs a single inkscape process
func (p *Inkscape) export(ctx context.Context, commandPath string, svg []byte, format string) ([]byte, error) {
	output := filepath.Join(p.tempDir(), "svgconv-"+uuid.NewString()+"."+format)
	defer os.Remove(output)

	args := exportArgs(p.options, format, output)

	p.options.debug("run", "args", strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, commandPath, args...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, commandError(err, &stderr)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("inkscape produced no output: %s", strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("inkscape produced empty output: %s", strings.TrimSpace(stderr.String()))
	}

	return data, nil
}

func (p *Inkscape) tempDir() string {
	if p.options.tempDir != "" {
		return p.options.tempDir
	}

	return os.TempDir()
}

func commandError(err error, stderr *bytes.Buffer) error {
	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		return err
	}

	return fmt.Errorf("%w: %s", err, msg)
}
