package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galihrivanto/go-svgconv/internal/output"
)

const template = `<svg xmlns="http://www.w3.org/2000/svg"><text>{{ title }}</text></svg>`

type fakeConverter struct {
	format string
	svg    string
	calls  int
	err    error
}

func (f *fakeConverter) Name() string      { return "fake" }
func (f *fakeConverter) Available() bool   { return true }
func (f *fakeConverter) Formats() []string { return []string{"png"} }

func (f *fakeConverter) Convert(_ context.Context, svg []byte, format string) ([]byte, error) {
	f.calls++
	f.format = format
	f.svg = string(svg)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("converted:" + format), nil
}

type cannedPrompter map[string]string

func (p cannedPrompter) Ask(_ context.Context, name string) (string, error) {
	return p[name], nil
}

type env struct {
	dir    string
	input  string
	conv   *fakeConverter
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	runner *Runner
}

func newEnv(t *testing.T, content string) *env {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "in.svg")
	require.NoError(t, os.WriteFile(input, []byte(content), 0o644))

	e := &env{
		dir:    dir,
		input:  input,
		conv:   &fakeConverter{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	e.runner = &Runner{
		Converter: e.conv,
		Stdout:    e.stdout,
		Stderr:    e.stderr,
		IsTTY:     func(io.Writer) bool { return false },
	}

	return e
}

func (e *env) toStdout(pairs ...string) Request {
	return Request{Input: e.input, InputSet: true, Stdout: true, Pairs: pairs}
}

func (e *env) toFile(name string, pairs ...string) Request {
	return Request{Input: e.input, InputSet: true, Output: filepath.Join(e.dir, name), OutputSet: true, Pairs: pairs}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantMsg string
	}{
		{"missing input", Request{Stdout: true}, "required: -i/--in"},
		{"empty input", Request{InputSet: true, Stdout: true}, "argument -i/--in: expected not empty file path"},
		{"no output", Request{Input: "a.svg", InputSet: true}, "one of the arguments --stdout -o/--out is required"},
		{"both outputs", Request{Input: "a.svg", InputSet: true, Stdout: true, Output: "b.png", OutputSet: true}, "not allowed with argument --stdout"},
		{"empty output", Request{Input: "a.svg", InputSet: true, OutputSet: true}, "argument -o/--out: expected not empty file path"},
		{"bad pair", Request{Input: "a.svg", InputSet: true, Stdout: true, Pairs: []string{"a:b:c"}}, "wrong format of replacement pair"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Validate()
			require.Error(t, err)
			assert.Equal(t, output.ExitUserError, output.GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	pairs, err := Request{Input: "a.svg", InputSet: true, Stdout: true, Pairs: []string{"a:1", "a:2"}}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "2", pairs["a"])
}

func TestRun_ValidatesBeforeIO(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sub", "out.png")
	conv := &fakeConverter{}

	err := (&Runner{Converter: conv, Stdout: io.Discard}).Run(context.Background(), Request{
		Input:     filepath.Join(dir, "missing.svg"),
		InputSet:  true,
		Output:    out,
		OutputSet: true,
		Pairs:     []string{"broken"},
	})

	assert.Equal(t, output.ExitUserError, output.GetExitCode(err))
	assert.Zero(t, conv.calls)
	assert.NoDirExists(t, filepath.Join(dir, "sub"))
}

func TestRun_StdoutPassthrough(t *testing.T) {
	e := newEnv(t, template)

	require.NoError(t, e.runner.Run(context.Background(), e.toStdout()))
	assert.Equal(t, template+"\n", e.stdout.String())
	assert.Zero(t, e.conv.calls)
}

func TestRun_StdoutRendered(t *testing.T) {
	e := newEnv(t, template)

	require.NoError(t, e.runner.Run(context.Background(), e.toStdout("title:Hello")))
	assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg"><text>Hello</text></svg>`+"\n", e.stdout.String())
}

func TestRun_TextOutputs(t *testing.T) {
	for _, name := range []string{"out.svg", filepath.Join("a", "b", "OUT.SVG"), "noext"} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t, template)

			require.NoError(t, e.runner.Run(context.Background(), e.toFile(name, "title:Hi")))

			data, err := os.ReadFile(filepath.Join(e.dir, name))
			require.NoError(t, err)
			assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg"><text>Hi</text></svg>`, string(data))
			assert.Zero(t, e.conv.calls)
			assert.Empty(t, e.stdout.String())
		})
	}
}

func TestRun_SVGRoundTrip(t *testing.T) {
	content := "<svg>\n  {{ untouched }} {% raw %}\n</svg>\n"
	e := newEnv(t, content)

	req := e.toFile("copy.svg")
	require.NoError(t, e.runner.Run(context.Background(), req))

	data, err := os.ReadFile(req.Output)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestRun_Convert(t *testing.T) {
	e := newEnv(t, template)

	req := e.toFile(filepath.Join("nested", "out.PNG"), "title:Hi")
	require.NoError(t, e.runner.Run(context.Background(), req))

	assert.Equal(t, 1, e.conv.calls)
	assert.Equal(t, "png", e.conv.format)
	assert.Contains(t, e.conv.svg, "<text>Hi</text>")

	data, err := os.ReadFile(req.Output)
	require.NoError(t, err)
	assert.Equal(t, "converted:png", string(data))
}

func TestRun_ConversionFailure(t *testing.T) {
	e := newEnv(t, template)
	e.conv.err = errors.New("boom")

	err := e.runner.Run(context.Background(), e.toFile(filepath.Join("nested", "out.png"), "title:Hi"))

	assert.Equal(t, output.ExitConversionError, output.GetExitCode(err))
	assert.Contains(t, err.Error(), "boom")
	assert.NoDirExists(t, filepath.Join(e.dir, "nested"))
}

func TestRun_IOErrors(t *testing.T) {
	e := newEnv(t, template)

	req := e.toStdout()
	req.Input = filepath.Join(e.dir, "missing.svg")
	err := e.runner.Run(context.Background(), req)
	assert.Equal(t, output.ExitIOError, output.GetExitCode(err))

	require.NoError(t, os.Mkdir(filepath.Join(e.dir, "taken.svg"), 0o755))
	err = e.runner.Run(context.Background(), e.toFile("taken.svg"))
	assert.Equal(t, output.ExitIOError, output.GetExitCode(err))
}

func TestRun_PlaceholderPolicy(t *testing.T) {
	e := newEnv(t, `{{ title }}|{{ subtitle }}`)

	err := e.runner.Run(context.Background(), e.toStdout("title:A"))
	require.Error(t, err)
	assert.Equal(t, output.ExitUserError, output.GetExitCode(err))
	assert.Contains(t, err.Error(), "subtitle")
	assert.Empty(t, e.stdout.String())

	req := e.toStdout("title:A")
	req.AllowMissing = true
	require.NoError(t, e.runner.Run(context.Background(), req))
	assert.Equal(t, "A|\n", e.stdout.String())
}

func TestRun_Escape(t *testing.T) {
	e := newEnv(t, template)

	req := e.toStdout("title:<b>")
	req.Escape = true
	require.NoError(t, e.runner.Run(context.Background(), req))
	assert.Contains(t, e.stdout.String(), "<text>&lt;b&gt;</text>")
}

func TestRun_VarsFile(t *testing.T) {
	e := newEnv(t, `{{ title }}/{{ author }}`)

	vars := filepath.Join(e.dir, "vars.yaml")
	require.NoError(t, os.WriteFile(vars, []byte("title: FromFile\nauthor: Ann\n"), 0o644))

	req := e.toStdout("title:FromFlag")
	req.VarsFile = vars
	require.NoError(t, e.runner.Run(context.Background(), req))
	assert.Equal(t, "FromFlag/Ann\n", e.stdout.String())

	req.VarsFile = filepath.Join(e.dir, "nope.yaml")
	err := e.runner.Run(context.Background(), req)
	assert.Equal(t, output.ExitIOError, output.GetExitCode(err))

	require.NoError(t, os.WriteFile(vars, []byte("title: [unclosed"), 0o644))
	req.VarsFile = vars
	err = e.runner.Run(context.Background(), req)
	assert.Equal(t, output.ExitUserError, output.GetExitCode(err))
}

func TestRun_Prompt(t *testing.T) {
	e := newEnv(t, `{{ title }}/{{ author }}`)
	e.runner.Prompter = cannedPrompter{"author": "Bob", "title": "ignored"}

	req := e.toStdout("title:Given")
	req.Prompt = true
	require.NoError(t, e.runner.Run(context.Background(), req))
	assert.Equal(t, "Given/Bob\n", e.stdout.String())
}

func TestRun_Summary(t *testing.T) {
	e := newEnv(t, template)

	require.NoError(t, e.runner.Run(context.Background(), e.toFile("quiet.png")))
	assert.Empty(t, e.stderr.String())

	e.runner.IsTTY = func(io.Writer) bool { return true }
	require.NoError(t, e.runner.Run(context.Background(), e.toFile("loud.png")))
	assert.Contains(t, e.stderr.String(), "Wrote ")
	assert.Contains(t, e.stderr.String(), "(png, 13 bytes)")
}
