package svgconv

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

const fakeInkscape = `#!/bin/sh
out=""
for arg in "$@"; do
	case "$arg" in
		--export-filename=*) out="${arg#--export-filename=}" ;;
		--version) echo "Inkscape 1.2.2 (fake)"; exit 0 ;;
	esac
done
{ printf 'ARGS:%s\n' "$*"; cat; } > "$out"
`

const failingInkscape = `#!/bin/sh
cat > /dev/null
echo "parser error : Start tag expected" >&2
exit 3
`

const silentInkscape = `#!/bin/sh
cat > /dev/null
exit 0
`

// flakyInkscape fails on its first run and exports on later ones
const flakyInkscape = `#!/bin/sh
dir="$(dirname "$0")"
echo run >> "$dir/attempts"
if [ ! -f "$dir/warm" ]; then
	touch "$dir/warm"
	cat > /dev/null
	echo "transient failure" >&2
	exit 1
fi
out=""
for arg in "$@"; do
	case "$arg" in
		--export-filename=*) out="${arg#--export-filename=}" ;;
	esac
done
{ printf 'ARGS:%s\n' "$*"; cat; } > "$out"
`

// countingFailure fails every run and records it
const countingFailure = `#!/bin/sh
echo run >> "$(dirname "$0")/attempts"
cat > /dev/null
echo "still broken" >&2
exit 1
`

// writeScript installs an executable shell script standing in for inkscape
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	path := filepath.Join(t.TempDir(), "inkscape")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestInkscapeConvert(t *testing.T) {
	script := writeScript(t, fakeInkscape)
	tmp := t.TempDir()

	proxy := NewInkscape(CommandName(script), TempDir(tmp), DPI(300), Background("white"))
	if !proxy.Available() {
		t.Fatal("fake inkscape should be available")
	}

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"></svg>`)
	out, err := proxy.Convert(context.Background(), svg, "PNG")
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	header, body, _ := strings.Cut(string(out), "\n")
	for _, want := range []string{"--pipe", "--export-type=png", "--export-dpi=300", "--export-background=white", "--export-background-opacity=1"} {
		if !strings.Contains(header, want) {
			t.Errorf("args %q missing %q", header, want)
		}
	}
	if body != string(svg) {
		t.Errorf("stdin not forwarded, got %q", body)
	}

	// temporary export must be cleaned up
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned, %d entries left", len(entries))
	}
}

func TestInkscapeVersion(t *testing.T) {
	script := writeScript(t, fakeInkscape)

	version, err := NewInkscape(CommandName(script)).Version(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if version != "Inkscape 1.2.2 (fake)" {
		t.Errorf("unexpected version %q", version)
	}
}

func TestInkscapeFailure(t *testing.T) {
	script := writeScript(t, failingInkscape)

	_, err := NewInkscape(CommandName(script), TempDir(t.TempDir())).Convert(context.Background(), []byte("nope"), "pdf")
	if err == nil {
		t.Fatal("should fail")
	}

	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %T", err)
	}
	if convErr.Backend != BackendInkscape || convErr.Format != "pdf" {
		t.Errorf("unexpected error fields %+v", convErr)
	}
	if !strings.Contains(err.Error(), "Start tag expected") {
		t.Errorf("stderr not reported: %v", err)
	}
}

func TestInkscapeNoOutput(t *testing.T) {
	script := writeScript(t, silentInkscape)

	_, err := NewInkscape(CommandName(script), TempDir(t.TempDir())).Convert(context.Background(), []byte("<svg/>"), "png")
	if err == nil || !strings.Contains(err.Error(), "no output") {
		t.Errorf("expected no output error, got %v", err)
	}
}

func TestInkscapeNotAvailable(t *testing.T) {
	proxy := NewInkscape(CommandName("svgconv-missing-inkscape"))
	if proxy.Available() {
		t.Fatal("should not be available")
	}

	_, err := proxy.Convert(context.Background(), []byte("<svg/>"), "png")
	if !errors.Is(err, ErrCommandNotAvailable) {
		t.Errorf("expected ErrCommandNotAvailable, got %v", err)
	}
}

func TestInkscapeUnsupportedFormat(t *testing.T) {
	_, err := NewInkscape().Convert(context.Background(), []byte("<svg/>"), "gif")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

// TestExecContext tests against command execution within context boundary
func TestExecContext(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nexec sleep 5\n")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewInkscape(CommandName(script), TempDir(t.TempDir())).Convert(ctx, []byte("<svg/>"), "png")
	if err == nil {
		t.Fatal("expected command to be canceled, got success command execution")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Error("command was not killed on cancel")
	}
}

func TestExportArgs(t *testing.T) {
	options := mergeOptions(defaultOptions(), Size(640, 0))

	args := exportArgs(options, "png", "/tmp/out.png")
	want := []string{"--pipe", "--export-type=png", "--export-filename=/tmp/out.png", "--export-width=640"}

	if strings.Join(args, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", args, want)
	}

	var buf bytes.Buffer
	buf.WriteString(ExportHeight(10))
	buf.WriteString(" ")
	buf.WriteString(ExportDpi(72.5))
	if buf.String() != "--export-height=10 --export-dpi=72.5" {
		t.Errorf("unexpected %q", buf.String())
	}
}

func attempts(t *testing.T, script string) int {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(filepath.Dir(script), "attempts"))
	if err != nil {
		t.Fatal(err)
	}

	return strings.Count(string(data), "\n")
}

func TestInkscapeRetrySucceedsFirstTime(t *testing.T) {
	script := writeScript(t, fakeInkscape)

	start := time.Now()
	out, err := NewInkscape(CommandName(script), TempDir(t.TempDir()), MaxRetry(2)).Convert(context.Background(), []byte("<svg/>"), "png")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out), "ARGS:") {
		t.Errorf("unexpected output %q", out)
	}
	if time.Since(start) > time.Second {
		t.Error("successful export should not wait for a retry")
	}
}

func TestInkscapeRetryRecovers(t *testing.T) {
	script := writeScript(t, flakyInkscape)

	out, err := NewInkscape(CommandName(script), TempDir(t.TempDir()), MaxRetry(2)).Convert(context.Background(), []byte("<svg/>"), "png")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out), "ARGS:") {
		t.Errorf("unexpected output %q", out)
	}
	if n := attempts(t, script); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}

	// the runner must not keep exporting after success
	time.Sleep(2500 * time.Millisecond)
	if n := attempts(t, script); n != 2 {
		t.Errorf("export ran again after success, %d attempts", n)
	}
}

func TestInkscapeRetryExhausted(t *testing.T) {
	script := writeScript(t, countingFailure)

	_, err := NewInkscape(CommandName(script), TempDir(t.TempDir()), MaxRetry(1)).Convert(context.Background(), []byte("<svg/>"), "png")
	if err == nil {
		t.Fatal("should fail")
	}
	if !strings.Contains(err.Error(), "still broken") {
		t.Errorf("last stderr not reported: %v", err)
	}
	if n := attempts(t, script); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}
}

func TestInkscapeRetryCanceled(t *testing.T) {
	script := writeScript(t, countingFailure)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewInkscape(CommandName(script), TempDir(t.TempDir()), MaxRetry(3)).Convert(ctx, []byte("<svg/>"), "png")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 1500*time.Millisecond {
		t.Error("backoff wait should stop on cancel")
	}
}
