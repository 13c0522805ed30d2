package tool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestExtractArgs(t *testing.T) {
	got := Tools{}.Extract("/in/clip.mp4", 10, "frames/clip/normal-10fps/frame_%d.png")
	want := []string{"ffmpeg", "-hide_banner", "-nostdin", "-loglevel", "error", "-y",
		"-i", "/in/clip.mp4", "-vf", "fps=10", "frames/clip/normal-10fps/frame_%d.png"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract =\n%v\nwant\n%v", got, want)
	}
}

func TestScaleArgs(t *testing.T) {
	got := Tools{FFmpeg: "/opt/ffmpeg", Verbose: true}.Scale("in/frame_%d.png", 64, -1, "out/frame_%d.png")
	want := []string{"/opt/ffmpeg", "-hide_banner", "-nostdin", "-loglevel", "info", "-y",
		"-i", "in/frame_%d.png", "-vf", "format=rgb24, scale=64:-1", "out/frame_%d.png"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scale =\n%v\nwant\n%v", got, want)
	}
}

func TestOtherArgs(t *testing.T) {
	tools := Tools{Convimg: "/usr/local/bin/convimg"}
	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"convimg", tools.ConvertSprites("clip.yaml"), []string{"/usr/local/bin/convimg", "-i", "clip.yaml"}},
		{"make clean", tools.MakeClean(), []string{"make", "clean"}},
		{"make build", tools.MakeBuild(3), []string{"make", "-j3"}},
		{"make build floor", tools.MakeBuild(0), []string{"make", "-j1"}},
		{"probe", tools.Probe("f.png")[:2], []string{"ffprobe", "-v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestFormatArgs(t *testing.T) {
	got := FormatArgs([]string{"ffmpeg", "-vf", "format=rgb24, scale=64:-1", ""})
	want := `ffmpeg -vf "format=rgb24, scale=64:-1" ""`
	if got != want {
		t.Errorf("FormatArgs = %q, want %q", got, want)
	}
}

func TestTail(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&b, "line %d\n\n", i)
	}
	got := Tail(b.String(), 20)
	if len(got) != 20 || got[0] != "line 11" || got[19] != "line 30" {
		t.Errorf("Tail = %v", got)
	}
	if len(Tail("", 20)) != 0 {
		t.Error("Tail of empty output should be empty")
	}
}

func TestHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not a tool error", errors.New("x"), ""},
		{"missing binary", &ToolError{Err: exec.ErrNotFound}, "binary not found on PATH"},
		{"missing file", &ToolError{Stderr: "frame_1.png: No such file or directory"}, "input or frame file missing"},
		{"make", &ToolError{Stdout: "make: *** No rule to make target 'x'."}, "project directory incomplete; rerun build"},
		{"unknown", &ToolError{Stderr: "segfault"}, ""},
		{"wrapped", fmt.Errorf("extract: %w", &ToolError{Stderr: "Invalid data found when processing input"}), "input is not a decodable video"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hint(tt.err); got != tt.want {
				t.Errorf("Hint() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestHelperProcess is not a real test; ExecRunner tests re-exec the test
// binary into it.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("CALCANIM_HELPER_PROCESS") != "1" {
		return
	}
	wd, _ := os.Getwd()
	fmt.Fprintf(os.Stdout, "cwd=%s\n", wd)
	fmt.Fprintln(os.Stderr, "to stderr")
	if os.Getenv("CALCANIM_HELPER_EXIT") == "3" {
		os.Exit(3)
	}
	os.Exit(0)
}

func helperArgs() []string {
	return []string{os.Args[0], "-test.run=^TestHelperProcess$"}
}

// lockedBuilder is written by the stdout and stderr copy goroutines at once.
type lockedBuilder struct {
	mu sync.Mutex
	b  strings.Builder
}

func (l *lockedBuilder) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuilder) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestExecRunner_Success(t *testing.T) {
	t.Setenv("CALCANIM_HELPER_PROCESS", "1")
	dir := t.TempDir()
	var tee lockedBuilder
	res, err := ExecRunner{Tee: &tee}.Run(context.Background(), dir, helperArgs()...)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(res.Stdout, "cwd=") || !strings.Contains(res.Stderr, "to stderr") {
		t.Errorf("captured stdout %q stderr %q", res.Stdout, res.Stderr)
	}
	if !strings.Contains(tee.String(), "to stderr") {
		t.Errorf("tee = %q", tee.String())
	}
}

func TestExecRunner_Failure(t *testing.T) {
	t.Setenv("CALCANIM_HELPER_PROCESS", "1")
	t.Setenv("CALCANIM_HELPER_EXIT", "3")
	dir := t.TempDir()
	_, err := ExecRunner{}.Run(context.Background(), dir, helperArgs()...)
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("Run error = %v, want *ToolError", err)
	}
	if te.ExitCode != 3 || te.Dir != dir || !strings.Contains(te.Stderr, "to stderr") {
		t.Errorf("ToolError = %+v", te)
	}
	if !strings.Contains(te.Error(), "exited with status 3") {
		t.Errorf("Error() = %q", te.Error())
	}
}

func TestExecRunner_NotFound(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "", "calcanim-definitely-missing-binary")
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("Run error = %v, want *ToolError", err)
	}
	if te.ExitCode != -1 || !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("ToolError = %+v", te)
	}
	if Hint(err) != "binary not found on PATH" {
		t.Errorf("Hint = %q", Hint(err))
	}
}

func TestExecRunner_Empty(t *testing.T) {
	if _, err := (ExecRunner{}).Run(context.Background(), ""); err == nil {
		t.Error("Run() with no args = nil, want error")
	}
}
