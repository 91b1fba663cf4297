package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sceneCode = `from manim import *

class Demo(Scene):
    def construct(self):
        pass
`

// fakeManim writes an executable shell script standing in for the
// renderer. It runs with the scratch directory as its cwd, just like
// the real binary.
func fakeManim(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-manim")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestQualityFlag(t *testing.T) {
	tests := []struct {
		quality  string
		expected string
	}{
		{"low", "-ql"},
		{"medium", "-qm"},
		{"high", "-qh"},
		{"production", "-qp"},
		{"4k", "-qk"},
		{"ultra", "-qm"}, // unknown values fall back to medium
		{"", "-qm"},
	}

	for _, tt := range tests {
		if got := qualityFlag(tt.quality); got != tt.expected {
			t.Errorf("qualityFlag(%q) = %q, want %q", tt.quality, got, tt.expected)
		}
	}
}

func TestRenderSuccess(t *testing.T) {
	bin := fakeManim(t, `mkdir -p media/videos/animation/480p15
printf 'videobytes' > media/videos/animation/480p15/animation.mp4`)

	outputDir := t.TempDir()
	r := NewRenderer(bin, outputDir)

	result, err := r.Render(sceneCode, "medium", "mp4")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if filepath.Dir(result.OutputPath) != outputDir {
		t.Errorf("artifact not published to output dir: %s", result.OutputPath)
	}
	data, err := os.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("published artifact unreadable: %v", err)
	}
	if string(data) != "videobytes" {
		t.Errorf("artifact content = %q", data)
	}
	if result.Duration != 0 {
		t.Errorf("duration without sidecar = %v, want 0", result.Duration)
	}
}

func TestRenderReadsDurationSidecar(t *testing.T) {
	bin := fakeManim(t, `printf 'gifbytes' > animation.gif
printf '{"duration": 2.5}' > animation.json`)

	r := NewRenderer(bin, t.TempDir())
	result, err := r.Render(sceneCode, "low", "gif")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if result.Duration != 2.5 {
		t.Errorf("duration = %v, want 2.5", result.Duration)
	}
}

func TestRenderStderrVerbatim(t *testing.T) {
	bin := fakeManim(t, `printf 'ValueError: no mobjects to animate' >&2
exit 1`)

	r := NewRenderer(bin, t.TempDir())
	_, err := r.Render(sceneCode, "medium", "mp4")

	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Render() error = %T, want *RenderError", err)
	}
	if renderErr.Error() != "ValueError: no mobjects to animate" {
		t.Errorf("error message = %q, want the captured stderr verbatim", renderErr.Error())
	}
}

func TestRenderNoSceneClass(t *testing.T) {
	r := NewRenderer("manim", t.TempDir())
	_, err := r.Render("from manim import *\nx = 1", "medium", "mp4")

	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Render() error = %T, want *RenderError", err)
	}
	if renderErr.Message != "Could not find a Scene class in the code." {
		t.Errorf("error message = %q", renderErr.Message)
	}
}

func TestRenderNoOutputProduced(t *testing.T) {
	bin := fakeManim(t, "exit 0")

	r := NewRenderer(bin, t.TempDir())
	_, err := r.Render(sceneCode, "medium", "mp4")

	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Render() error = %T, want *RenderError", err)
	}
	if renderErr.Message != "No output file generated" {
		t.Errorf("error message = %q", renderErr.Message)
	}
}

func TestRenderFormatMismatch(t *testing.T) {
	// The renderer produced an mp4, but a gif was requested.
	bin := fakeManim(t, `printf 'videobytes' > animation.mp4`)

	r := NewRenderer(bin, t.TempDir())
	_, err := r.Render(sceneCode, "medium", "gif")
	if err == nil {
		t.Fatal("expected a missing-output error for the wrong format")
	}
}

func TestFindArtifact(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "media", "videos", "animation", "1080p60")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	// A decoy with the right extension but the wrong basename.
	if err := os.WriteFile(filepath.Join(nested, "partial_movie.mp4"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(nested, "animation.mp4")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	found, ok := findArtifact(dir, "mp4")
	if !ok {
		t.Fatal("findArtifact() found nothing")
	}
	if found != target {
		t.Errorf("findArtifact() = %s, want %s", found, target)
	}

	if _, ok := findArtifact(dir, "gif"); ok {
		t.Error("findArtifact() matched the wrong format")
	}
}

func TestReadDuration(t *testing.T) {
	dir := t.TempDir()

	if got := readDuration(filepath.Join(dir, "missing.json")); got != 0 {
		t.Errorf("readDuration(missing) = %v, want 0", got)
	}

	path := filepath.Join(dir, "animation.json")
	if err := os.WriteFile(path, []byte(`{"duration": 4.2}`), 0644); err != nil {
		t.Fatal(err)
	}
	if got := readDuration(path); got != 4.2 {
		t.Errorf("readDuration() = %v, want 4.2", got)
	}

	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := readDuration(path); got != 0 {
		t.Errorf("readDuration(malformed) = %v, want 0", got)
	}
}

// Colliding output names overwrite silently: the store has no
// uniqueness guarantee and the last render wins.
func TestPublishCollisionLastWriteWins(t *testing.T) {
	outputDir := t.TempDir()
	r := NewRenderer("manim", outputDir)

	src := t.TempDir()
	first := filepath.Join(src, "animation.mp4")
	if err := os.WriteFile(first, []byte("first"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.publish(first); err != nil {
		t.Fatalf("publish() error = %v", err)
	}

	second := filepath.Join(src, "animation.mp4")
	if err := os.WriteFile(second, []byte("second"), 0644); err != nil {
		t.Fatal(err)
	}
	finalPath, err := r.publish(second)
	if err != nil {
		t.Fatalf("publish() on collision error = %v", err)
	}

	data, err := os.ReadFile(finalPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("collision content = %q, want last write to win", data)
	}
}
