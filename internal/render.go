package internal

import (
	"bytes"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// qualityFlags maps the request quality names onto manim's CLI flags.
var qualityFlags = map[string]string{
	"low":        "-ql",
	"medium":     "-qm",
	"high":       "-qh",
	"production": "-qp",
	"4k":         "-qk",
}

// RenderError is a failure reported by the render pipeline. For a
// nonzero renderer exit the message is the captured stderr, verbatim.
type RenderError struct {
	Message string
}

func (e *RenderError) Error() string {
	return e.Message
}

// RenderResult describes a finished render.
type RenderResult struct {
	OutputPath string
	Duration   float64
}

// Renderer wraps the external manim CLI. Artifacts are moved out of the
// scratch directory into outputDir, which persists across requests.
type Renderer struct {
	bin       string
	outputDir string
}

// NewRenderer creates a renderer invoking bin (usually just "manim",
// resolved via PATH) and publishing artifacts under outputDir.
func NewRenderer(bin, outputDir string) *Renderer {
	return &Renderer{bin: bin, outputDir: outputDir}
}

// Render writes code to a scratch directory, runs manim against the
// Scene subclass found in it, and moves the produced artifact into the
// output directory. The scratch directory is removed on every exit
// path. One linear pass: any failing step aborts the whole render.
func (r *Renderer) Render(code, quality, format string) (*RenderResult, error) {
	tmpDir, err := os.MkdirTemp("", "manim-render-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	codeFile := filepath.Join(tmpDir, "animation.py")
	if err := os.WriteFile(codeFile, []byte(code), 0644); err != nil {
		return nil, err
	}

	sceneName, ok := ResolveSceneName(code)
	if !ok {
		return nil, &RenderError{Message: "Could not find a Scene class in the code."}
	}

	// Argument-vector invocation; the code and paths never pass through
	// a shell.
	args := []string{qualityFlag(quality), "-o", "animation", codeFile, sceneName}
	log.Debugf("[RENDER] Running: %s %v", r.bin, args)

	cmd := exec.Command(r.bin, args...)
	cmd.Dir = tmpDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Errorf("[RENDER] manim failed: %v", err)
		return nil, &RenderError{Message: stderr.String()}
	}

	artifact, ok := findArtifact(tmpDir, format)
	if !ok {
		logDirTree(tmpDir)
		return nil, &RenderError{Message: "No output file generated"}
	}

	// Scene timing sidecar is optional; a missing file means zero.
	duration := readDuration(filepath.Join(tmpDir, "animation.json"))

	finalPath, err := r.publish(artifact)
	if err != nil {
		return nil, err
	}

	return &RenderResult{OutputPath: finalPath, Duration: duration}, nil
}

// publish moves an artifact into the persistent output directory,
// creating it if needed. Colliding names overwrite: last write wins.
func (r *Renderer) publish(artifact string) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", err
	}
	finalPath := filepath.Join(r.outputDir, filepath.Base(artifact))
	if err := moveFile(artifact, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}

// qualityFlag resolves a quality name to a manim flag, silently
// defaulting unknown values to medium.
func qualityFlag(quality string) string {
	if flag, ok := qualityFlags[quality]; ok {
		return flag
	}
	return qualityFlags["medium"]
}

// findArtifact searches dir recursively for the first file named
// animation*.<format>. Manim nests outputs under media/videos/..., so a
// flat lookup is not enough.
func findArtifact(dir, format string) (string, bool) {
	suffix := "." + format
	var found string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, "animation") && strings.HasSuffix(name, suffix) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}

// readDuration reads the duration field from the renderer's JSON
// sidecar. Absent or unreadable sidecars yield zero, never an error.
func readDuration(path string) float64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	var sceneData struct {
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(data, &sceneData); err != nil {
		return 0
	}
	return sceneData.Duration
}

// moveFile renames src to dst, falling back to copy-and-remove when the
// two live on different filesystems (the scratch dir usually does).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// logDirTree dumps the scratch directory for operator diagnosis when no
// artifact was produced.
func logDirTree(dir string) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil {
			log.Infof("[RENDER] %s", path)
		}
		return nil
	})
}
