package internal

import (
	"regexp"
	"strings"
)

const (
	fenceMarker = "```"

	// Every generated script must start with this import; anything the
	// model prints before it is commentary and gets discarded.
	importMarker = "from manim import"
)

// sceneClassPattern matches the entry-point class the renderer
// instantiates by name. Single-line headers with the literal `Scene`
// base only; multi-line class headers and import aliases are not
// recognized.
var sceneClassPattern = regexp.MustCompile(`class\s+(\w+)\(Scene\):`)

// ExtractBlock returns the contents of the first fenced block tagged
// with tag (e.g. "python", "json"), trimmed of surrounding whitespace.
// A fence that is opened but never closed does not count as a block.
func ExtractBlock(text, tag string) (string, bool) {
	open := fenceMarker + tag
	start := strings.Index(text, open)
	if start == -1 {
		return "", false
	}
	body := text[start+len(open):]
	end := strings.Index(body, fenceMarker)
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}

// TrimToImport drops any leading text before the first Manim import
// statement. Code without the marker is returned unmodified.
func TrimToImport(code string) string {
	if i := strings.Index(code, importMarker); i != -1 {
		return code[i:]
	}
	return code
}

// ResolveSceneName returns the name of the first class in code that
// subclasses Scene, which the renderer needs as its entry point.
func ResolveSceneName(code string) (string, bool) {
	m := sceneClassPattern.FindStringSubmatch(code)
	if m == nil {
		return "", false
	}
	return m[1], true
}
