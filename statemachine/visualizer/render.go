package visualizer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/amp-labs/flowfsm/statemachine"
)

// DefaultRendererBinary is the Graphviz executable used by RenderGraph.
const DefaultRendererBinary = "dot"

var supportedFormats = []string{"png", "svg", "pdf", "jpg", "gif"} //nolint:gochecknoglobals

// Renderer turns a graph into an image by piping its DOT document to a
// Graphviz compatible binary.
type Renderer struct {
	// Binary is the executable name or path. Empty means DefaultRendererBinary.
	Binary string
	// Options controls the generated DOT document.
	Options Options
}

// RenderGraph writes an image of graph to outputPath using the dot binary
// found on PATH. The image format follows the file extension; an unknown or
// missing extension renders PNG.
func RenderGraph(ctx context.Context, graph *statemachine.Graph, outputPath string) error {
	r := Renderer{Options: DefaultOptions()}

	return r.Render(ctx, graph, outputPath)
}

// ImageFormat derives the Graphviz output format from a file name.
func ImageFormat(outputPath string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(outputPath)), ".")
	if ext == "jpeg" {
		ext = "jpg"
	}

	if slices.Contains(supportedFormats, ext) {
		return ext
	}

	return "png"
}

// Render writes an image of graph to outputPath.
func (r Renderer) Render(ctx context.Context, graph *statemachine.Graph, outputPath string) error {
	doc, err := GenerateDOTWithOptions(graph, r.Options)
	if err != nil {
		return err
	}

	binary := r.Binary
	if binary == "" {
		binary = DefaultRendererBinary
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRendererNotFound, binary, err)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:noinlineerr
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var stderr string

	code, err := newCommand(ctx, path, "-T"+ImageFormat(outputPath), "-o", outputPath).
		SetStdinBytes([]byte(doc)).
		SetStderrObserver(func(b []byte) { stderr = strings.TrimSpace(string(b)) }).
		Run()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	if code != 0 {
		return fmt.Errorf("%w: %s exited with status %d: %s", ErrRenderFailed, binary, code, stderr)
	}

	return nil
}
