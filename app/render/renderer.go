// Package render writes the merged sequence to static output pages:
// index.html, atom.xml, rss20.xml and an OPML subscription list. The
// aggregation core knows nothing about these formats; everything here
// consumes the run report through its public shape.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/okhm/orbit/app/run"
)

type Renderer struct {
	outputDir string
}

func NewRenderer(outputDir string) *Renderer {
	return &Renderer{outputDir: outputDir}
}

// Run renders all output files. An unwritable output directory is an error
// (fatal for the process); a single page failing to render is logged and
// skipped so one bad template cannot take down the whole site.
func (r *Renderer) Run(report *run.Report) error {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	pages := []struct {
		name   string
		render func(*run.Report) ([]byte, error)
	}{
		{"index.html", r.renderHTML},
		{"atom.xml", r.renderAtom},
		{"rss20.xml", r.renderRSS},
		{"opml.xml", r.renderOPML},
	}

	var rendered int
	for _, page := range pages {
		data, err := page.render(report)
		if err != nil {
			slog.Error("Failed to render page", "page", page.name, "error", err)
			continue
		}
		if err := r.writeFile(page.name, data); err != nil {
			return err
		}
		rendered++
	}

	slog.Info("Output written", "dir", r.outputDir, "pages", rendered)
	return nil
}

// writeFile replaces the target atomically: readers of the output directory
// (the preview server, a web server pointed at it) never see a half-written
// page.
func (r *Renderer) writeFile(name string, data []byte) error {
	target := filepath.Join(r.outputDir, name)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
