package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okhm/orbit/app/cfg"
	"github.com/okhm/orbit/app/feed"
	"github.com/okhm/orbit/app/registry"
	"github.com/okhm/orbit/app/run"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	cfg.Set(&cfg.Cfg{
		SiteName:  "Test Orbit",
		SiteLink:  "https://planet.example.com/",
		OwnerName: "Test Owner",
		Version:   "test",
	})
	t.Cleanup(func() { cfg.Set(nil) })
}

func testReport() *run.Report {
	published := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	return &run.Report{
		Results: []run.SourceResult{
			{
				Source:  registry.Source{URL: "https://alpha.example.com/feed", Name: "Alpha"},
				Outcome: run.OutcomeFetched,
				Entries: 1,
			},
			{
				Source:  registry.Source{URL: "https://broken.example.com/feed", Name: "Broken"},
				Outcome: run.OutcomeFailed,
				Message: "404: not found",
			},
			{
				Source:  registry.Source{URL: "https://quiet.example.com/feed", Name: "Quiet"},
				Outcome: run.OutcomeSkipped,
				Message: "request timeout",
			},
		},
		Merged: []feed.Entry{
			{
				UID:        "https://alpha.example.com/post-1",
				Title:      "Hello <World>",
				Link:       "https://alpha.example.com/post-1",
				Summary:    "<p>A post about things &amp; stuff</p>",
				Authors:    []string{"alice@example.com (Alice)"},
				Categories: []string{"go"},
				Published:  published,
				FirstSeen:  published,
				SourceURL:  "https://alpha.example.com/feed",
				SourceName: "Alpha",
			},
		},
	}
}

func TestRunWritesAllPages(t *testing.T) {
	setTestConfig(t)
	dir := t.TempDir()

	renderer := NewRenderer(dir)
	if err := renderer.Run(testReport()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	for _, name := range []string{"index.html", "atom.xml", "rss20.xml", "opml.xml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
	}

	// No temp files left behind.
	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("Expected no leftover temp files, got: %v", matches)
	}
}

func TestRunCreatesOutputDirectory(t *testing.T) {
	setTestConfig(t)
	dir := filepath.Join(t.TempDir(), "nested", "output")

	renderer := NewRenderer(dir)
	if err := renderer.Run(testReport()); err != nil {
		t.Fatalf("Expected output directory to be created, got: %v", err)
	}
}

func TestRenderHTML(t *testing.T) {
	setTestConfig(t)

	data, err := NewRenderer(t.TempDir()).renderHTML(testReport())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	page := string(data)

	if !strings.Contains(page, "Test Orbit") {
		t.Error("Expected site name in page")
	}
	if !strings.Contains(page, "Hello &lt;World&gt;") {
		t.Error("Expected entry title escaped in page")
	}
	// The summary was sanitized at parse time and renders as markup.
	if !strings.Contains(page, "<p>A post about things &amp; stuff</p>") {
		t.Error("Expected entry summary rendered as HTML")
	}
	wantDay := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC).In(time.Local).Format("January 02, 2006")
	if !strings.Contains(page, wantDay) {
		t.Error("Expected a day section header")
	}
	if !strings.Contains(page, "Broken") || !strings.Contains(page, "404: not found") {
		t.Error("Expected failing source listed with its message")
	}
	// A source sitting out its backoff keeps its note in the sidebar.
	if !strings.Contains(page, "Quiet") || !strings.Contains(page, "request timeout") {
		t.Error("Expected skipped source listed with its stored failure note")
	}
}

func TestRenderAtom(t *testing.T) {
	setTestConfig(t)

	data, err := NewRenderer(t.TempDir()).renderAtom(testReport())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	page := string(data)

	if !strings.Contains(page, `<feed xmlns="http://www.w3.org/2005/Atom">`) {
		t.Error("Expected Atom feed root")
	}
	if !strings.Contains(page, "<title>Hello &lt;World&gt;</title>") {
		t.Error("Expected escaped entry title")
	}
	if !strings.Contains(page, "<published>2023-07-03T10:00:00Z</published>") {
		t.Error("Expected RFC 3339 published timestamp")
	}
	if !strings.Contains(page, "<name>alice@example.com (Alice)</name>") {
		t.Error("Expected entry author")
	}
	if !strings.Contains(page, "<title>Alpha</title>") {
		t.Error("Expected source attribution")
	}
}

func TestRenderRSS(t *testing.T) {
	setTestConfig(t)

	data, err := NewRenderer(t.TempDir()).renderRSS(testReport())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	page := string(data)

	if !strings.Contains(page, `<rss version="2.0"`) {
		t.Error("Expected RSS 2.0 root")
	}
	if !strings.Contains(page, `<guid isPermaLink="true">https://alpha.example.com/post-1</guid>`) {
		t.Error("Expected permalink guid")
	}
	if !strings.Contains(page, "<pubDate>Mon, 03 Jul 2023 10:00:00 +0000</pubDate>") {
		t.Error("Expected RFC 1123 pubDate")
	}
	if !strings.Contains(page, "<category>go</category>") {
		t.Error("Expected entry category")
	}
}

func TestRenderOPML(t *testing.T) {
	setTestConfig(t)

	data, err := NewRenderer(t.TempDir()).renderOPML(testReport())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	page := string(data)

	if !strings.Contains(page, `xmlUrl="https://alpha.example.com/feed"`) {
		t.Error("Expected subscription outline for alpha")
	}
	// Failing sources stay on the subscription list.
	if !strings.Contains(page, `xmlUrl="https://broken.example.com/feed"`) {
		t.Error("Expected failing source still listed")
	}
}

func TestRenderEmptyReport(t *testing.T) {
	setTestConfig(t)

	renderer := NewRenderer(t.TempDir())
	if err := renderer.Run(&run.Report{}); err != nil {
		t.Fatalf("Expected empty report to render, got: %v", err)
	}
}
