package feed

import (
	"strings"
	"testing"
)

func TestSanitizeStripsActiveContent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		removed string
	}{
		{"script", `<p>ok</p><script>alert(1)</script>`, "script"},
		{"unclosed script", `<p>ok</p><script>alert(1)`, "script"},
		{"style", `<style>body{display:none}</style><p>ok</p>`, "style"},
		{"iframe", `<iframe src="https://evil.example.com"></iframe><p>ok</p>`, "iframe"},
		{"event handler", `<img src="x.png" onerror="alert(1)">`, "onerror"},
		{"javascript href", `<a href="javascript:alert(1)">x</a>`, "javascript:"},
		{"comment", `<p>ok</p><!-- hidden -->`, "hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned, changed := Sanitize(tt.input)
			if !changed {
				t.Error("Expected sanitizer to report a change")
			}
			if strings.Contains(strings.ToLower(cleaned), tt.removed) {
				t.Errorf("Expected %q to be removed, got: %s", tt.removed, cleaned)
			}
			if !strings.Contains(cleaned, "ok") && strings.Contains(tt.input, "ok") {
				t.Errorf("Benign content lost: %s", cleaned)
			}
		})
	}
}

func TestSanitizeLeavesCleanHTMLAlone(t *testing.T) {
	input := `<p>A perfectly <em>fine</em> summary with a <a href="https://example.com">link</a>.</p>`
	cleaned, changed := Sanitize(input)
	if changed {
		t.Error("Expected no change for clean HTML")
	}
	if cleaned != input {
		t.Errorf("Clean HTML was modified: %s", cleaned)
	}
}

func TestSanitizeReportsTrimOnlyChange(t *testing.T) {
	cleaned, changed := Sanitize("  <p>padded</p>\n")
	if cleaned != "<p>padded</p>" {
		t.Errorf("Expected trimmed output, got: %q", cleaned)
	}
	if !changed {
		t.Error("Expected a returned string differing from the input to report a change")
	}
}

func TestSanitizeEmpty(t *testing.T) {
	if cleaned, changed := Sanitize(""); cleaned != "" || changed {
		t.Error("Expected empty input to pass through untouched")
	}
}

func TestStripTags(t *testing.T) {
	got := StripTags(`<p>Hello   <b>world</b></p> <script>alert(1)</script>!`)
	if got != "Hello world !" {
		t.Errorf("Expected 'Hello world !', got: %q", got)
	}
}
