package feed

import (
	"regexp"
	"strings"
)

// Feeds routinely embed broken or hostile markup in summaries. The policy is
// to repair rather than reject: active elements and inline handlers are
// stripped, the remaining text is kept.

var (
	scriptRe  = regexp.MustCompile(`(?is)<script\b.*?(?:</script>|$)`)
	styleRe   = regexp.MustCompile(`(?is)<style\b.*?(?:</style>|$)`)
	iframeRe  = regexp.MustCompile(`(?is)<iframe\b.*?(?:</iframe>|$)`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?(?:-->|$)`)
	handlerRe = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	jsHrefRe  = regexp.MustCompile(`(?i)\s+(href|src)\s*=\s*(?:"javascript:[^"]*"|'javascript:[^']*')`)
)

// Sanitize returns the cleaned HTML and whether anything was removed.
func Sanitize(html string) (string, bool) {
	if html == "" {
		return "", false
	}

	cleaned := html
	for _, re := range []*regexp.Regexp{scriptRe, styleRe, iframeRe, commentRe, handlerRe, jsHrefRe} {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	return cleaned, cleaned != html
}

// StripTags removes all markup, leaving plain text. Used for one-line
// summaries on generated pages.
var tagRe = regexp.MustCompile(`(?s)<[^>]*>`)

func StripTags(html string) string {
	cleaned, _ := Sanitize(html)
	return strings.Join(strings.Fields(tagRe.ReplaceAllString(cleaned, " ")), " ")
}
