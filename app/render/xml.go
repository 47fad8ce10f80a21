package render

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/okhm/orbit/app/cfg"
	"github.com/okhm/orbit/app/run"
)

// Hand-built XML writers. The structures are flat and fixed, so a buffer
// with explicit escaping beats wrestling encoding/xml struct tags into the
// exact element order aggregator clients expect.

func (r *Renderer) renderAtom(report *run.Report) ([]byte, error) {
	c := cfg.Get()
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n")

	writeElement(&buf, "title", c.SiteName, 2)
	buf.WriteString(fmt.Sprintf("  <link href=%q rel=\"alternate\" type=\"text/html\" />\n", html.EscapeString(c.SiteLink)))
	buf.WriteString(fmt.Sprintf("  <link href=%q rel=\"self\" type=\"application/atom+xml\" />\n", html.EscapeString(joinURL(c.SiteLink, "atom.xml"))))
	writeElement(&buf, "id", c.SiteLink, 2)
	writeElement(&buf, "updated", time.Now().UTC().Format(time.RFC3339), 2)
	writeElement(&buf, "generator", "Orbit/"+c.Version, 2)
	if c.OwnerName != "" {
		buf.WriteString("  <author>\n")
		writeElement(&buf, "name", c.OwnerName, 4)
		if c.OwnerEmail != "" {
			writeElement(&buf, "email", c.OwnerEmail, 4)
		}
		buf.WriteString("  </author>\n")
	}

	for _, entry := range report.Merged {
		buf.WriteString("  <entry>\n")
		writeElement(&buf, "id", cmp.Or(entry.Link, entry.UID), 4)
		writeElement(&buf, "title", entry.Title, 4)
		if entry.Link != "" {
			buf.WriteString(fmt.Sprintf("    <link href=%q rel=\"alternate\" type=\"text/html\" />\n", html.EscapeString(entry.Link)))
		}
		writeElement(&buf, "published", entry.Published.UTC().Format(time.RFC3339), 4)
		updated := entry.Published
		if entry.Updated != nil {
			updated = *entry.Updated
		}
		writeElement(&buf, "updated", updated.UTC().Format(time.RFC3339), 4)
		for _, author := range entry.Authors {
			buf.WriteString("    <author>\n")
			writeElement(&buf, "name", author, 6)
			buf.WriteString("    </author>\n")
		}
		if entry.SourceName != "" {
			buf.WriteString("    <source>\n")
			writeElement(&buf, "title", entry.SourceName, 6)
			writeElement(&buf, "id", entry.SourceURL, 6)
			buf.WriteString("    </source>\n")
		}
		if body := cmp.Or(entry.Content, entry.Summary); body != "" {
			buf.WriteString(`    <content type="html">`)
			xml.EscapeText(&buf, []byte(body))
			buf.WriteString("</content>\n")
		}
		buf.WriteString("  </entry>\n")
	}

	buf.WriteString("</feed>\n")
	return buf.Bytes(), nil
}

func (r *Renderer) renderRSS(report *run.Report) ([]byte, error) {
	c := cfg.Get()
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	writeElement(&buf, "title", c.SiteName, 4)
	writeElement(&buf, "link", c.SiteLink, 4)
	writeElement(&buf, "description", fmt.Sprintf("Aggregated entries for %s", c.SiteName), 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=%q rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(joinURL(c.SiteLink, "rss20.xml"))))

	lastBuildDate := time.Now().UTC()
	if len(report.Merged) > 0 {
		lastBuildDate = report.Merged[0].Published
	}
	writeElement(&buf, "lastBuildDate", lastBuildDate.UTC().Format(time.RFC1123Z), 4)
	writeElement(&buf, "generator", "Orbit/"+c.Version, 4)

	for _, entry := range report.Merged {
		buf.WriteString("    <item>\n")
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", isURL(entry.UID)))
		xml.EscapeText(&buf, []byte(entry.UID))
		buf.WriteString("</guid>\n")
		writeElement(&buf, "title", entry.Title, 6)
		writeElement(&buf, "link", entry.Link, 6)
		writeElement(&buf, "description", cmp.Or(entry.Summary, entry.Content), 6)
		writeElement(&buf, "pubDate", entry.Published.UTC().Format(time.RFC1123Z), 6)
		if len(entry.Authors) > 0 {
			writeElement(&buf, "author", entry.Authors[0], 6)
		}
		for _, category := range entry.Categories {
			writeElement(&buf, "category", category, 6)
		}
		writeElement(&buf, "source", entry.SourceName, 6)
		buf.WriteString("    </item>\n")
	}

	buf.WriteString("  </channel>\n</rss>\n")
	return buf.Bytes(), nil
}

func (r *Renderer) renderOPML(report *run.Report) ([]byte, error) {
	c := cfg.Get()
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n<opml version=\"2.0\">\n  <head>\n")
	writeElement(&buf, "title", c.SiteName, 4)
	writeElement(&buf, "dateModified", time.Now().UTC().Format(time.RFC1123Z), 4)
	writeElement(&buf, "ownerName", c.OwnerName, 4)
	if c.OwnerEmail != "" {
		writeElement(&buf, "ownerEmail", c.OwnerEmail, 4)
	}
	buf.WriteString("  </head>\n  <body>\n")

	for _, res := range report.Results {
		buf.WriteString(fmt.Sprintf("    <outline type=\"rss\" text=%q xmlUrl=%q />\n",
			html.EscapeString(res.Source.Name), html.EscapeString(res.Source.URL)))
	}

	buf.WriteString("  </body>\n</opml>\n")
	return buf.Bytes(), nil
}

func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func joinURL(base, name string) string {
	return strings.TrimSuffix(base, "/") + "/" + name
}
