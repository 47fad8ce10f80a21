package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/unicode/norm"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses a raw feed document into the canonical entry model. Encoding is
// detected by gofeed from the XML declaration and coerced to UTF-8. Structural
// breakage (not XML, no recognizable feed root) is an error; everything
// recoverable is repaired in place and reported as a warning.
func (p *Parser) Run(data []byte, sourceURL, sourceName string) (*Document, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	doc := &Document{
		Kind: detectKind(parsed),
		Metadata: Metadata{
			Title:       parsed.Title,
			Link:        parsed.Link,
			Description: parsed.Description,
			Language:    parsed.Language,
		},
	}

	if parsed.Image != nil {
		doc.Metadata.ImageURL = parsed.Image.URL
	}
	if parsed.PublishedParsed != nil {
		doc.Metadata.PublishedAt = parsed.PublishedParsed
	}

	doc.Entries = make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entry, warnings := p.normalizeItem(item, sourceURL, sourceName)
		doc.Entries = append(doc.Entries, entry)
		doc.Warnings = append(doc.Warnings, warnings...)
	}

	return doc, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item, sourceURL, sourceName string) (Entry, []string) {
	var warnings []string

	entry := Entry{
		Title:      strings.TrimSpace(item.Title),
		Link:       strings.TrimSpace(item.Link),
		SourceURL:  sourceURL,
		SourceName: sourceName,
	}

	summary, changed := Sanitize(item.Description)
	entry.Summary = summary
	if changed {
		warnings = append(warnings, fmt.Sprintf("sanitized summary HTML in %q", entry.Title))
	}

	content, changed := Sanitize(item.Content)
	entry.Content = content
	if changed {
		warnings = append(warnings, fmt.Sprintf("sanitized content HTML in %q", entry.Title))
	}

	// Prefer the published date, fall back to updated. An entry with neither
	// stays zero; the cache store assigns its first-seen time later.
	if item.PublishedParsed != nil {
		entry.Published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		entry.Published = item.UpdatedParsed.UTC()
	} else {
		warnings = append(warnings, fmt.Sprintf("entry %q has no usable timestamp", entry.Title))
	}
	if item.UpdatedParsed != nil {
		updated := item.UpdatedParsed.UTC()
		entry.Updated = &updated
	}

	entry.Authors = p.extractAuthors(item)
	if item.Categories != nil {
		entry.Categories = item.Categories
	}

	entry.UID = p.identity(item, entry)

	return entry, warnings
}

// identity implements the stable-identity policy: feed-provided unique id if
// present, else a fingerprint over normalized link + title, else (no link) a
// fingerprint over title + publish timestamp.
func (p *Parser) identity(item *gofeed.Item, entry Entry) string {
	if guid := strings.TrimSpace(item.GUID); guid != "" {
		return guid
	}

	if entry.Link != "" {
		return fingerprint(normalizeLink(entry.Link), normalizeText(entry.Title))
	}

	ts := ""
	if !entry.Published.IsZero() {
		ts = entry.Published.Format("2006-01-02T15:04:05Z07:00")
	}
	return fingerprint(normalizeText(entry.Title), ts)
}

func fingerprint(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}

// normalizeText applies Unicode NFC and collapses runs of whitespace, so
// incidental formatting differences between fetches do not change identity.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// normalizeLink trims whitespace and strips the fragment, which servers
// routinely vary between responses.
func normalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}
	return link
}

func (p *Parser) extractAuthors(item *gofeed.Item) []string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author != nil {
				if authorStr := p.formatAuthor(author.Name, author.Email); authorStr != "" {
					authors = append(authors, authorStr)
				}
			}
		}
	} else if item.Author != nil {
		if authorStr := p.formatAuthor(item.Author.Name, item.Author.Email); authorStr != "" {
			authors = append(authors, authorStr)
		}
	}

	return authors
}

func (p *Parser) formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name != "" && email != "" {
		return fmt.Sprintf("%s (%s)", email, name)
	}
	return cmp.Or(name, email)
}

func detectKind(parsed *gofeed.Feed) Kind {
	switch parsed.FeedType {
	case "atom":
		return KindAtom
	case "rss":
		if strings.HasPrefix(parsed.FeedVersion, "1.") {
			return KindRSS1
		}
		return KindRSS2
	default:
		return KindUnknown
	}
}
