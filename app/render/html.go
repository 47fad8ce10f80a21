package render

import (
	"bytes"
	"cmp"
	"html/template"
	"time"

	"github.com/okhm/orbit/app/cfg"
	"github.com/okhm/orbit/app/feed"
	"github.com/okhm/orbit/app/run"
)

type entryView struct {
	Title      string
	Link       string
	Summary    template.HTML
	Authors    string
	SourceName string
	Time       string
}

type dayView struct {
	Date    string
	Entries []entryView
}

type channelView struct {
	Name    string
	URL     string
	Message string
}

type pageView struct {
	SiteName  string
	SiteLink  string
	OwnerName string
	Generator string
	BuiltAt   string
	Days      []dayView
	Channels  []channelView
}

func (r *Renderer) renderHTML(report *run.Report) ([]byte, error) {
	c := cfg.Get()

	view := pageView{
		SiteName:  c.SiteName,
		SiteLink:  c.SiteLink,
		OwnerName: c.OwnerName,
		Generator: "Orbit/" + c.Version,
		BuiltAt:   time.Now().In(time.Local).Format("January 02, 2006 03:04 PM"),
		Days:      groupByDay(report.Merged),
		Channels:  channelViews(report.Results),
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// groupByDay splits the newest-first sequence into per-day sections, the way
// the portal front page presents them.
func groupByDay(entries []feed.Entry) []dayView {
	var days []dayView
	var prev string

	for _, entry := range entries {
		local := entry.Published.In(time.Local)
		date := local.Format("January 02, 2006")
		if date != prev {
			days = append(days, dayView{Date: date})
			prev = date
		}

		summary := entry.Summary
		if summary == "" {
			summary = entry.Content
		}

		authors := ""
		if len(entry.Authors) > 0 {
			authors = entry.Authors[0]
		}

		day := &days[len(days)-1]
		day.Entries = append(day.Entries, entryView{
			Title:      cmp.Or(entry.Title, entry.Link),
			Link:       entry.Link,
			Summary:    template.HTML(summary), // sanitized at parse time
			Authors:    authors,
			SourceName: entry.SourceName,
			Time:       local.Format("15:04"),
		})
	}

	return days
}

func channelViews(results []run.SourceResult) []channelView {
	views := make([]channelView, 0, len(results))
	for _, res := range results {
		view := channelView{Name: res.Source.Name, URL: res.Source.URL}
		// Skipped sources carry their stored failure note, so a dead feed
		// stays annotated while it backs off.
		if res.Outcome == run.OutcomeFailed || res.Outcome == run.OutcomeSkipped {
			view.Message = res.Message
		}
		views = append(views, view)
	}
	return views
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.SiteName}}</title>
<meta name="generator" content="{{.Generator}}">
<link rel="alternate" type="application/atom+xml" title="{{.SiteName}}" href="atom.xml">
<link rel="alternate" type="application/rss+xml" title="{{.SiteName}}" href="rss20.xml">
</head>
<body>
<h1><a href="{{.SiteLink}}">{{.SiteName}}</a></h1>

<div class="entries">
{{range .Days}}
<h2 class="date">{{.Date}}</h2>
{{range .Entries}}
<div class="entry">
  <h3><a href="{{.Link}}">{{.Title}}</a></h3>
  <p class="meta">{{.SourceName}}{{if .Authors}} &mdash; {{.Authors}}{{end}} at {{.Time}}</p>
  <div class="body">{{.Summary}}</div>
</div>
{{end}}
{{end}}
</div>

<div class="sidebar">
<h2>Subscriptions</h2>
<ul>
{{range .Channels}}
  <li><a href="{{.URL}}">{{.Name}}</a>{{if .Message}} <em>({{.Message}})</em>{{end}}</li>
{{end}}
</ul>
<p><a href="opml.xml">OPML</a> &middot; <a href="atom.xml">Atom</a> &middot; <a href="rss20.xml">RSS</a></p>
<p class="footer">Maintained by {{.OwnerName}}. Last updated {{.BuiltAt}}.<br>Powered by {{.Generator}}.</p>
</div>
</body>
</html>
`))
