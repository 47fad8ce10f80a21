package registry

import (
	"cmp"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Registry is the ordered set of sources for one aggregation run. The order
// of the file is preserved: it decides merge tie-breaks and cross-source
// dedup attribution.
type Registry struct {
	sources []Source
	byURL   map[string]int
}

// Load reads the sources file. Entries without a usable URL are skipped with
// a warning; an unreadable or unparseable file is an error, since without a
// registry there is nothing to aggregate.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	r := &Registry{byURL: make(map[string]int)}
	for i, src := range file.Sources {
		if src.URL == "" {
			slog.Warn("Skipping source without URL", "index", i, "name", src.Name)
			continue
		}
		if u, err := url.Parse(src.URL); err != nil || u.Scheme == "" || u.Host == "" {
			slog.Warn("Skipping source with invalid URL", "index", i, "url", src.URL)
			continue
		}
		if _, ok := r.byURL[src.URL]; ok {
			slog.Warn("Skipping duplicate source", "url", src.URL)
			continue
		}

		src.Name = cmp.Or(src.Name, src.URL)
		r.byURL[src.URL] = len(r.sources)
		r.sources = append(r.sources, src)
	}

	if len(r.sources) == 0 {
		return nil, fmt.Errorf("sources file %s contains no usable sources", path)
	}

	return r, nil
}

// Sources returns the sources in file order.
func (r *Registry) Sources() []Source {
	return r.sources
}

// Position returns the registry position of a source URL, or -1 if the URL
// is not registered.
func (r *Registry) Position(url string) int {
	if pos, ok := r.byURL[url]; ok {
		return pos
	}
	return -1
}

func (r *Registry) Len() int {
	return len(r.sources)
}
