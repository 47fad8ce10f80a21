package registry

// Source is one configured feed. The URL is the stable key used for cache
// records and entry attribution; Name is the display name on generated pages.
type Source struct {
	URL      string `yaml:"url"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}
