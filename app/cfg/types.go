package cfg

type Cfg struct {
	// Aggregation inputs
	SourcesFile string
	CachePath   string
	OutputDir   string

	// Run behavior
	WorkerCount  int
	FetchTimeout int // seconds, per source
	RunTimeout   int // seconds, whole run
	MaxBodySize  int64
	WindowSize   int // cached entries kept per source
	MaxItems     int // entries in the merged output

	// Site metadata for rendered pages
	SiteName   string
	SiteLink   string
	OwnerName  string
	OwnerEmail string

	// Preview server
	Serve bool
	Port  string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
