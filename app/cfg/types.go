package cfg

type Cfg struct {
	// HTTP surface
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Storage locations
	DataDir      string
	SourcesDir   string
	DatabasePath string

	// Archives registered when SourcesDir has no definitions
	OfficialArchive        string
	OfficialBootstrapURL   string
	ThirdPartyArchive      string
	ThirdPartyBootstrapURL string

	// Exclusion store
	ExclusionBackend string
	ExclusionFile    string
	RedisAddr        string
	RedisDB          int
	RedisKey         string

	// Live feed
	LiveFeedKind    string
	LiveFeedURLs    []string
	SpreadsheetID   string
	LiveTab         string
	CredentialsFile string
	RefreshInterval int

	// Ledger
	LedgerBackend string
	LedgerTab     string

	// Media
	DownloadDir string
	MediaFormat string

	// Background work
	WorkerCount int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
