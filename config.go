package enrich

import (
	"os"
	"path/filepath"
	"time"

	"github.com/paperpulse/enrich/llm"
)

// Config holds all configuration for the enrichment engine.
type Config struct {
	// DBPath is the full path to the SQLite database file shared with the
	// rest of the product. If empty, defaults to ~/.paperpulse/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "paperpulse".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath is not
	// explicitly set. Options: "home" (default) uses ~/.paperpulse/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// InitSchema creates the enrichment tables on startup when they are
	// missing. Deployments where the web app owns the schema leave this
	// false; the store then runs in no-cache mode until the columns appear.
	InitSchema bool `json:"init_schema" yaml:"init_schema"`

	// Artifact freshness windows per enrichment kind.
	StructureTTL time.Duration `json:"structure_ttl" yaml:"structure_ttl"`
	ThumbnailTTL time.Duration `json:"thumbnail_ttl" yaml:"thumbnail_ttl"`
	AnalysisTTL  time.Duration `json:"analysis_ttl" yaml:"analysis_ttl"`

	// FailureCooldown suppresses retries after a failed cascade.
	FailureCooldown time.Duration `json:"failure_cooldown" yaml:"failure_cooldown"`

	// ProviderTimeout bounds each individual provider invocation so total
	// cascade latency stays bounded when upstream services hang.
	ProviderTimeout time.Duration `json:"provider_timeout" yaml:"provider_timeout"`

	// MinTextLength is the minimum extracted-text length considered usable
	// by the structure chain.
	MinTextLength int `json:"min_text_length" yaml:"min_text_length"`

	// FetchRateLimit is the maximum upstream requests per second.
	FetchRateLimit float64 `json:"fetch_rate_limit" yaml:"fetch_rate_limit"`

	// UserAgent identifies this client to upstream hosts.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// PreviewURLTemplate is the convention-based location of a native
	// preview image on the source host. {id} is replaced by the paper ID.
	PreviewURLTemplate string `json:"preview_url_template" yaml:"preview_url_template"`

	// ScreenshotServices are page-rendering service URL templates, tried in
	// order. {url} is replaced by the escaped source URL.
	ScreenshotServices []string `json:"screenshot_services" yaml:"screenshot_services"`

	// MetadataAPIURL is the Atom API endpoint for paper metadata lookups.
	MetadataAPIURL string `json:"metadata_api_url" yaml:"metadata_api_url"`

	// Analysis configures the LLM used for paper analysis. Nil disables
	// the LLM stage; the canned analysis fallback still runs.
	Analysis *llm.Config `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// DefaultConfig returns a Config with the inherited product defaults.
// Database is stored in ~/.paperpulse/paperpulse.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:          "paperpulse",
		StorageDir:      "home",
		InitSchema:      true,
		StructureTTL:    24 * time.Hour,
		ThumbnailTTL:    7 * 24 * time.Hour,
		AnalysisTTL:     30 * 24 * time.Hour,
		FailureCooldown: 24 * time.Hour,
		ProviderTimeout: 20 * time.Second,
		MinTextLength:   100,
		FetchRateLimit:  2,
		UserAgent:       "paperpulse-enrich/1.0 (+https://paperpulse.dev)",

		PreviewURLTemplate: "https://static.arxiv.org/thumbnails/{id}.png",
		ScreenshotServices: []string{
			"https://image.thum.io/get/width/600/{url}",
			"https://api.pagepeeker.com/v2/thumbs.php?size=m&url={url}",
		},
		MetadataAPIURL: "https://export.arxiv.org/api/query",
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "paperpulse"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		dir := filepath.Join(home, ".paperpulse")
		return filepath.Join(dir, name+".db")
	}
}
