package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "HAGWON_SCANNER_CONFIG"
	databaseDSNEnv     = "DATABASE_DSN"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	youtubeAPIKeyEnv   = "YOUTUBE_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Study     StudyConfig     `yaml:"study"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	YouTube   YouTubeConfig   `yaml:"youtube"`
	Sites     []SiteConfig    `yaml:"sites"`
	Output    OutputConfig    `yaml:"output"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DatabaseConfig describes the optional Postgres archive. An empty DSN
// disables the archive and the pipeline runs file-only.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// StudyConfig bounds the publication years covered by the corpus.
type StudyConfig struct {
	FromYear int `yaml:"fromYear"`
	ToYear   int `yaml:"toYear"`
}

// AnthropicConfig defines how to contact the Anthropic API.
type AnthropicConfig struct {
	APIKey         string    `yaml:"apiKey"`
	BatchModel     string    `yaml:"batchModel"`
	ClassifyModels ModelPair `yaml:"classifyModels"`
	MaxTokens      int       `yaml:"maxTokens"`
}

// ModelPair names the model behind each --model flag value.
type ModelPair struct {
	Sonnet string `yaml:"sonnet"`
	Haiku  string `yaml:"haiku"`
}

// Model resolves a flag value to a concrete model name.
func (m ModelPair) Model(name string) (string, error) {
	switch name {
	case "sonnet", "":
		return m.Sonnet, nil
	case "haiku":
		return m.Haiku, nil
	}
	return "", fmt.Errorf("unknown model %q (want sonnet or haiku)", name)
}

// YouTubeConfig wires the Data API key and the channels to scan.
type YouTubeConfig struct {
	APIKey          string   `yaml:"apiKey"`
	Channels        []string `yaml:"channels"`
	MaxVideos       int      `yaml:"maxVideos"`
	CommentsPerPage int      `yaml:"commentsPerPage"`
}

// SiteConfig describes a single publication with its scanner strategy.
type SiteConfig struct {
	Name       string            `yaml:"name"`
	Scanner    string            `yaml:"scanner"`
	Keywords   []string          `yaml:"keywords"`
	Categories []CategoryConfig  `yaml:"categories"`
	Options    map[string]string `yaml:"options"`
}

// CategoryConfig holds the concrete endpoints to crawl: search pages,
// sitemap indexes, or RSS feeds depending on the scanner.
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// OutputConfig sets where pipeline stages write their files.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}

	return cfg
}

// RequireAnthropic fails fast when a command needs the Anthropic API.
func (c Config) RequireAnthropic() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
	return nil
}

// RequireYouTube fails fast when a command needs the YouTube Data API.
func (c Config) RequireYouTube() error {
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY is not set")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(anthropicAPIKeyEnv); v != "" {
		c.Anthropic.APIKey = v
	}

	if v := os.Getenv(youtubeAPIKeyEnv); v != "" {
		c.YouTube.APIKey = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Study.FromYear != 0 {
		base.Study.FromYear = override.Study.FromYear
	}
	if override.Study.ToYear != 0 {
		base.Study.ToYear = override.Study.ToYear
	}

	if override.Anthropic.APIKey != "" {
		base.Anthropic.APIKey = override.Anthropic.APIKey
	}
	if override.Anthropic.BatchModel != "" {
		base.Anthropic.BatchModel = override.Anthropic.BatchModel
	}
	if override.Anthropic.ClassifyModels.Sonnet != "" {
		base.Anthropic.ClassifyModels.Sonnet = override.Anthropic.ClassifyModels.Sonnet
	}
	if override.Anthropic.ClassifyModels.Haiku != "" {
		base.Anthropic.ClassifyModels.Haiku = override.Anthropic.ClassifyModels.Haiku
	}
	if override.Anthropic.MaxTokens != 0 {
		base.Anthropic.MaxTokens = override.Anthropic.MaxTokens
	}

	if override.YouTube.APIKey != "" {
		base.YouTube.APIKey = override.YouTube.APIKey
	}
	if len(override.YouTube.Channels) > 0 {
		base.YouTube.Channels = override.YouTube.Channels
	}
	if override.YouTube.MaxVideos != 0 {
		base.YouTube.MaxVideos = override.YouTube.MaxVideos
	}
	if override.YouTube.CommentsPerPage != 0 {
		base.YouTube.CommentsPerPage = override.YouTube.CommentsPerPage
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	if override.Output.Dir != "" {
		base.Output = override.Output
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{DSN: ""},
		Study:    StudyConfig{FromYear: 2005, ToYear: 2019},
		Anthropic: AnthropicConfig{
			BatchModel: "claude-3-5-sonnet-20241022",
			ClassifyModels: ModelPair{
				Sonnet: "claude-3-5-sonnet-20241022",
				Haiku:  "claude-3-5-haiku-20241022",
			},
			MaxTokens: 4096,
		},
		YouTube: YouTubeConfig{
			MaxVideos:       50,
			CommentsPerPage: 100,
		},
		Sites: []SiteConfig{
			{
				Name:     "yonhap",
				Scanner:  "yonhap",
				Keywords: []string{"학원 강사", "학원강사"},
				Categories: []CategoryConfig{
					{Name: "search", URL: "https://www.yna.co.kr/search/index"},
				},
			},
			{
				Name:    "donga",
				Scanner: "donga",
				Categories: []CategoryConfig{
					{Name: "sitemap", URL: "https://www.donga.com/sitemap/index.xml"},
				},
			},
			{
				Name:     "joongang",
				Scanner:  "joongang",
				Keywords: []string{"학원강사"},
				Categories: []CategoryConfig{
					{Name: "search", URL: "https://www.joongang.co.kr/search"},
				},
			},
			{
				Name:     "sbs",
				Scanner:  "sbs",
				Keywords: []string{"학원강사"},
				Categories: []CategoryConfig{
					{Name: "search", URL: "https://searchapi.news.sbs.co.kr/search/main"},
				},
			},
		},
		Output: OutputConfig{Dir: "data"},
	}
}
