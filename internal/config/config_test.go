package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(anthropicAPIKeyEnv, "")
	t.Setenv(youtubeAPIKeyEnv, "")

	cfg := Load()

	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Study.FromYear != 2005 || cfg.Study.ToYear != 2019 {
		t.Fatalf("unexpected study window: %+v", cfg.Study)
	}
	if len(cfg.Sites) != 4 {
		t.Fatalf("expected 4 default sites, got %d", len(cfg.Sites))
	}
	if cfg.Sites[0].Scanner != "yonhap" {
		t.Fatalf("unexpected first site: %+v", cfg.Sites[0])
	}
	if cfg.Output.Dir != "data" {
		t.Fatalf("unexpected output dir: %s", cfg.Output.Dir)
	}
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `
logging:
  level: debug
  format: json
study:
  fromYear: 2010
sites:
  - name: yonhap
    scanner: yonhap
    keywords: ["학원강사"]
    categories:
      - name: search
        url: https://example.com/search
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(anthropicAPIKeyEnv, "")
	t.Setenv(youtubeAPIKeyEnv, "")

	cfg := Load()

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("file values not merged: %+v", cfg.Logging)
	}
	if cfg.Study.FromYear != 2010 {
		t.Fatalf("fromYear not merged: %d", cfg.Study.FromYear)
	}
	// unset file values keep defaults
	if cfg.Study.ToYear != 2019 {
		t.Fatalf("toYear should keep default: %d", cfg.Study.ToYear)
	}
	if len(cfg.Sites) != 1 || cfg.Sites[0].Categories[0].URL != "https://example.com/search" {
		t.Fatalf("sites not replaced: %+v", cfg.Sites)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "postgres://localhost/hagwon")
	t.Setenv(anthropicAPIKeyEnv, "test-anthropic")
	t.Setenv(youtubeAPIKeyEnv, "test-youtube")

	cfg := Load()

	if cfg.Database.DSN != "postgres://localhost/hagwon" {
		t.Fatalf("dsn override missing: %s", cfg.Database.DSN)
	}
	if cfg.Anthropic.APIKey != "test-anthropic" || cfg.YouTube.APIKey != "test-youtube" {
		t.Fatal("api key overrides missing")
	}
	if err := cfg.RequireAnthropic(); err != nil {
		t.Fatalf("RequireAnthropic: %v", err)
	}
	if err := cfg.RequireYouTube(); err != nil {
		t.Fatalf("RequireYouTube: %v", err)
	}
}

func TestRequireFailsWithoutKeys(t *testing.T) {
	var cfg Config
	if err := cfg.RequireAnthropic(); err == nil {
		t.Fatal("expected error without anthropic key")
	}
	if err := cfg.RequireYouTube(); err == nil {
		t.Fatal("expected error without youtube key")
	}
}

func TestModelPair(t *testing.T) {
	t.Parallel()

	pair := ModelPair{Sonnet: "claude-3-5-sonnet-20241022", Haiku: "claude-3-5-haiku-20241022"}

	cases := []struct {
		in, want string
		wantErr  bool
	}{
		{"sonnet", "claude-3-5-sonnet-20241022", false},
		{"", "claude-3-5-sonnet-20241022", false},
		{"haiku", "claude-3-5-haiku-20241022", false},
		{"opus", "", true},
	}
	for _, tc := range cases {
		got, err := pair.Model(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Model(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("Model(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}
