package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/choneas/atelier/pkg/logger"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logger  logger.Config `yaml:"logger"`
	Notion  NotionConfig  `yaml:"notion"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Social  SocialConfig  `yaml:"social"`
	Locale  LocaleConfig  `yaml:"locale"`
	Authors []AuthorEntry `yaml:"authors"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type NotionConfig struct {
	APIBaseURL   string `yaml:"api_base_url"`
	Token        string `yaml:"token"`
	RootPageID   string `yaml:"root_page_id"`
	CollectionID string `yaml:"collection_id"`
}

// ProxyConfig rewrites outbound content-store traffic through mirror hosts
// when Enabled is set. APIHost replaces the content-store API domain,
// AssetHost the asset CDN domain.
type ProxyConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIHost   string `yaml:"api_host"`
	AssetHost string `yaml:"asset_host"`
}

type SocialConfig struct {
	BlueskyHandle   string   `yaml:"bluesky_handle"`
	BlueskyAPIBase  string   `yaml:"bluesky_api_base"`
	TwitterUsername string   `yaml:"twitter_username"`
	NitterInstances []string `yaml:"nitter_instances"`
	RSS2JSONBase    string   `yaml:"rss2json_base"`
}

type LocaleConfig struct {
	MessagesDir   string `yaml:"messages_dir"`
	DefaultLocale string `yaml:"default_locale"`
}

// AuthorEntry is one row of the static author directory keyed by the
// content store's internal user UUID.
type AuthorEntry struct {
	UUID   string `yaml:"uuid"`
	Name   string `yaml:"name"`
	Avatar string `yaml:"avatar"`
	URL    string `yaml:"url"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5334
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Notion.APIBaseURL == "" {
		cfg.Notion.APIBaseURL = "https://www.notion.so/api/v3"
	}
	if cfg.Social.BlueskyAPIBase == "" {
		cfg.Social.BlueskyAPIBase = "https://public.api.bsky.app"
	}
	if cfg.Social.RSS2JSONBase == "" {
		cfg.Social.RSS2JSONBase = "https://api.rss2json.com/v1/api.json"
	}
	if len(cfg.Social.NitterInstances) == 0 {
		cfg.Social.NitterInstances = []string{
			"nitter.net",
			"nitter.privacydev.net",
			"nitter.poast.org",
		}
	}
	if cfg.Locale.MessagesDir == "" {
		cfg.Locale.MessagesDir = "messages"
	}
	if cfg.Locale.DefaultLocale == "" {
		cfg.Locale.DefaultLocale = "en"
	}

	return cfg, nil
}
