package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/byteowlz/trackr/internal/source"
)

type Config struct {
	Network NetworkConfig           `mapstructure:"network"`
	Browser BrowserConfig           `mapstructure:"browser"`
	Sources map[string]SourceConfig `mapstructure:"sources"`
	Summary SummaryConfig           `mapstructure:"summary"`
	Weather WeatherConfig           `mapstructure:"weather"`
	Cache   CacheConfig             `mapstructure:"cache"`
	Output  OutputConfig            `mapstructure:"output"`
	Logging LoggingConfig           `mapstructure:"logging"`
	Watch   WatchConfig             `mapstructure:"watch"`
	Server  ServerConfig            `mapstructure:"server"`
}

type NetworkConfig struct {
	Timeout         int    `mapstructure:"timeout"`
	UserAgent       string `mapstructure:"user_agent"`
	BrowserAgent    string `mapstructure:"browser_agent"`
	FollowRedirects bool   `mapstructure:"follow_redirects"`
	MaxRedirects    int    `mapstructure:"max_redirects"`
	FetchMode       string `mapstructure:"fetch_mode"`
	HTTPProxy       string `mapstructure:"http_proxy"`
	HTTPSProxy      string `mapstructure:"https_proxy"`
}

type BrowserConfig struct {
	Default string `mapstructure:"default"`
}

// SourceConfig overrides or defines a board. Pointer fields distinguish unset
// from an explicit zero.
type SourceConfig struct {
	Title            string `mapstructure:"title"`
	URL              string `mapstructure:"url"`
	BaseURL          string `mapstructure:"base_url"`
	MarkerClass      string `mapstructure:"marker_class"`
	NoiseSelector    string `mapstructure:"noise_selector"`
	DescriptionClass string `mapstructure:"description_class"`
	InfoClass        string `mapstructure:"info_class"`
	InfoLinkClass    string `mapstructure:"info_link_class"`
	SkipCount        *int   `mapstructure:"skip_count"`
	Timeout          int    `mapstructure:"timeout"`
	MaxRedirects     int    `mapstructure:"max_redirects"`
	UseProxy         *bool  `mapstructure:"use_proxy"`
	BrowserCookies   *bool  `mapstructure:"browser_cookies"`
	FetchMode        string `mapstructure:"fetch_mode"`
}

type SummaryConfig struct {
	ArticleBackend string `mapstructure:"article_backend"`
	ClientID       string `mapstructure:"client_id"`
	ClientSecret   string `mapstructure:"client_secret"`
	Endpoint       string `mapstructure:"endpoint"`
	Language       string `mapstructure:"language"`
	Model          string `mapstructure:"model"`
	Tone           int    `mapstructure:"tone"`
	SummaryCount   int    `mapstructure:"summary_count"`
	ChunkSize      int    `mapstructure:"chunk_size"`
	CacheTTL       int    `mapstructure:"cache_ttl"`
	JinaAPIKey     string `mapstructure:"jina_api_key"`
	TavilyAPIKey   string `mapstructure:"tavily_api_key"`
	TavilyDepth    string `mapstructure:"tavily_depth"`
}

type WeatherConfig struct {
	APIKey   string `mapstructure:"api_key"`
	City     string `mapstructure:"city"`
	Endpoint string `mapstructure:"endpoint"`
	CacheTTL int    `mapstructure:"cache_ttl"`
}

type CacheConfig struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Prefix        string `mapstructure:"prefix"`
}

type OutputConfig struct {
	DefaultFormat string `mapstructure:"default_format"`
	LineWidth     int    `mapstructure:"line_width"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	Color bool   `mapstructure:"color"`
}

type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			Timeout:         30,
			FollowRedirects: true,
			MaxRedirects:    10,
			FetchMode:       "static",
		},
		Browser: BrowserConfig{
			Default: "auto",
		},
		Sources: map[string]SourceConfig{},
		Summary: SummaryConfig{
			ArticleBackend: "paragraphs",
			Endpoint:       "https://naveropenapi.apigw.ntruss.com/text-summary/v1/summarize",
			Language:       "ko",
			Model:          "general",
			Tone:           3,
			SummaryCount:   3,
			ChunkSize:      2000,
			CacheTTL:       86400,
			TavilyDepth:    "basic",
		},
		Weather: WeatherConfig{
			City:     "Yangju-si, KR",
			Endpoint: "https://api.openweathermap.org/data/2.5/weather",
			CacheTTL: 600,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			Prefix:    "trackr",
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			LineWidth:     80,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Schedule: "@every 10m",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// Dir returns $XDG_CONFIG_HOME/trackr, falling back to ~/.config/trackr.
func Dir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error finding home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "trackr"), nil
}

// DefaultPath returns the config file used when no --config is given.
func DefaultPath() string {
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// Load reads configFile (or the default location) over the defaults. A missing
// default file is not an error. Environment variables prefixed TRACKR_ override
// file values, e.g. TRACKR_NETWORK_TIMEOUT. A .env file next to the config
// file or in the working directory is loaded into the environment first.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()

	var configDir string
	if configFile != "" {
		v.SetConfigFile(configFile)
		configDir = filepath.Dir(configFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return cfg, err
		}
		configDir = dir
		v.AddConfigPath(dir)
		v.SetConfigType("toml")
		v.SetConfigName("config")
	}

	if err := loadDotEnv(filepath.Join(configDir, ".env"), ".env"); err != nil {
		return cfg, err
	}

	v.SetEnvPrefix("TRACKR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.applySecretEnv()
	return cfg, cfg.Validate()
}

// loadDotEnv loads each existing file in order. Variables already set in the
// environment are never overwritten.
func loadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("error loading %s: %w", path, err)
		}
	}
	return nil
}

// bindDefaults registers every scalar key so AutomaticEnv can override keys
// that are absent from the file.
func bindDefaults(v *viper.Viper, cfg *Config) {
	defaults := map[string]any{
		"network.timeout":          cfg.Network.Timeout,
		"network.user_agent":       cfg.Network.UserAgent,
		"network.browser_agent":    cfg.Network.BrowserAgent,
		"network.follow_redirects": cfg.Network.FollowRedirects,
		"network.max_redirects":    cfg.Network.MaxRedirects,
		"network.fetch_mode":       cfg.Network.FetchMode,
		"network.http_proxy":       cfg.Network.HTTPProxy,
		"network.https_proxy":      cfg.Network.HTTPSProxy,
		"browser.default":          cfg.Browser.Default,
		"summary.article_backend":  cfg.Summary.ArticleBackend,
		"summary.client_id":        cfg.Summary.ClientID,
		"summary.client_secret":    cfg.Summary.ClientSecret,
		"summary.endpoint":         cfg.Summary.Endpoint,
		"summary.language":         cfg.Summary.Language,
		"summary.model":            cfg.Summary.Model,
		"summary.tone":             cfg.Summary.Tone,
		"summary.summary_count":    cfg.Summary.SummaryCount,
		"summary.chunk_size":       cfg.Summary.ChunkSize,
		"summary.cache_ttl":        cfg.Summary.CacheTTL,
		"summary.jina_api_key":     cfg.Summary.JinaAPIKey,
		"summary.tavily_api_key":   cfg.Summary.TavilyAPIKey,
		"summary.tavily_depth":     cfg.Summary.TavilyDepth,
		"weather.api_key":          cfg.Weather.APIKey,
		"weather.city":             cfg.Weather.City,
		"weather.endpoint":         cfg.Weather.Endpoint,
		"weather.cache_ttl":        cfg.Weather.CacheTTL,
		"cache.backend":            cfg.Cache.Backend,
		"cache.redis_addr":         cfg.Cache.RedisAddr,
		"cache.redis_password":     cfg.Cache.RedisPassword,
		"cache.redis_db":           cfg.Cache.RedisDB,
		"cache.prefix":             cfg.Cache.Prefix,
		"output.default_format":    cfg.Output.DefaultFormat,
		"output.line_width":        cfg.Output.LineWidth,
		"logging.level":            cfg.Logging.Level,
		"logging.file":             cfg.Logging.File,
		"logging.color":            cfg.Logging.Color,
		"watch.schedule":           cfg.Watch.Schedule,
		"server.addr":              cfg.Server.Addr,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// applySecretEnv fills API credentials from their conventional variables
// when the config leaves them empty.
func (c *Config) applySecretEnv() {
	for _, s := range []struct {
		target *string
		env    string
	}{
		{&c.Weather.APIKey, "OPENWEATHER_API_KEY"},
		{&c.Summary.ClientID, "NCP_CLIENT_ID"},
		{&c.Summary.ClientSecret, "NCP_CLIENT_SECRET"},
		{&c.Summary.JinaAPIKey, "JINA_API_KEY"},
		{&c.Summary.TavilyAPIKey, "TAVILY_API_KEY"},
	} {
		if *s.target == "" {
			*s.target = os.Getenv(s.env)
		}
	}
}

func (c *Config) Validate() error {
	switch c.Network.FetchMode {
	case "", "static", "javascript", "auto":
	default:
		return fmt.Errorf("network.fetch_mode must be static, javascript or auto, got %q", c.Network.FetchMode)
	}
	switch c.Cache.Backend {
	case "", "none", "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be none, memory or redis, got %q", c.Cache.Backend)
	}
	switch c.Output.DefaultFormat {
	case "", "text", "markdown", "json":
	default:
		return fmt.Errorf("output.default_format must be text, markdown or json, got %q", c.Output.DefaultFormat)
	}
	if c.Network.Timeout < 0 {
		return fmt.Errorf("network.timeout must not be negative")
	}
	return nil
}

// NetworkTimeout is the configured request timeout.
func (c *Config) NetworkTimeout() time.Duration {
	return time.Duration(c.Network.Timeout) * time.Second
}

// SourceOverrides converts the [sources.*] tables for source.Lookup.
func (c *Config) SourceOverrides() map[string]source.Override {
	overrides := make(map[string]source.Override, len(c.Sources))
	for name, sc := range c.Sources {
		overrides[strings.ToLower(name)] = source.Override{
			Title:            sc.Title,
			URL:              sc.URL,
			BaseURL:          sc.BaseURL,
			MarkerClass:      sc.MarkerClass,
			NoiseSelector:    sc.NoiseSelector,
			DescriptionClass: sc.DescriptionClass,
			InfoClass:        sc.InfoClass,
			InfoLinkClass:    sc.InfoLinkClass,
			SkipCount:        sc.SkipCount,
			Timeout:          sc.Timeout,
			MaxRedirects:     sc.MaxRedirects,
			UseProxy:         sc.UseProxy,
			BrowserCookies:   sc.BrowserCookies,
			FetchMode:        sc.FetchMode,
		}
	}
	return overrides
}

func (c *Config) CreateExampleConfig(configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	return os.WriteFile(configPath, []byte(exampleConfig), 0644)
}

const exampleConfig = `# trackr configuration file

[network]
timeout = 30              # seconds
user_agent = ""           # Custom user agent (empty = rotate browser agents)
browser_agent = ""        # auto, chrome, firefox, safari, edge
follow_redirects = true
max_redirects = 10
fetch_mode = "static"     # static, javascript, auto
http_proxy = ""           # used by sources with use_proxy = true
https_proxy = ""

[browser]
# Browser to read cookies from for sources with browser_cookies = true
default = "auto"          # auto, chrome, firefox, safari, zen

# Built-in sources are geeknews and clien. Any field below overrides the
# preset; a new name defines a new board (url and marker_class required).
#
# [sources.geeknews]
# skip_count = 0
#
# [sources.myboard]
# title = "My Board"
# url = "https://example.com/list?page={page}"   # {page} or {offset}
# base_url = "https://example.com/"
# marker_class = "post-title"
# description_class = "post-desc"

[summary]
article_backend = "paragraphs"  # paragraphs, readability, jina, tavily
client_id = ""            # or NCP_CLIENT_ID
client_secret = ""        # or NCP_CLIENT_SECRET
language = "ko"
model = "general"
tone = 3
summary_count = 3
chunk_size = 2000
cache_ttl = 86400         # seconds
jina_api_key = ""         # or JINA_API_KEY
tavily_api_key = ""       # or TAVILY_API_KEY
tavily_depth = "basic"

[weather]
api_key = ""              # or OPENWEATHER_API_KEY
city = "Yangju-si, KR"
cache_ttl = 600           # seconds

[cache]
backend = "memory"        # none, memory, redis
redis_addr = "localhost:6379"
redis_password = ""
redis_db = 0
prefix = "trackr"

[output]
default_format = "text"   # text, markdown, json
line_width = 80           # Max line width for text output (0 = unlimited)

[logging]
level = "info"            # debug, info, warn, error
file = ""                 # Log file path (empty = stderr only)
color = false

[watch]
schedule = "@every 10m"   # cron expression or @every <duration>

[server]
addr = "127.0.0.1:8080"

# Secrets can also live in a .env file next to this one:
#   OPENWEATHER_API_KEY=...
#   NCP_CLIENT_ID=...
#   NCP_CLIENT_SECRET=...
`
