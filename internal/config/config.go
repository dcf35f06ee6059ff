package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Collector CollectorConfig `mapstructure:"collector"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// StorageConfig holds storage-related configuration. Path is a file for
// sqlite and a connection string for postgres.
type StorageConfig struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
}

// CollectorConfig holds page collection settings
type CollectorConfig struct {
	URLsFile     string                     `mapstructure:"urls_file"`
	PollInterval string                     `mapstructure:"poll_interval"`
	UserAgent    string                     `mapstructure:"user_agent"`
	Delay        string                     `mapstructure:"delay"`
	MaxComments  int                        `mapstructure:"max_comments"`
	Selectors    map[string]SelectorsConfig `mapstructure:"selectors"`
}

// Interval parses PollInterval. An empty value disables periodic runs.
func (c CollectorConfig) Interval() (time.Duration, error) {
	if c.PollInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid poll interval %q: %w", c.PollInterval, err)
	}
	return d, nil
}

// RequestDelay parses Delay. An empty value means no delay.
func (c CollectorConfig) RequestDelay() (time.Duration, error) {
	if c.Delay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Delay)
	if err != nil {
		return 0, fmt.Errorf("invalid request delay %q: %w", c.Delay, err)
	}
	return d, nil
}

// SelectorsConfig holds the CSS selectors of one platform's post page
type SelectorsConfig struct {
	Title       string `mapstructure:"title"`
	Author      string `mapstructure:"author"`
	PublishTime string `mapstructure:"publish_time"`
	Content     string `mapstructure:"content"`
	Shares      string `mapstructure:"shares"`
	Comments    string `mapstructure:"comments"`
	Likes       string `mapstructure:"likes"`
	Toolbar     string `mapstructure:"toolbar"`
	CommentList string `mapstructure:"comment_list"`
}

// NormalizeConfig holds normalization settings
type NormalizeConfig struct {
	Timezone      string `mapstructure:"timezone"`
	LenientCounts bool   `mapstructure:"lenient_counts"`
}

// Location loads the configured timezone, defaulting to local time.
func (n NormalizeConfig) Location() (*time.Location, error) {
	if n.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(n.Timezone)
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// LoadConfig loads configuration from .env, file and environment variables.
// An explicit path replaces the config file search.
func LoadConfig(path ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	if len(path) > 0 && path[0] != "" {
		v.SetConfigFile(path[0])
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	// Environment variable bindings
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("storage.path", "STORAGE_PATH", "DATABASE_URL")
	v.BindEnv("server.port", "SERVER_PORT", "PORT")

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.path", "./data/posts.db")
	v.SetDefault("collector.urls_file", "urls.txt")
	v.SetDefault("collector.poll_interval", "30m")
	v.SetDefault("collector.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("collector.delay", "2s")
	v.SetDefault("collector.max_comments", 20)
	v.SetDefault("normalize.timezone", "Asia/Shanghai")
	v.SetDefault("normalize.lenient_counts", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("collector.selectors.weibo", map[string]string{
		"author":       ".head_name_24eEB",
		"publish_time": ".head-info_time_6sFQg",
		"content":      ".detail_wbtext_4CRf9",
		"toolbar":      ".toolbar_main_3Mxwo",
		"comment_list": "div[class^='RepostCommentList_mar1_'] div[class='con1 woo-box-item-flex']",
	})
	v.SetDefault("collector.selectors.weixin", map[string]string{
		"title":        "#activity-name",
		"author":       "#js_wx_follow_nickname",
		"publish_time": "#publish_time",
		"content":      "#js_article",
		"comment_list": "#js_cmt_area",
	})
	v.SetDefault("collector.selectors.douyin", map[string]string{
		"author":       "[data-e2e='user-info'] a[href*='/user/']",
		"publish_time": "[data-e2e='detail-video-publish-time']",
		"content":      "[data-e2e='detail-video-info'] h1",
		"shares":       "[data-e2e='video-player-share']",
		"comments":     "[data-e2e='feed-comment-icon']",
		"likes":        "[data-e2e='video-player-digg']",
		"comment_list": "[data-e2e='comment-item']",
	})
}
