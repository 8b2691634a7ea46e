package config

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/yerffejytnac/exif-mcp/internal/source"
)

// Config holds all runtime settings for the server.
type Config struct {
	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// HTTPAddr, when non-empty, starts the HTTP transport on this
	// address (e.g. ":8080"). Empty means stdio only.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	// FetchTimeout bounds HTTP fetches of url image sources.
	// Populated from FETCH_TIMEOUT_SECONDS.
	FetchTimeout time.Duration `mapstructure:"-"`

	// MaxBase64Bytes caps the encoded length of inline base64 sources.
	MaxBase64Bytes int `mapstructure:"MAX_BASE64_BYTES"`
}

// Load reads configuration from defaults, an optional exif-mcp.yaml file,
// and EXIF_MCP_* environment variables, in increasing precedence.
//
// Extra directories to search for the config file can be passed in; the
// current directory is always searched. A missing config file is fine,
// any other read error is not.
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", "")
	v.SetDefault("FETCH_TIMEOUT_SECONDS", 30)
	v.SetDefault("MAX_BASE64_BYTES", source.DefaultMaxBase64Len)

	v.SetConfigName("exif-mcp")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, path := range configPaths {
		if path != "" {
			v.AddConfigPath(path)
		}
	}

	v.SetEnvPrefix("EXIF_MCP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Debug("No config file found, using defaults and environment variables")
		} else {
			log.Errorf("Error reading config file: %v", err)
			return nil, err
		}
	} else {
		log.Infof("Using config file: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Errorf("Unable to decode config: %v", err)
		return nil, err
	}

	// Viper hands the timeout back as a plain integer; convert it here.
	cfg.FetchTimeout = time.Duration(v.GetInt("FETCH_TIMEOUT_SECONDS")) * time.Second

	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		log.Warnf("Invalid LOG_LEVEL %q, defaulting to 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	if cfg.MaxBase64Bytes <= 0 {
		cfg.MaxBase64Bytes = source.DefaultMaxBase64Len
	}

	return &cfg, nil
}
