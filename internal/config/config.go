package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

type StoreType string

const (
	StoreTypeSQLite StoreType = "sqlite"
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// Config holds the configuration for agora.
type Config struct {
	// LogLevel is the default log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// Store holds the key-value store configuration.
	Store *StoreConfig `yaml:"store" mapstructure:"store"`
	// Password holds the password change workflow configuration.
	Password *PasswordConfig `yaml:"password" mapstructure:"password"`
	// Settings holds the settings page configuration.
	Settings *SettingsConfig `yaml:"settings" mapstructure:"settings"`
	// Profile holds the profile editor configuration.
	Profile *ProfileConfig `yaml:"profile" mapstructure:"profile"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// StoreConfig holds the key-value store configuration.
type StoreConfig struct {
	// Type is the backend to use (sqlite, memory, redis).
	Type StoreType `yaml:"type" mapstructure:"type"`
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
	// RedisURL is the address of the redis server if using redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// Channel is the redis pub/sub channel used to relay store changes between processes.
	Channel string `yaml:"channel" mapstructure:"channel"`
}

// PasswordConfig holds the password change workflow configuration.
type PasswordConfig struct {
	// MaxAttempts is the number of consecutive wrong current passwords before the form locks.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// Lockout is how long the form stays locked.
	Lockout time.Duration `yaml:"lockout" mapstructure:"lockout"`
	// RedirectDelay is the delay between a successful change and navigating back to the settings.
	RedirectDelay time.Duration `yaml:"redirect_delay" mapstructure:"redirect_delay"`
}

// SettingsConfig holds the settings page configuration.
type SettingsConfig struct {
	// AlertDuration is how long a save notification stays visible.
	AlertDuration time.Duration `yaml:"alert_duration" mapstructure:"alert_duration"`
}

// ProfileConfig holds the profile editor configuration.
type ProfileConfig struct {
	// MaxPictureBytes is the largest picture upload accepted.
	MaxPictureBytes int64 `yaml:"max_picture_bytes" mapstructure:"max_picture_bytes"`
	// MaxPictureWidth is the width uploaded pictures are scaled down to.
	MaxPictureWidth int `yaml:"max_picture_width" mapstructure:"max_picture_width"`
	// MaxPictureHeight is the height uploaded pictures are scaled down to.
	MaxPictureHeight int `yaml:"max_picture_height" mapstructure:"max_picture_height"`
	// JPEGQuality is the quality used when re-encoding photos (1-100).
	JPEGQuality int `yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

var (
	gravatarDefaultImages = []string{"404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"}
	gravatarRatings       = []string{"g", "pg", "r", "x"}
)

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// If no config file is found, the defaults are used.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Configure Viper
	v.SetConfigType("yaml")
	v.SetEnvPrefix("AGORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		// Use specific config file
		v.SetConfigFile(path)
	} else {
		// Search for config in common locations
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.agora")
		v.AddConfigPath("/etc/agora")
	}

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the AGORA_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// Default returns the configuration used when no file or env override exists.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	// defaults only contain well-typed values, unmarshalling them can't fail
	_ = v.Unmarshal(&c)
	sanitizeConfig(&c)
	return &c
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	// Store defaults
	v.SetDefault("store.type", StoreTypeSQLite)
	v.SetDefault("store.path", "./data/agora.db")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.channel", "agora-storage")

	// Password workflow defaults
	v.SetDefault("password.max_attempts", 3)
	v.SetDefault("password.lockout", 30*time.Second)
	v.SetDefault("password.redirect_delay", 2*time.Second)

	// Settings defaults
	v.SetDefault("settings.alert_duration", 3*time.Second)

	// Profile defaults
	v.SetDefault("profile.max_picture_bytes", 5<<20) // 5 MiB
	v.SetDefault("profile.max_picture_width", 512)
	v.SetDefault("profile.max_picture_height", 512)
	v.SetDefault("profile.jpeg_quality", 85)

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 150)
}

func sanitizeConfig(c *Config) {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.Store != nil {
		c.Store.Type = StoreType(strings.ToLower(strings.TrimSpace(string(c.Store.Type))))
	}
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing agora config")
	}

	if c.Store == nil {
		return fmt.Errorf("missing store config")
	}
	switch c.Store.Type {
	case StoreTypeSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store path is required when using the sqlite store")
		}
	case StoreTypeRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when using the redis store") //nolint:staticcheck
		}
		if c.Store.Channel == "" {
			return fmt.Errorf("store channel is required when using the redis store")
		}
	case StoreTypeMemory:
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}

	if c.Password == nil {
		return fmt.Errorf("missing password config")
	}
	if c.Password.MaxAttempts <= 0 {
		return fmt.Errorf("password max attempts must be greater than 0")
	}
	if c.Password.Lockout < time.Second {
		return fmt.Errorf("password lockout must be at least one second")
	}
	if c.Password.RedirectDelay < 0 {
		return fmt.Errorf("password redirect delay must not be negative")
	}

	if c.Settings == nil {
		return fmt.Errorf("missing settings config")
	}
	if c.Settings.AlertDuration <= 0 {
		return fmt.Errorf("settings alert duration must be greater than 0")
	}

	if c.Profile == nil {
		return fmt.Errorf("missing profile config")
	}
	if c.Profile.MaxPictureBytes <= 0 {
		return fmt.Errorf("profile max picture bytes must be greater than 0")
	}
	if c.Profile.MaxPictureWidth <= 0 || c.Profile.MaxPictureHeight <= 0 {
		return fmt.Errorf("profile max picture dimensions must be greater than 0")
	}
	if c.Profile.JPEGQuality < 1 || c.Profile.JPEGQuality > 100 {
		return fmt.Errorf("profile jpeg quality must be between 1 and 100")
	}

	if c.Gravatar != nil && c.Gravatar.Enabled {
		if c.Gravatar.Size < 1 || c.Gravatar.Size > 2048 {
			return fmt.Errorf("gravatar size must be between 1 and 2048")
		}
		if c.Gravatar.DefaultImage != "" && !lo.Contains(gravatarDefaultImages, c.Gravatar.DefaultImage) {
			return fmt.Errorf("invalid gravatar default image %q", c.Gravatar.DefaultImage)
		}
		if c.Gravatar.Rating != "" && !lo.Contains(gravatarRatings, c.Gravatar.Rating) {
			return fmt.Errorf("invalid gravatar rating %q", c.Gravatar.Rating)
		}
	}

	return nil
}
