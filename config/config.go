package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"journal/logger"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

type DefaultPaths struct {
	ConfigDir     string
	LogPathApp    string
	LogPathAccess string
	DBPath        string
	LogLevel      string
}

type Configuration struct {
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Server struct {
		Port               string   `mapstructure:"port"`
		LogPath            string   `mapstructure:"log_path"`
		AccessLogPath      string   `mapstructure:"access_log_path"`
		CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	} `mapstructure:"server"`
	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
	Auth struct {
		TokenSecret        string        `mapstructure:"token_secret"`
		TokenTTL           time.Duration `mapstructure:"token_ttl"`
		CookieName         string        `mapstructure:"cookie_name"`
		CookieSecure       bool          `mapstructure:"cookie_secure"`
		LoginRatePerMinute int           `mapstructure:"login_rate_per_minute"`
	} `mapstructure:"auth"`
	UI struct {
		PageSize int `mapstructure:"page_size"`
	} `mapstructure:"ui"`
}

var AppConfig Configuration

// ExpandTilde resolves a leading ~ to the user's home directory.
func ExpandTilde(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", path, err)
	}
	return expanded, nil
}

func GetDefaultConfigPaths() DefaultPaths {
	var paths DefaultPaths
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not get user config dir: %v. Using current directory.\n", err)
		userConfigDir = "."
	}

	paths.ConfigDir = filepath.Join(userConfigDir, "journal")
	logDir := filepath.Join(paths.ConfigDir, "logs")

	paths.LogPathApp = filepath.Join(logDir, "app.log")
	paths.LogPathAccess = filepath.Join(logDir, "access.log")
	paths.DBPath = filepath.Join(paths.ConfigDir, "journal.db")
	paths.LogLevel = "INFO"
	return paths
}

func setDefaults(v *viper.Viper, defaults DefaultPaths) {
	v.SetDefault("database.path", defaults.DBPath)
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.log_path", defaults.LogPathApp)
	v.SetDefault("server.access_log_path", defaults.LogPathAccess)
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("logging.level", defaults.LogLevel)
	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("auth.cookie_name", "journal_session")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.login_rate_per_minute", 10)
	v.SetDefault("ui.page_size", 20)
}

// Load reads configuration from defaults, the optional YAML file and JOURNAL_* environment
// variables. It has no side effects on the filesystem or the loggers.
func Load(cfgFile string) (Configuration, string, error) {
	var cfg Configuration
	v := viper.New()

	defaults := GetDefaultConfigPaths()
	setDefaults(v, defaults)

	if cfgFile != "" {
		expandedCfgFile, err := ExpandTilde(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in config file path '%s': %v. Trying original path.\n", cfgFile, err)
			expandedCfgFile = cfgFile
		}
		v.SetConfigFile(expandedCfgFile)
		v.SetConfigType("yaml")
	} else {
		v.AddConfigPath(defaults.ConfigDir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("JOURNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configUsedMsg := "Using default/environment configuration."
	if err := v.ReadInConfig(); err == nil {
		configUsedMsg = fmt.Sprintf("Using config file: %s", v.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
		return cfg, "", fmt.Errorf("reading config file %s: %w", v.ConfigFileUsed(), err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, "", fmt.Errorf("unable to decode config into struct: %w", err)
	}

	var err error
	if cfg.Database.Path, err = ExpandTilde(cfg.Database.Path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in database.path '%s': %v.\n", cfg.Database.Path, err)
	}
	if cfg.Server.LogPath, err = ExpandTilde(cfg.Server.LogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in server.log_path '%s': %v.\n", cfg.Server.LogPath, err)
	}
	if cfg.Server.AccessLogPath, err = ExpandTilde(cfg.Server.AccessLogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in server.access_log_path '%s': %v.\n", cfg.Server.AccessLogPath, err)
	}
	return cfg, configUsedMsg, nil
}

func Init(cfgFile string, flagAppLogPath, flagAccessLogPath, flagLogLevel string) error {
	cfg, configUsedMsg, err := Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: %v\n", err)
		return err
	}

	// Apply flag overrides
	if flagAppLogPath != "" {
		if cfg.Server.LogPath, err = ExpandTilde(flagAppLogPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in --app-log path '%s': %v. Using original path.\n", flagAppLogPath, err)
			cfg.Server.LogPath = flagAppLogPath
		}
	}
	if flagAccessLogPath != "" {
		if cfg.Server.AccessLogPath, err = ExpandTilde(flagAccessLogPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in --access-log path '%s': %v. Using original path.\n", flagAccessLogPath, err)
			cfg.Server.AccessLogPath = flagAccessLogPath
		}
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = strings.ToUpper(flagLogLevel)
	}

	if err := logger.InitGlobalLoggers(cfg.Server.LogPath, cfg.Server.AccessLogPath, cfg.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to initialize global loggers with final config: %v\n", err)
		return fmt.Errorf("failed to initialize global loggers with final config: %w", err)
	}
	logger.Info("%s", configUsedMsg)

	if cfg.Auth.TokenSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("generating session token secret: %w", err)
		}
		cfg.Auth.TokenSecret = secret
		logger.Warn("auth.token_secret is not configured. Using a random secret; sessions will not survive a restart.")
	}
	if cfg.Auth.TokenTTL <= 0 {
		logger.Error("auth.token_ttl must be positive, got %s. Falling back to 168h.", cfg.Auth.TokenTTL)
		cfg.Auth.TokenTTL = 168 * time.Hour
	}
	if cfg.UI.PageSize <= 0 || cfg.UI.PageSize > 100 {
		cfg.UI.PageSize = 20
	}

	AppConfig = cfg
	logger.Debug("Final AppConfig Initialized: database=%s port=%s level=%s", cfg.Database.Path, cfg.Server.Port, cfg.Logging.Level)
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
