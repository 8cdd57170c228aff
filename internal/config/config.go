// Package config provides functionality for loading and accessing application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/auxroom/syncd/internal/utils"
)

// Config represents the application configuration.
type Config struct {
	// Environment is the current running environment (development, staging, production)
	Environment string `mapstructure:"environment"`

	// Server configuration
	Server struct {
		// Port is the TCP port the hub listens on
		Port int `mapstructure:"port" json:"port" validate:"min=0,max=65535"`
		// Host is the listen address
		Host string `mapstructure:"host" json:"host"`
		// ReadTimeout is the maximum duration for reading the entire request
		ReadTimeout time.Duration `mapstructure:"read_timeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
		// ShutdownTimeout bounds how long graceful shutdown may take
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	// WebSocket configuration
	WebSocket struct {
		// MaxMessageSize is the maximum inbound frame size in bytes
		MaxMessageSize int64 `mapstructure:"max_message_size" json:"max_message_size" validate:"min=1"`
		// WriteWait is the time allowed to write a message to the peer
		WriteWait time.Duration `mapstructure:"write_wait"`
		// PongWait is the time allowed to read the next pong message from the peer
		PongWait time.Duration `mapstructure:"pong_wait"`
		// PingPeriod is the time between ping messages; must be less than PongWait
		PingPeriod time.Duration `mapstructure:"ping_period"`
		// SendBuffer is the per-session outbound queue capacity
		SendBuffer int `mapstructure:"send_buffer" json:"send_buffer" validate:"min=1"`
	} `mapstructure:"websocket"`

	// Logging configuration
	Logging struct {
		// Level is the logging level
		Level string `mapstructure:"level"`
		// Format is the logging format (json or console)
		Format string `mapstructure:"format"`
		// OutputPaths is the list of output paths for logs
		OutputPaths []string `mapstructure:"output_paths"`
		// ErrorOutputPaths is the list of output paths for error logs
		ErrorOutputPaths []string `mapstructure:"error_output_paths"`
	} `mapstructure:"logging"`
}

// DefaultPort is used when no port is configured or the PORT variable is unusable.
const DefaultPort = 8080

// LoadConfig loads the configuration from file and environment variables.
// Precedence, lowest to highest: built-in defaults, an optional app.yaml
// found via CONFIG_FILE or the ./configs search path, APP_* environment
// variables, and finally the bare PORT variable for the listen port.
func LoadConfig() (*Config, []string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("app")
	v.SetConfigType("yaml")

	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("/etc/syncd")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and environment take over
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PORT overrides everything else; an unparseable value falls back to the default
	if port := os.Getenv("PORT"); port != "" {
		v.Set("server.port", int(utils.ParseInt(port, DefaultPort)))
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	config.Environment = env

	warnings := validateAndFix(&config)

	return &config, warnings, nil
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("websocket.max_message_size", 512*1024)
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.ping_period", "54s")
	v.SetDefault("websocket.send_buffer", 64)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})
}

// validateAndFix validates the configuration and replaces unusable values
// with defaults, returning a warning for every correction made.
func validateAndFix(config *Config) []string {
	var warnings []string

	if err := utils.Validate(config); err != nil {
		warnings = append(warnings, utils.ValidationErrors(err)...)
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		warnings = append(warnings, fmt.Sprintf("Invalid server port %d, using %d", config.Server.Port, DefaultPort))
		config.Server.Port = DefaultPort
	}

	minTimeout := 1 * time.Second
	if config.Server.ReadTimeout < minTimeout {
		warnings = append(warnings, fmt.Sprintf("Server read timeout is too short (%v), setting to %v", config.Server.ReadTimeout, minTimeout))
		config.Server.ReadTimeout = minTimeout
	}
	if config.Server.WriteTimeout < minTimeout {
		warnings = append(warnings, fmt.Sprintf("Server write timeout is too short (%v), setting to %v", config.Server.WriteTimeout, minTimeout))
		config.Server.WriteTimeout = minTimeout
	}
	if config.Server.ShutdownTimeout < minTimeout {
		warnings = append(warnings, fmt.Sprintf("Server shutdown timeout is too short (%v), setting to %v", config.Server.ShutdownTimeout, 30*time.Second))
		config.Server.ShutdownTimeout = 30 * time.Second
	}

	if config.WebSocket.MaxMessageSize < 1 {
		warnings = append(warnings, "WebSocket max message size must be positive, setting to 512KB")
		config.WebSocket.MaxMessageSize = 512 * 1024
	}
	if config.WebSocket.SendBuffer < 1 {
		warnings = append(warnings, "WebSocket send buffer must be positive, setting to 64")
		config.WebSocket.SendBuffer = 64
	}
	if config.WebSocket.PingPeriod >= config.WebSocket.PongWait {
		warnings = append(warnings, fmt.Sprintf("WebSocket ping period (%v) must be less than pong wait (%v), adjusting", config.WebSocket.PingPeriod, config.WebSocket.PongWait))
		config.WebSocket.PingPeriod = config.WebSocket.PongWait * 9 / 10
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLevels[strings.ToLower(config.Logging.Level)] {
		warnings = append(warnings, fmt.Sprintf("Invalid logging level: %s, setting to 'info'", config.Logging.Level))
		config.Logging.Level = "info"
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		warnings = append(warnings, fmt.Sprintf("Invalid logging format: %s, setting to 'json'", config.Logging.Format))
		config.Logging.Format = "json"
	}

	return warnings
}

// GetLogLevel converts a string log level to a zap log level.
func GetLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
