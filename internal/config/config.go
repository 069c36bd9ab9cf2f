// Package config materializes process configuration once at startup.
//
// Components receive the parts they need explicitly; nothing reads viper
// after Load returns.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process-wide configuration, constructed once at entry.
type Config struct {
	Database   Database
	Server     Server
	Auth       Auth
	Classifier Classifier
	Advice     Advice
	Queue      Queue
}

// Database configures the SQLite datastore.
type Database struct {
	Path string
}

// Server configures the HTTP listener.
type Server struct {
	Addr string
}

// Auth configures token issuance.
type Auth struct {
	Secret      string
	TokenExpiry time.Duration
}

// Classifier configures the hosted zero-shot classifier client.
type Classifier struct {
	Token       string
	Endpoint    string
	Timeout     time.Duration
	MinInterval time.Duration
}

// Advice configures the AI coach.
type Advice struct {
	Token   string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Queue configures the in-memory job queue.
type Queue struct {
	BufferSize int
	MaxRetries int
}

// Load reads the configuration from viper (config file, SMARTSPEND_* env
// vars, bound flags) into an explicit struct.
func Load() *Config {
	viper.SetDefault("database.path", "~/.local/share/smartspend/smartspend.db")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("auth.token_expiry", "60m")
	viper.SetDefault("classifier.timeout", "40s")
	viper.SetDefault("classifier.min_interval", "1s")
	viper.SetDefault("advice.timeout", "30s")
	viper.SetDefault("queue.buffer_size", 64)
	viper.SetDefault("queue.max_retries", 3)

	return &Config{
		Database: Database{
			Path: ExpandPath(viper.GetString("database.path")),
		},
		Server: Server{
			Addr: viper.GetString("server.addr"),
		},
		Auth: Auth{
			Secret:      viper.GetString("auth.secret"),
			TokenExpiry: viper.GetDuration("auth.token_expiry"),
		},
		Classifier: Classifier{
			Token:       viper.GetString("classifier.token"),
			Endpoint:    viper.GetString("classifier.endpoint"),
			Timeout:     viper.GetDuration("classifier.timeout"),
			MinInterval: viper.GetDuration("classifier.min_interval"),
		},
		Advice: Advice{
			Token:   viper.GetString("advice.token"),
			BaseURL: viper.GetString("advice.base_url"),
			Model:   viper.GetString("advice.model"),
			Timeout: viper.GetDuration("advice.timeout"),
		},
		Queue: Queue{
			BufferSize: viper.GetInt("queue.buffer_size"),
			MaxRetries: viper.GetInt("queue.max_retries"),
		},
	}
}

// ExpandPath resolves a configured filesystem path: a leading ~ becomes the
// user's home directory and $VAR references are substituted from the
// environment.
func ExpandPath(path string) string {
	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}

	return os.ExpandEnv(path)
}
