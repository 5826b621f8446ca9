// Package config loads and validates ledger settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/pattern"
)

// Config is the typed view of everything the ledger reads from viper.
type Config struct {
	Database DatabaseConfig
	Logging  LoggingConfig
	Server   ServerConfig
	Events   EventsConfig
	Import   ImportConfig
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string
	Format string
}

// ImportConfig holds the defaults applied to every import.
type ImportConfig struct {
	BalanceCheck string
	// RetryAttempts bounds how often a batch is retried on a locked database.
	RetryAttempts int
	Strict        bool
	KeepSource    bool
	// Rules categorize rows that arrive without a category.
	Rules []pattern.Rule
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Addr      string
	UploadDir string
	// CertDir holds the self-signed certificate used when TLS is set.
	CertDir string
	TLS     bool
}

// EventsConfig configures event publishing. An empty AMQPURL disables it.
type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "$HOME/.local/share/ledger/ledger.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("import.balance_check", "none")
	v.SetDefault("import.strict", false)
	v.SetDefault("import.keep_source", false)
	v.SetDefault("import.retry_attempts", 3)
	v.SetDefault("server.addr", "127.0.0.1:3333")
	v.SetDefault("server.upload_dir", os.TempDir())
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_dir", "$HOME/.config/ledger/certs")
	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "ledger")
}

// EnvPrefix namespaces every environment variable, e.g. LEDGER_DATABASE_PATH.
const EnvPrefix = "LEDGER"

// BindEnv makes v read LEDGER_* environment variables, mapping dots in keys
// to underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads environment variables from path, or from .env in the
// working directory when path is empty. A missing file is not an error.
func LoadDotEnv(path string) error {
	var err error
	if path == "" {
		err = godotenv.Load()
	} else {
		err = godotenv.Load(path)
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load reads the typed configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Import: ImportConfig{
			BalanceCheck:  v.GetString("import.balance_check"),
			RetryAttempts: v.GetInt("import.retry_attempts"),
			Strict:        v.GetBool("import.strict"),
			KeepSource:    v.GetBool("import.keep_source"),
		},
		Server: ServerConfig{
			Addr:      v.GetString("server.addr"),
			UploadDir: ExpandPath(v.GetString("server.upload_dir")),
			CertDir:   ExpandPath(v.GetString("server.cert_dir")),
			TLS:       v.GetBool("server.tls"),
		},
		Events: EventsConfig{
			AMQPURL:  v.GetString("events.amqp_url"),
			Exchange: v.GetString("events.exchange"),
		},
	}

	if err := v.UnmarshalKey("import.rules", &cfg.Import.Rules); err != nil {
		return nil, fmt.Errorf("%w: import.rules: %w", common.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Database.Path) == "" {
		problems = append(problems, "database.path must be set")
	}

	if _, err := common.ParseLogLevel(c.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("invalid logging.level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid logging.format %q: must be console or json", c.Logging.Format))
	}

	switch c.Import.BalanceCheck {
	case "", "none", "net", "running":
	default:
		problems = append(problems, fmt.Sprintf("invalid import.balance_check %q: must be none, net or running", c.Import.BalanceCheck))
	}

	if err := pattern.Validate(c.Import.Rules); err != nil {
		problems = append(problems, fmt.Sprintf("invalid import.rules: %v", err))
	}

	if c.Import.RetryAttempts < 1 {
		problems = append(problems, fmt.Sprintf("invalid import.retry_attempts %d: must be at least 1", c.Import.RetryAttempts))
	}

	if c.Server.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
			problems = append(problems, fmt.Sprintf("invalid server.addr %q: %v", c.Server.Addr, err))
		}
	}

	if c.Server.TLS && strings.TrimSpace(c.Server.CertDir) == "" {
		problems = append(problems, "server.cert_dir must be set when server.tls is")
	}

	if c.Events.AMQPURL != "" && strings.TrimSpace(c.Events.Exchange) == "" {
		problems = append(problems, "events.exchange must be set when events.amqp_url is")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
