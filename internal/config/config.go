package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TALKREC_SERVER__ADDR.
const EnvPrefix = "TALKREC_"

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "TALKREC_CONFIG"

// LogConfig controls diagnostics output.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=console json"`
}

// ServerConfig controls `talkrec serve`.
type ServerConfig struct {
	Addr              string        `koanf:"addr" yaml:"addr" validate:"required"`
	ReadTimeout       time.Duration `koanf:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`
	CORSOrigins       []string      `koanf:"cors_origins" yaml:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" yaml:"rate_limit_requests" validate:"gte=0"` // 0 disables
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" yaml:"rate_limit_window" validate:"gte=0"`
}

// TracingConfig controls OpenTelemetry span export from `talkrec serve`.
type TracingConfig struct {
	Enabled      bool    `koanf:"enabled" yaml:"enabled"`
	ServiceName  string  `koanf:"service_name" yaml:"service_name" validate:"required_if=Enabled true"`
	Exporter     string  `koanf:"exporter" yaml:"exporter" validate:"oneof=otlp-http otlp-grpc"`
	Endpoint     string  `koanf:"endpoint" yaml:"endpoint"`
	SamplingRate float64 `koanf:"sampling_rate" yaml:"sampling_rate" validate:"gte=0,lte=1"`
	Insecure     bool    `koanf:"insecure" yaml:"insecure"`
}

// UIConfig bounds the K selector of `talkrec browse`.
type UIConfig struct {
	MinK int `koanf:"min_k" yaml:"min_k" validate:"min=1"`
	MaxK int `koanf:"max_k" yaml:"max_k" validate:"gtefield=MinK"`
}

// Config is the in-memory representation of ~/.talkrec/talkrec.yaml.
type Config struct {
	ArtifactsDir string        `koanf:"artifacts_dir" yaml:"artifacts_dir" validate:"required"`
	DefaultK     int           `koanf:"default_k" yaml:"default_k" validate:"min=1"`
	Log          LogConfig     `koanf:"log" yaml:"log"`
	Server       ServerConfig  `koanf:"server" yaml:"server"`
	Tracing      TracingConfig `koanf:"tracing" yaml:"tracing"`
	UI           UIConfig      `koanf:"ui" yaml:"ui"`
}

// AppDir returns the absolute path to ~/.talkrec/.
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".talkrec"), nil
}

// ConfigPath returns the config file location: $TALKREC_CONFIG or ~/.talkrec/talkrec.yaml.
func ConfigPath() (string, error) {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return ExpandPath(p)
	}
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "talkrec.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the built-in defaults. Artifacts are looked up in ./models.
func DefaultConfig() *Config {
	return &Config{
		ArtifactsDir: "models",
		DefaultK:     10,
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8080",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			CORSOrigins:       []string{},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Tracing: TracingConfig{
			ServiceName:  "talkrec",
			Exporter:     "otlp-http",
			SamplingRate: 1,
		},
		UI: UIConfig{
			MinK: 5,
			MaxK: 20,
		},
	}
}

// Load resolves the configuration from, lowest to highest priority: defaults, the YAML
// file, ~/.talkrec/.env, then TALKREC_* environment variables.
//
// path selects the YAML file; when empty, ConfigPath is used and a missing file is
// not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("cannot load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
		explicit = os.Getenv(ConfigPathEnvVar) != ""
	}
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	dotenv, err := DotEnvPath()
	if err != nil {
		return nil, err
	}
	if err := k.Load(DotEnvProvider(dotenv), nil); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("cannot load environment: %w", err)
	}

	if err := splitListValues(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}
	cfg.ArtifactsDir, err = ExpandPath(cfg.ArtifactsDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps TALKREC_SERVER__RATE_LIMIT_WINDOW to server.rate_limit_window.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// splitListValues turns comma-separated strings from env/dotenv into lists.
func splitListValues(k *koanf.Koanf, paths ...string) error {
	for _, p := range paths {
		s, ok := k.Get(p).(string)
		if !ok {
			continue
		}
		var items []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		if err := k.Set(p, items); err != nil {
			return fmt.Errorf("cannot set %s: %w", p, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save marshals cfg and writes it to path, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
