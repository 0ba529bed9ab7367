package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"mhyunpack/internal/codec"
	"mhyunpack/internal/codec/oodle"
	"mhyunpack/internal/container"
	"mhyunpack/internal/game"
)

// Config holds all extractor configuration
type Config struct {
	Game           string   `mapstructure:"game"`
	EngineVersion  string   `mapstructure:"engine_version"`
	KeySet         string   `mapstructure:"keyset"`
	Output         string   `mapstructure:"output"`
	Workers        int      `mapstructure:"workers"`
	SpillThreshold int64    `mapstructure:"spill_threshold"`
	TempDir        string   `mapstructure:"temp_dir"`
	Codecs         []string `mapstructure:"codecs"`
	ACLLibrary     string   `mapstructure:"acl_library"`
	Catalog        string   `mapstructure:"catalog"`
	LogLevel       string   `mapstructure:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Game:           game.Unity.String(),
		EngineVersion:  "2019.4.34f1",
		Output:         "extracted",
		Workers:        min(runtime.NumCPU()*2, 10),
		SpillThreshold: container.DefaultSpillThreshold,
		Codecs:         []string{codec.NameLZ4, codec.NameLZMA},
		LogLevel:       "normal",
	}
}

// Variant parses the configured game tag
func (c *Config) Variant() (game.Variant, error) {
	return game.ParseVariant(c.Game)
}

// Version parses the configured engine version
func (c *Config) Version() (game.Version, error) {
	return game.ParseVersion(c.EngineVersion)
}

// ErrUnknownCodec re-exports the codec lookup failure
var ErrUnknownCodec = codec.ErrUnknownCodec

// CodecList resolves the configured codec names in fallback order
func (c *Config) CodecList() ([]codec.Codec, error) {
	names := c.Codecs
	if len(names) == 0 {
		names = DefaultConfig().Codecs
	}
	out := make([]codec.Codec, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case codec.NameLZ4:
			out = append(out, codec.LZ4{})
		case codec.NameLZMA:
			out = append(out, codec.LZMA{})
		case codec.NameOodle:
			out = append(out, oodle.Codec{})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
		}
	}
	return out, nil
}

// ContainerConfig builds a decode session configuration. The cipher is supplied by the caller.
func (c *Config) ContainerConfig(cipher container.Cipher, log zerolog.Logger) (container.Config, error) {
	variant, err := c.Variant()
	if err != nil {
		return container.Config{}, err
	}
	codecs, err := c.CodecList()
	if err != nil {
		return container.Config{}, err
	}
	return container.Config{
		Cipher:         cipher,
		Variant:        variant,
		Codecs:         codecs,
		Logger:         log,
		SpillThreshold: c.SpillThreshold,
		TempDir:        c.TempDir,
	}, nil
}

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"game":           "game",
	"engine-version": "engine_version",
	"keyset":         "keyset",
	"output":         "output",
	"workers":        "workers",
	"temp-dir":       "temp_dir",
	"codecs":         "codecs",
	"acl-library":    "acl_library",
	"catalog":        "catalog",
}

// Manager handles configuration loading and saving
type Manager struct {
	config     *Config
	configPath string
	v          *viper.Viper
	log        zerolog.Logger
}

// NewManager creates a new configuration manager. An empty path searches the
// working directory and the user config directory for mhyunpack.{yaml,json,toml}.
func NewManager(configPath string) *Manager {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("game", defaults.Game)
	v.SetDefault("engine_version", defaults.EngineVersion)
	v.SetDefault("output", defaults.Output)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("spill_threshold", defaults.SpillThreshold)
	v.SetDefault("codecs", defaults.Codecs)
	v.SetDefault("log_level", defaults.LogLevel)
	for _, key := range []string{"keyset", "temp_dir", "acl_library", "catalog"} {
		v.SetDefault(key, "")
	}

	v.SetEnvPrefix("MHYUNPACK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &Manager{config: defaults, configPath: configPath, v: v, log: zerolog.Nop()}
}

// SetLogger sets where load and save messages go
func (m *Manager) SetLogger(l zerolog.Logger) { m.log = l }

// BindFlags lets set command line flags override the file and environment
func (m *Manager) BindFlags(fs *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := m.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load loads configuration from file, environment and bound flags
func (m *Manager) Load() error {
	if m.configPath != "" {
		m.v.SetConfigFile(m.configPath)
	} else {
		m.v.SetConfigName("mhyunpack")
		m.v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			m.v.AddConfigPath(filepath.Join(dir, "mhyunpack"))
		}
	}

	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(m.configPath != "" && errors.Is(err, os.ErrNotExist)) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		m.log.Debug().Str("path", m.configPath).Msg("config file not found, using defaults")
	} else {
		m.log.Debug().Str("path", m.v.ConfigFileUsed()).Msg("loaded configuration")
	}

	cfg := &Config{}
	if err := m.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.SpillThreshold <= 0 {
		cfg.SpillThreshold = container.DefaultSpillThreshold
	}
	m.config = cfg
	return nil
}

// Save saves configuration to file
func (m *Manager) Save() error {
	path := m.configPath
	if path == "" {
		path = "mhyunpack.yaml"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := viper.New()
	c := m.config
	out.Set("game", c.Game)
	out.Set("engine_version", c.EngineVersion)
	out.Set("keyset", c.KeySet)
	out.Set("output", c.Output)
	out.Set("workers", c.Workers)
	out.Set("spill_threshold", c.SpillThreshold)
	out.Set("temp_dir", c.TempDir)
	out.Set("codecs", c.Codecs)
	out.Set("acl_library", c.ACLLibrary)
	out.Set("catalog", c.Catalog)
	out.Set("log_level", c.LogLevel)
	if err := out.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.log.Info().Str("path", path).Msg("saved configuration")
	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}
