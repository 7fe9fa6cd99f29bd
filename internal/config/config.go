package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel string       `mapstructure:"log_level"`
	Server   ServerConfig `mapstructure:"server"`
	Cache    CacheConfig  `mapstructure:"cache"`
	Lookup   LookupConfig `mapstructure:"lookup"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type CacheConfig struct {
	Size int `mapstructure:"size"`
}

type LookupConfig struct {
	Backend      string `mapstructure:"backend"`
	GlossaryPath string `mapstructure:"glossary_path"`
	Endpoint     string `mapstructure:"endpoint"`
	Timeout      int    `mapstructure:"timeout"`
	MaxRetries   int    `mapstructure:"max_retries"`
	Source       string `mapstructure:"source"`
	Target       string `mapstructure:"target"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         4,
			MaxTextBytes:    16384,
			RequestTimeout:  10,
			ShutdownTimeout: 30,
		},
		Cache: CacheConfig{
			Size: 512,
		},
		Lookup: LookupConfig{
			Backend:      BackendGlossary,
			GlossaryPath: "glossary.yaml",
			Endpoint:     "",
			Timeout:      5,
			MaxRetries:   3,
			Source:       "auto",
			Target:       "en",
		},
	}
}

// flagKeys maps each flag name to its config key.
var flagKeys = []struct{ flag, key string }{
	{"log-level", "log_level"},
	{"server-listen-addr", "server.listen_addr"},
	{"workers", "server.workers"},
	{"server-max-text-bytes", "server.max_text_bytes"},
	{"server-request-timeout", "server.request_timeout"},
	{"server-shutdown-timeout", "server.shutdown_timeout"},
	{"cache-size", "cache.size"},
	{"backend", "lookup.backend"},
	{"lookup-glossary-path", "lookup.glossary_path"},
	{"lookup-endpoint", "lookup.endpoint"},
	{"lookup-timeout", "lookup.timeout"},
	{"lookup-max-retries", "lookup.max_retries"},
	{"source-lang", "lookup.source"},
	{"target-lang", "lookup.target"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent requests handled by the server")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Max accepted text size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request deadline in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
	fs.Int("cache-size", defaults.Cache.Size, "Number of tokenized texts kept in memory")
	fs.String("backend", defaults.Lookup.Backend, "Lookup backend (none|glossary|http)")
	fs.String("lookup-glossary-path", defaults.Lookup.GlossaryPath, "Path to YAML glossary")
	fs.String("lookup-endpoint", defaults.Lookup.Endpoint, "Remote translation endpoint URL")
	fs.Int("lookup-timeout", defaults.Lookup.Timeout, "Remote translation timeout per attempt in seconds")
	fs.Int("lookup-max-retries", defaults.Lookup.MaxRetries, "Retries for failed remote translations")
	fs.String("source-lang", defaults.Lookup.Source, "Source language sent to the translator")
	fs.String("target-lang", defaults.Lookup.Target, "Target language sent to the translator")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)

	v.SetEnvPrefix("WORDLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("wordlens")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	backend, err := NormalizeBackend(cfg.Lookup.Backend)
	if err != nil {
		return Config{}, err
	}
	cfg.Lookup.Backend = backend

	return cfg, nil
}

// bindFlags binds each known flag to its dotted key. Unset flags keep their
// lower precedence than env and file values.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := fs.Lookup(fk.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(fk.key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", fk.flag, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("cache.size", c.Cache.Size)
	v.SetDefault("lookup.backend", c.Lookup.Backend)
	v.SetDefault("lookup.glossary_path", c.Lookup.GlossaryPath)
	v.SetDefault("lookup.endpoint", c.Lookup.Endpoint)
	v.SetDefault("lookup.timeout", c.Lookup.Timeout)
	v.SetDefault("lookup.max_retries", c.Lookup.MaxRetries)
	v.SetDefault("lookup.source", c.Lookup.Source)
	v.SetDefault("lookup.target", c.Lookup.Target)
}
