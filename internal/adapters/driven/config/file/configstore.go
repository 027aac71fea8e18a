package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration wraps time.Duration so TOML values can be written as
// human-readable strings like "30s" or "15m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full intelstream configuration tree.
type Config struct {
	Cache      CacheConfig      `toml:"cache"`
	Server     ServerConfig     `toml:"server"`
	Aggregator AggregatorConfig `toml:"aggregator"`
	Providers  ProvidersConfig  `toml:"providers"`
}

// CacheConfig selects and tunes the item cache backend.
type CacheConfig struct {
	// Backend is one of "memory", "sqlite" or "redis".
	Backend string `toml:"backend"`
	// DataDir holds the SQLite database. Empty means ~/.intelstream/data.
	DataDir string `toml:"data_dir"`
	// TTL is how long cached result sets stay fresh.
	TTL   Duration    `toml:"ttl"`
	Redis RedisConfig `toml:"redis"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ServerConfig tunes the HTTP gateway.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// AggregatorConfig sets the default query bounds.
type AggregatorConfig struct {
	MaxItems     int      `toml:"max_items"`
	Timeout      Duration `toml:"timeout"`
	MinRelevance float64  `toml:"min_relevance"`
}

// ProvidersConfig holds per-provider settings.
type ProvidersConfig struct {
	News        NewsConfig        `toml:"news"`
	Legislative LegislativeConfig `toml:"legislative"`
	Filings     FilingsConfig     `toml:"filings"`
}

// NewsConfig configures the RSS news provider.
type NewsConfig struct {
	Enabled           bool     `toml:"enabled"`
	Feeds             []string `toml:"feeds"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

// LegislativeConfig configures the legislative records provider.
type LegislativeConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// FilingsConfig configures the corporate filings provider.
type FilingsConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Backend: "sqlite",
			TTL:     Duration(15 * time.Minute),
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
		Aggregator: AggregatorConfig{
			MaxItems: 100,
			Timeout:  Duration(30 * time.Second),
		},
		Providers: ProvidersConfig{
			News: NewsConfig{
				Enabled:           true,
				RequestsPerSecond: 2.0,
			},
		},
	}
}

// ConfigStore loads and persists the configuration file.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	config   Config
}

// NewConfigStore creates a TOML config store. If configDir is empty,
// defaults to ~/.intelstream/config.toml. A missing file is not an
// error; the store starts from Default().
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".intelstream")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		config:   Default(),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Config returns a snapshot of the current configuration.
func (s *ConfigStore) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Load re-reads the configuration file. Values present in the file
// override defaults; absent sections keep their default values.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.config = Default()
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	s.config = cfg
	return nil
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(s.config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Update applies fn to the configuration under the lock and persists
// the result.
func (s *ConfigStore) Update(fn func(*Config)) error {
	s.mu.Lock()
	fn(&s.config)
	data, err := toml.Marshal(s.config)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
