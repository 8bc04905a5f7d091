// Package config loads and hot-reloads the scionic tool's configuration
// using viper, with a debounced fsnotify watch so a config file mid-write
// never gets read half-finished.
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds every tunable for building, storing, and serving Scionic
// Merkle DAGs.
type Config struct {
	Chunk struct {
		// SizeBytes overrides dag.DefaultChunkSize when building a DAG.
		SizeBytes int `mapstructure:"size_bytes"`
	} `mapstructure:"chunk"`

	Builder struct {
		EnableParallel bool `mapstructure:"enable_parallel"`
		MaxWorkers     int  `mapstructure:"max_workers"`
		TimestampRoot  bool `mapstructure:"timestamp_root"`
	} `mapstructure:"builder"`

	Store struct {
		// Backend selects which lib/stores implementation is used:
		// "bbolt" or "badgerhold".
		Backend string `mapstructure:"backend"`
		DataDir string `mapstructure:"data_dir"`
	} `mapstructure:"store"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Output string `mapstructure:"output"`
	} `mapstructure:"logging"`
}

var (
	cachedConfig   atomic.Value // stores *Config
	configLoadOnce sync.Once

	writeMutex sync.Mutex

	debounceTimer *time.Timer
	debounceMutex sync.Mutex
)

// InitConfig initializes the global viper configuration, creating
// config.yaml with defaults if none exists, and begins watching it for
// changes.
func InitConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("SCIONIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("No config.yaml found, creating default configuration...")
			if err := viper.WriteConfigAs("config.yaml"); err != nil {
				return fmt.Errorf("failed to create default config: %w", err)
			}
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read created config: %w", err)
			}
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := reloadConfigCache(); err != nil {
		return fmt.Errorf("failed to load initial config: %w", err)
	}

	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		debounceMutex.Lock()
		defer debounceMutex.Unlock()

		if debounceTimer != nil {
			debounceTimer.Stop()
		}

		debounceTimer = time.AfterFunc(500*time.Millisecond, func() {
			log.Printf("config file changed (debounced): %s", e.Name)
			writeMutex.Lock()
			defer writeMutex.Unlock()

			if err := reloadConfigCache(); err != nil {
				log.Printf("error reloading config cache after file change: %v", err)
			}
		})
	})

	return nil
}

func setDefaults() {
	viper.SetDefault("chunk.size_bytes", 2*1024*1024)

	viper.SetDefault("builder.enable_parallel", false)
	viper.SetDefault("builder.max_workers", 0)
	viper.SetDefault("builder.timestamp_root", false)

	viper.SetDefault("store.backend", "bbolt")
	viper.SetDefault("store.data_dir", "./data")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.output", "stdout")
}

func reloadConfigCache() error {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cachedConfig.Store(cfg)
	return nil
}

// GetConfig returns the cached configuration, loading it on first use if
// InitConfig was never called.
func GetConfig() *Config {
	if c, ok := cachedConfig.Load().(*Config); ok {
		return c
	}

	var initErr error
	configLoadOnce.Do(func() {
		initErr = InitConfig()
	})
	if initErr != nil {
		log.Printf("config init failed, using defaults: %v", initErr)
		setDefaults()
		cfg := &Config{}
		_ = viper.Unmarshal(cfg)
		return cfg
	}

	c, _ := cachedConfig.Load().(*Config)
	return c
}

// GetDataDir returns the configured store data directory, defaulting to
// "./data" if unset.
func GetDataDir() string {
	dir := GetConfig().Store.DataDir
	if dir == "" {
		return "./data"
	}
	return dir
}

// GetPath joins subPath onto the configured data directory.
func GetPath(subPath string) string {
	return filepath.Join(GetDataDir(), subPath)
}

// SaveConfig persists the current viper state back to config.yaml and
// refreshes the cache.
func SaveConfig() error {
	writeMutex.Lock()
	defer writeMutex.Unlock()

	if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return reloadConfigCache()
}

// UpdateConfig sets key to value in viper, optionally persisting it, and
// refreshes the cache.
func UpdateConfig(key string, value interface{}, save bool) error {
	writeMutex.Lock()
	viper.Set(key, value)
	writeMutex.Unlock()

	if save {
		if err := viper.WriteConfig(); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	return reloadConfigCache()
}
