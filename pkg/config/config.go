// pkg/config/config.go
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Global Koanf instance, initialized once at startup.
var (
	k    *koanf.Koanf
	once sync.Once
)

// InitGlobalConfig initializes the global Koanf instance.
// This should be called early in the application lifecycle, before Load.
func InitGlobalConfig() {
	once.Do(func() {
		k = koanf.New(".")
	})
}

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	configFile    string
	mu            sync.RWMutex // To protect currentConfig during runtime updates
}

// NewManager creates a new config Manager.
// It initializes the global Koanf instance if not already done.
func NewManager() *Manager {
	InitGlobalConfig()
	return &Manager{
		koanfInstance: k,
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
		Engine: EngineConfig{
			MaxParallelSubtasks: 4,
			StageTimeout:        2 * time.Minute,
			RenderServiceURL:    "",
		},
		Fetch: FetchConfig{
			Timeout:     30 * time.Second,
			UserAgent:   "taskora",
			MaxBodySize: 10 << 20,
		},
		Output: OutputConfig{
			Dir:           "output",
			DefaultFormat: "csv",
		},
	}
}

// Load loads configuration from various sources based on precedence:
// hardcoded defaults, then the YAML config file, then command-line
// flags. It populates the manager's currentConfig.
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	defaultCfgMap := DefaultConfigAsMap()
	if err := m.koanfInstance.Load(confmap.Provider(defaultCfgMap, "."), nil); err != nil {
		return fmt.Errorf("error loading hardcoded defaults into koanf: %w", err)
	}

	if customConfigFilePath != "" {
		if _, err := os.Stat(customConfigFilePath); err != nil {
			return fmt.Errorf("config file %q: %w", customConfigFilePath, err)
		}
		if err := m.koanfInstance.Load(file.Provider(customConfigFilePath), yaml.Parser()); err != nil {
			return fmt.Errorf("error loading config file %q: %w", customConfigFilePath, err)
		}
		m.configFile = customConfigFilePath
	}

	// Command-line flags take the highest precedence.
	if flags != nil {
		// The posflag.Provider needs the Koanf instance to correctly map flag names to Koanf keys.
		if err := m.koanfInstance.Load(posflag.Provider(flags, ".", m.koanfInstance), nil); err != nil {
			return fmt.Errorf("error loading command-line flags: %w", err)
		}

		debugFlag := flags.Lookup("debug")
		if debugFlag != nil && debugFlag.Value.String() == "true" {
			_ = m.koanfInstance.Set("log.level", "debug")
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	m.currentConfig = newCfg

	return nil
}

// Reload re-reads the config file (if one was loaded) and re-applies it
// on top of the current configuration.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.configFile == "" {
		return nil
	}
	if err := m.koanfInstance.Load(file.Provider(m.configFile), yaml.Parser()); err != nil {
		return fmt.Errorf("error reloading config file %q: %w", m.configFile, err)
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling reloaded config: %w", err)
	}
	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfgCopy := m.currentConfig
	return cfgCopy
}

// ConfigFile returns the path of the loaded config file, if any.
func (m *Manager) ConfigFile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configFile
}

// DefaultConfigAsMap converts the DefaultConfig struct to a map[string]interface{}
// for Koanf's confmap.Provider. This is a bit manual but ensures Koanf knows all keys.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		// Log configuration
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		// Engine configuration
		"engine.max_parallel_subtasks": def.Engine.MaxParallelSubtasks,
		"engine.stage_timeout":         def.Engine.StageTimeout,
		"engine.render_service_url":    def.Engine.RenderServiceURL,

		// Fetch configuration
		"fetch.timeout":       def.Fetch.Timeout,
		"fetch.user_agent":    def.Fetch.UserAgent,
		"fetch.max_body_size": def.Fetch.MaxBodySize,

		// Output configuration
		"output.dir":            def.Output.Dir,
		"output.default_format": def.Output.DefaultFormat,
	}
}

// BindFlags defines command-line flags corresponding to configuration settings.
// These flags allow overriding config file settings.
// This function should be called when setting up Cobra commands.
func BindFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()

	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log.level", defaults.Log.Level, "Log level (debug, info, warn, error)")
	flags.String("output.dir", defaults.Output.Dir, "Directory for exported result files")
	flags.String("output.default_format", defaults.Output.DefaultFormat, "Default export format (csv, json, excel)")
	flags.Int("engine.max_parallel_subtasks", defaults.Engine.MaxParallelSubtasks, "Maximum subtasks executed concurrently per batch")
	flags.Duration("engine.stage_timeout", defaults.Engine.StageTimeout, "Timeout applied to each orchestration stage")
	flags.String("engine.render_service_url", defaults.Engine.RenderServiceURL, "Browser rendering service endpoint")

	// Note: The main --config / -c flag for specifying the config file path
	// is typically defined directly on the root Cobra command's PersistentFlags.
}
