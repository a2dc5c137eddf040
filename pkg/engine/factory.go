// pkg/engine/factory.go
package engine

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/taskora-ai/taskora/pkg/config"
	"github.com/taskora-ai/taskora/pkg/event"
	"github.com/taskora-ai/taskora/pkg/hook"
	"github.com/taskora-ai/taskora/pkg/logging"
	"github.com/taskora-ai/taskora/pkg/version"
)

// AppManagerFactory constructs AppManager instances with all required
// components.
type AppManagerFactory interface {
	CreateWithConfig(flags *pflag.FlagSet, configFile string) (*AppManager, error)
}

// DefaultAppManagerFactory is the standard AppManagerFactory
// implementation.
type DefaultAppManagerFactory struct{}

// Create initializes a new AppManager: it loads configuration from
// configFile, configures global logging from the config's log section
// and the runtime flags, and sets up a cancellable root context. flags
// may be nil.
func (f *DefaultAppManagerFactory) Create(flags *pflag.FlagSet, configFile string) (*AppManager, error) {
	// Provisional logging so config-load errors are visible; replaced
	// once the config is known.
	logging.ConfigureGlobal(f.GetRuntimeLogLevel(flags))

	configManager := config.NewManager()
	if err := configManager.Load(flags, configFile); err != nil {
		return nil, err
	}

	if err := f.configureLogging(flags, configManager.Get().Log); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &AppManager{
		ctx:           ctx,
		cancel:        cancel,
		ConfigManager: configManager,
		EventBus:      event.New(),
		HookManager:   hook.NewManager(),
		Registry:      NewRegistry(),
		Version:       version.Get(),
	}, nil
}

// CreateWithConfig creates a new AppManager using the provided flag set
// and configuration file.
func (f *DefaultAppManagerFactory) CreateWithConfig(flags *pflag.FlagSet, configFile string) (*AppManager, error) {
	return f.Create(flags, configFile)
}

// CreateWithNoConfig creates a new AppManager without flags or a
// configuration file.
func (f *DefaultAppManagerFactory) CreateWithNoConfig() (*AppManager, error) {
	return f.Create(nil, "")
}

// configureLogging applies the log section of the loaded configuration.
// An explicit verbosity flag wins over the configured level; --debug is
// already folded into the log level during config loading.
func (f *DefaultAppManagerFactory) configureLogging(flags *pflag.FlagSet, logCfg config.LogConfig) error {
	level := logCfg.Level
	if flags != nil {
		if n, err := flags.GetCount("verbosity"); err == nil && n > 0 {
			level = f.GetRuntimeLogLevel(flags).String()
		}
	}
	return logging.Configure(level, logCfg.Format, logCfg.File)
}

// GetRuntimeLogLevel maps the repeatable verbosity flag to a zerolog
// level: -v info, -vv debug, -vvv trace, otherwise warn.
func (f *DefaultAppManagerFactory) GetRuntimeLogLevel(flags *pflag.FlagSet) zerolog.Level {
	logLevel := zerolog.WarnLevel
	if flags != nil {
		verbosityLevel, err := flags.GetCount("verbosity")
		if err == nil {
			switch verbosityLevel {
			case 1:
				logLevel = zerolog.InfoLevel
			case 2:
				logLevel = zerolog.DebugLevel
			case 3:
				logLevel = zerolog.TraceLevel
			default:
				logLevel = zerolog.WarnLevel
			}
		}
	}
	return logLevel
}
