package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/codeweaver/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	Pack  PackConfiguration  `mapstructure:"pack"`
	Serve ServeConfiguration `mapstructure:"serve"`
}

// PackConfiguration defines defaults for the pack command.
type PackConfiguration struct {
	Output            string             `mapstructure:"output"`
	IncludeGitignored *bool              `mapstructure:"include_gitignored"`
	IgnorePatterns    []string           `mapstructure:"ignore_patterns"`
	Concurrency       *int               `mapstructure:"concurrency"`
	Clipboard         *bool              `mapstructure:"clipboard"`
	Tokens            TokenConfiguration `mapstructure:"tokens"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// ServeConfiguration defines defaults for the tool server.
type ServeConfiguration struct {
	Address         string `mapstructure:"address"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

// ShutdownTimeoutDuration parses ShutdownTimeout, returning fallback when it is unset.
func (config ServeConfiguration) ShutdownTimeoutDuration(fallback time.Duration) (time.Duration, error) {
	if config.ShutdownTimeout == "" {
		return fallback, nil
	}
	timeout, parseErr := time.ParseDuration(config.ShutdownTimeout)
	if parseErr != nil {
		return 0, fmt.Errorf("parse serve.shutdown_timeout %q: %w", config.ShutdownTimeout, parseErr)
	}
	return timeout, nil
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName)
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Pack = result.Pack.merge(override.Pack)
	result.Serve = result.Serve.merge(override.Serve)
	return result
}

func (config PackConfiguration) merge(override PackConfiguration) PackConfiguration {
	result := config
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.IncludeGitignored != nil {
		result.IncludeGitignored = cloneBool(override.IncludeGitignored)
	}
	if len(override.IgnorePatterns) > 0 {
		result.IgnorePatterns = append([]string{}, override.IgnorePatterns...)
	}
	if override.Concurrency != nil {
		result.Concurrency = cloneInt(override.Concurrency)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func (config ServeConfiguration) merge(override ServeConfiguration) ServeConfiguration {
	result := config
	if override.Address != "" {
		result.Address = override.Address
	}
	if override.ShutdownTimeout != "" {
		result.ShutdownTimeout = override.ShutdownTimeout
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
