package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/temirov/codeweaver/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration under ~/.codeweaver.
	InitTargetGlobal InitTarget = "global"

	configurationDirectoryMode = 0o755

	// DefaultConfigurationTemplate is the document written by init. Every key mirrors the built-in default.
	DefaultConfigurationTemplate = `pack:
  output: ""
  include_gitignored: false
  ignore_patterns: []
  concurrency: 8
  clipboard: false
  tokens:
    enabled: false
    model: gpt-4o
serve:
  address: 127.0.0.1:0
  shutdown_timeout: 5s
`
)

// ErrConfigurationExists is returned when init would overwrite a file without Force.
var ErrConfigurationExists = errors.New("configuration file already exists")

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// InitializeConfiguration writes DefaultConfigurationTemplate to the requested target and returns its path.
func InitializeConfiguration(options InitOptions) (string, error) {
	destinationPath, resolveErr := configurationDestination(options)
	if resolveErr != nil {
		return "", resolveErr
	}

	existing, statErr := os.Stat(destinationPath)
	switch {
	case statErr == nil && existing.IsDir():
		return "", fmt.Errorf("configuration path %s is a directory", destinationPath)
	case statErr == nil && !options.Force:
		return "", fmt.Errorf("%w at %s (use --force to overwrite)", ErrConfigurationExists, destinationPath)
	case statErr != nil && !os.IsNotExist(statErr):
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, statErr)
	}

	if writeErr := atomic.WriteFile(destinationPath, strings.NewReader(DefaultConfigurationTemplate)); writeErr != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, writeErr)
	}
	return destinationPath, nil
}

// configurationDestination resolves the file init writes, creating the global directory when needed.
func configurationDestination(options InitOptions) (string, error) {
	switch options.Target {
	case "", InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			current, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", err)
			}
			workingDirectory = current
		}
		return filepath.Join(workingDirectory, utils.ConfigFileName), nil
	case InitTargetGlobal:
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory for configuration: %w", err)
		}
		configurationDirectory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
		if err := os.MkdirAll(configurationDirectory, configurationDirectoryMode); err != nil {
			return "", fmt.Errorf("create configuration directory %s: %w", configurationDirectory, err)
		}
		return filepath.Join(configurationDirectory, utils.ConfigFileName), nil
	default:
		return "", fmt.Errorf("unsupported init target %q", options.Target)
	}
}
