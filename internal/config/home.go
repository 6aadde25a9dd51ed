package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnvVar overrides the catcensus home directory
const HomeEnvVar = "CATCENSUS_HOME"

// DefaultHomeDirName is the home directory used relative to the working directory
const DefaultHomeDirName = ".catcensus"

// GetHome returns the catcensus home directory
// Priority order:
//  1. CATCENSUS_HOME environment variable (if set)
//  2. .catcensus in the current working directory
//
// The directory is not created; callers that write create what they need.
func GetHome() (string, error) {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	return filepath.Join(cwd, DefaultHomeDirName), nil
}

// Load resolves the configuration used by commands. An explicit path wins;
// otherwise config.yaml in the home directory is read if it exists.
func Load(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", explicitPath, err)
		}
		return LoadConfig(explicitPath)
	}

	home, err := GetHome()
	if err != nil {
		return nil, err
	}
	return LoadConfigFromDir(home)
}
