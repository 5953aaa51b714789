package util

import (
	"os"
	"path/filepath"
)

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// ConfigDir returns the dirmerge configuration directory.
// Respects DIRMERGE_HOME for test isolation.
func ConfigDir() string {
	if home := os.Getenv("DIRMERGE_HOME"); home != "" {
		return home
	}
	return filepath.Join(HomeDir(), ".dirmerge")
}

// ConfigFileCandidates returns the config file paths probed in order.
func ConfigFileCandidates() []string {
	dir := ConfigDir()
	return []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.yml"),
		filepath.Join(dir, "config.toml"),
	}
}
