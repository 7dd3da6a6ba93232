package commands

import (
	"os"
	"path/filepath"
	"runtime"
)

type Flags struct {
	LogLevel string
	LogFile  string
	DataDir  string
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "counsel")
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/counsel/counsel.log
// On Linux: $XDG_STATE_HOME/counsel/counsel.log (defaults to ~/.local/state/counsel/counsel.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "counsel", "counsel.log")
	}

	home, _ := os.UserHomeDir()
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "counsel", "counsel.log")
	}
	return filepath.Join(home, ".local", "state", "counsel", "counsel.log")
}
