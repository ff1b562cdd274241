package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ConfigFileName is the configuration file looked up in the working
	// directory when no --config flag is given.
	ConfigFileName = "buildprobe.yaml"
	globalDirName  = ".buildprobe"
	scratchPattern = "buildprobe-*"
)

// Paths captures the locations a buildprobe invocation works with.
type Paths struct {
	Root       string
	ConfigFile string
}

// Resolve determines the configuration file from the optional --config flag,
// falling back to buildprobe.yaml in the current working directory.
func Resolve(configFlag string) (Paths, error) {
	configFlag = strings.TrimSpace(configFlag)
	if configFlag != "" {
		file, err := filepath.Abs(configFlag)
		if err != nil {
			return Paths{}, fmt.Errorf("resolve config path: %w", err)
		}
		return Paths{Root: filepath.Dir(file), ConfigFile: file}, nil
	}

	root, err := os.Getwd()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve working directory: %w", err)
	}
	return Paths{Root: root, ConfigFile: filepath.Join(root, ConfigFileName)}, nil
}

// Rel resolves value against the configuration root unless it is absolute.
func (p Paths) Rel(value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(p.Root, value)
}

// GlobalDir returns the user-level buildprobe directory (~/.buildprobe).
// It creates the directory if it does not exist.
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}
	dir := filepath.Join(home, globalDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create global dir: %w", err)
	}
	return dir, nil
}

// GlobalLogsDir returns the global logs directory (~/.buildprobe/logs).
// It creates the directory if it does not exist.
func GlobalLogsDir() (string, error) {
	global, err := GlobalDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(global, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create global logs dir: %w", err)
	}
	return dir, nil
}

// NewScratchDir creates a fresh directory for a single probe session under
// parent (the system temp dir when empty). The returned cleanup removes it.
func NewScratchDir(parent string) (string, func() error, error) {
	dir, err := os.MkdirTemp(parent, scratchPattern)
	if err != nil {
		return "", nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, func() error { return os.RemoveAll(dir) }, nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
