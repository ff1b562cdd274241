package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// resolveExternalPath returns path as-is if absolute, otherwise joins it with root.
func resolveExternalPath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// loadProgramFiles reads each file in ProgramFiles, unmarshals it as
// map[string]Program, and merges into c.Programs with duplicate detection.
func (c *Config) loadProgramFiles(root string) error {
	if len(c.ProgramFiles) == 0 {
		return nil
	}

	if c.Programs == nil {
		c.Programs = map[string]Program{}
	}

	sources := make(map[string]string, len(c.Programs))
	for name := range c.Programs {
		sources[name] = "inline config"
	}

	for _, relPath := range c.ProgramFiles {
		data, err := os.ReadFile(resolveExternalPath(root, relPath))
		if err != nil {
			return fmt.Errorf("load program file %q: %w", relPath, err)
		}

		var programs map[string]Program
		if err := yaml.Unmarshal(data, &programs); err != nil {
			return fmt.Errorf("parse program file %q: %w", relPath, err)
		}

		for name, program := range programs {
			if existing, ok := sources[name]; ok {
				return fmt.Errorf("program %q defined in both %s and %q", name, existing, relPath)
			}
			sources[name] = relPath
			c.Programs[name] = program
		}
	}

	return nil
}
