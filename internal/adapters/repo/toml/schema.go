package toml

import (
	"fmt"

	"github.com/bnema/wallet-bridge/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Browsers []browserSchema `toml:"browsers"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported profiles schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type browserSchema struct {
	ID      string   `toml:"id"`
	Name    string   `toml:"name"`
	Icon    string   `toml:"icon,omitempty"`
	Command string   `toml:"command"`
	Args    []string `toml:"args,omitempty"`
}

func defaultSchema() fileSchema {
	defaults := domain.DefaultBrowserProfiles()
	file := fileSchema{Version: currentSchemaVersion, Browsers: make([]browserSchema, 0, len(defaults))}
	for _, profile := range defaults {
		file.Browsers = append(file.Browsers, toSchema(profile))
	}
	return file
}

func toSchema(profile domain.BrowserProfile) browserSchema {
	return browserSchema{
		ID:      string(profile.ID),
		Name:    profile.Name,
		Icon:    profile.Icon,
		Command: profile.Command,
		Args:    profile.Args,
	}
}

func fromSchema(entry browserSchema) domain.BrowserProfile {
	profile := domain.BrowserProfile{
		ID:      domain.BrowserID(entry.ID),
		Name:    entry.Name,
		Icon:    entry.Icon,
		Command: entry.Command,
		Args:    entry.Args,
	}
	profile.Normalize()
	return profile
}
