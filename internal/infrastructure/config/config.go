// Package config handles configuration loading.
package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/tesso57/rsscluster/internal/application/settings"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns ~/.config/rsscluster/config.yaml, or "" when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rsscluster", "config.yaml")
}

// DefaultDataDir returns the directory used for backend sessions when none
// is configured.
func DefaultDataDir() string {
	return filepath.Join(defaultDataHome(), "rsscluster")
}

func defaultDataHome() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome != "" {
		return dataHome
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// NewParser builds a kong parser for target that resolves unset flags from
// the YAML files at paths. Missing files are ignored.
func NewParser(target any, paths []string, options ...kong.Option) (*kong.Kong, error) {
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) != "" {
			existing = append(existing, p)
		}
	}
	opts := append([]kong.Option{kong.Configuration(YAMLLoader, existing...)}, options...)
	return kong.New(target, opts...)
}

// Normalize fills derived defaults and trims free-form values.
func Normalize(s *settings.Settings) {
	s.Session = strings.TrimSpace(s.Session)
	s.Method = strings.TrimSpace(s.Method)
	s.Backend.Command = strings.TrimSpace(s.Backend.Command)
	s.Backend.DataDir = strings.TrimSpace(s.Backend.DataDir)
	if s.Backend.DataDir == "" {
		s.Backend.DataDir = DefaultDataDir()
	}
	if s.Fetch.Concurrency < 1 {
		s.Fetch.Concurrency = 1
	}
	if s.Backend.MaxResults <= 0 {
		s.Backend.MaxResults = 100
	}
}

// YAMLLoader is a kong.ConfigurationLoader for YAML files. Flag names map to
// snake_case keys, and dotted names walk nested mappings.
func YAMLLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	var f kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		names := []string{flag.Name, strings.ReplaceAll(flag.Name, "-", "_")}
		for _, name := range names {
			if v, ok := values[name]; ok {
				return v, nil
			}
			if v, ok := lookupNested(values, strings.Split(name, ".")); ok {
				return v, nil
			}
		}
		return nil, nil
	}
	return f, nil
}

func lookupNested(values map[string]any, parts []string) (any, bool) {
	if len(parts) < 2 {
		return nil, false
	}
	curr := values
	for i, part := range parts {
		if i == len(parts)-1 {
			v, ok := curr[part]
			return v, ok
		}
		next, ok := curr[part].(map[string]any)
		if !ok {
			return nil, false
		}
		curr = next
	}
	return nil, false
}
