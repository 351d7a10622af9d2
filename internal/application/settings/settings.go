// Package settings defines application-level configuration data.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Backend kinds.
const (
	BackendBleve = "bleve"
	BackendExec  = "exec"
)

// FetchConfig controls feed downloads.
type FetchConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" kong:"help='Per-feed fetch timeout in seconds (0 disables)',default='30'"`
	Concurrency    int    `yaml:"concurrency" kong:"help='Feeds fetched in parallel',default='1'"`
	UserAgent      string `yaml:"user_agent" kong:"help='HTTP User-Agent for feed requests',default='rsscluster/1.0'"`
}

// BackendConfig selects and configures the similarity backend.
type BackendConfig struct {
	Kind           string `yaml:"kind" kong:"help='Similarity backend (bleve/exec)',default='bleve',enum='bleve,exec'"`
	DataDir        string `yaml:"data_dir" kong:"help='Directory holding backend sessions and the session catalog'"`
	MaxResults     int    `yaml:"max_results" kong:"help='Maximum neighbours returned per query',default='100'"`
	Command        string `yaml:"command" kong:"help='Command run by the exec backend, split on whitespace (no shell quoting)'"`
	TimeoutSeconds int    `yaml:"timeout_seconds" kong:"help='Exec backend call timeout in seconds',default='300'"`
}

// Timeout returns the exec backend call timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Settings represents the application configuration.
type Settings struct {
	Threshold       float64       `yaml:"threshold" kong:"short='t',help='Documents whose similarity is larger than this threshold are considered similar (0-1)',default='0.6'"`
	Session         string        `yaml:"session" kong:"help='Backend session name',default='rsscluster'"`
	Method          string        `yaml:"method" kong:"help='Training method passed to the backend',default='lsi'"`
	ExcludeSameFeed bool          `yaml:"exclude_same_feed" kong:"short='x',help='Do not report matches published by the same feed as the seed story'"`
	LogLevel        string        `yaml:"log_level" kong:"help='Log level (debug/info/warn/error)',default='info',enum='debug,info,warn,error'"`
	Fetch           FetchConfig   `yaml:"fetch" kong:"embed,prefix='fetch.'"`
	Backend         BackendConfig `yaml:"backend" kong:"embed,prefix='backend.'"`
}

// FetchTimeout returns the per-feed timeout.
func (s Settings) FetchTimeout() time.Duration {
	return time.Duration(s.Fetch.TimeoutSeconds) * time.Second
}

// Validate reports settings that cannot produce a run.
func (s Settings) Validate() error {
	if s.Threshold < 0 || s.Threshold > 1 {
		return fmt.Errorf("threshold %v is outside [0, 1]", s.Threshold)
	}
	if strings.TrimSpace(s.Session) == "" {
		return errors.New("session name is empty")
	}
	if strings.ContainsAny(s.Session, `/\`) {
		return fmt.Errorf("session name %q must not contain path separators", s.Session)
	}
	switch s.Backend.Kind {
	case BackendBleve:
	case BackendExec:
		if strings.TrimSpace(s.Backend.Command) == "" {
			return errors.New("exec backend requires backend.command")
		}
		if strings.ContainsAny(s.Backend.Command, `"'\`) {
			return fmt.Errorf("backend.command %q must not use quotes or escapes; it is split on whitespace", s.Backend.Command)
		}
	default:
		return fmt.Errorf("unknown backend kind %q", s.Backend.Kind)
	}
	return nil
}
