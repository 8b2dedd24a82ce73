package bridge

import (
	"fmt"
	"os"
	"time"

	"github.com/konveyor/progress-bridge/lsp/client"
	"gopkg.in/yaml.v2"
)

// Settings is the content of a settings file.
//
//	namespace: gopls
//	pollInterval: 200ms
//	throttleInterval: 500ms
//	server:
//	  lspServerName: gopls
//	  lspServerPath: /usr/bin/gopls
//	  workspaceFolders: [/src/project]
type Settings struct {
	Namespace        *string                `yaml:"namespace,omitempty"`
	PollInterval     time.Duration          `yaml:"pollInterval,omitempty"`
	ThrottleInterval time.Duration          `yaml:"throttleInterval,omitempty"`
	Server           map[string]interface{} `yaml:"server,omitempty"`
}

// LoadSettings reads and decodes the settings file at path.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	content, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("unable to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(content, &s); err != nil {
		return s, fmt.Errorf("unable to parse settings file %s: %w", path, err)
	}
	if s.PollInterval < 0 || s.ThrottleInterval < 0 {
		return s, fmt.Errorf("settings file %s: intervals must not be negative", path)
	}
	return s, nil
}

// ServerConfig decodes the server section.
func (s Settings) ServerConfig() (client.Config, error) {
	if len(s.Server) == 0 {
		return client.Config{}, nil
	}
	return client.ParseConfig(s.Server)
}
