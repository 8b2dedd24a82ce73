package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.lsp.dev/uri"
	"gopkg.in/yaml.v2"
)

// Config describes how to reach one language server.
type Config struct {
	// The name of the server. Think `gopls` not `go`. Used as the log name
	// and, by default, as the indicator title namespace.
	LspServerName string `yaml:"lspServerName,omitempty"`

	// Where the binary of the server is. Not a URI. Passed to exec.CommandContext
	LspServerPath string `yaml:"lspServerPath,omitempty"`

	// The args of the lsp server. Passed to exec.CommandContext.
	LspServerArgs []string `yaml:"lspServerArgs,omitempty"`

	// host:port of a server already listening on TCP. Takes precedence over
	// LspServerPath.
	LspServerAddress string `yaml:"lspServerAddress,omitempty"`

	// Paths or file:// URIs of the workspace folders. The first one is the
	// root.
	WorkspaceFolders []string `yaml:"workspaceFolders,omitempty"`

	// JSON string sent verbatim as initializationOptions.
	InitializationOptions string `yaml:"initializationOptions,omitempty"`
}

// ParseConfig decodes a Config from the generic map found in a settings file.
func ParseConfig(raw map[string]interface{}) (Config, error) {
	var c Config
	// map[string]any -> yaml string -> Config
	b, err := yaml.Marshal(raw)
	if err != nil {
		return c, fmt.Errorf("server config marshal error: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("server config unmarshal error: %w", err)
	}
	return c, nil
}

// Validate fills defaults and checks that the server can be reached.
func (c *Config) Validate() error {
	if c.LspServerPath == "" && c.LspServerAddress == "" {
		return fmt.Errorf("must provide lspServerPath or lspServerAddress")
	}
	if c.LspServerName == "" {
		c.LspServerName = "generic"
	}
	if c.InitializationOptions != "" && !json.Valid([]byte(c.InitializationOptions)) {
		return fmt.Errorf("initializationOptions is not valid JSON")
	}
	return nil
}

// workspaceURIs converts the configured folders to file URIs.
func (c *Config) workspaceURIs() ([]uri.URI, error) {
	var out []uri.URI
	for _, folder := range c.WorkspaceFolders {
		folder = strings.TrimSpace(folder)
		if folder == "" {
			continue
		}
		if strings.HasPrefix(folder, "file://") {
			out = append(out, uri.URI(folder))
			continue
		}
		abs, err := filepath.Abs(folder)
		if err != nil {
			return nil, fmt.Errorf("workspace folder %q: %w", folder, err)
		}
		out = append(out, uri.File(abs))
	}
	return out, nil
}

// rootURI returns the first workspace folder, or a fresh temp dir that the
// caller must remove.
func (c *Config) rootURI() (root uri.URI, folders []uri.URI, tempDir string, err error) {
	folders, err = c.workspaceURIs()
	if err != nil {
		return "", nil, "", err
	}
	if len(folders) > 0 {
		return folders[0], folders, "", nil
	}
	tempDir, err = os.MkdirTemp("", "progress-bridge")
	if err != nil {
		return "", nil, "", fmt.Errorf("tmp dir error: %w", err)
	}
	return uri.File(tempDir), nil, tempDir, nil
}
