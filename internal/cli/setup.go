package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/genome-variant-explorer/internal/config"
)

// ServerName is the key the MCP server is registered under in client configs.
const ServerName = "genome-variant-explorer"

const serverBinary = "mcp-server"

// ClientConfig is the MCP client configuration file structure. Entries other
// than mcpServers are preserved.
type ClientConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	Extra      map[string]json.RawMessage `json:"-"`
}

// MCPServerConfig represents a single MCP server configuration.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// DefaultClientConfigPath returns the desktop client's config file location.
func DefaultClientConfigPath() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "Claude", "claude_desktop_config.json"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json"), nil
	}
}

// LoadClientConfig reads path; a missing file yields an empty config.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{MCPServers: map[string]MCPServerConfig{}, Extra: map[string]json.RawMessage{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read client config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg.Extra); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	if raw, ok := cfg.Extra["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &cfg.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(cfg.Extra, "mcpServers")
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = map[string]MCPServerConfig{}
	}
	return cfg, nil
}

// SaveClientConfig writes cfg to path, creating the directory if needed.
func SaveClientConfig(path string, cfg *ClientConfig) error {
	out := make(map[string]any, len(cfg.Extra)+1)
	for k, v := range cfg.Extra {
		out[k] = v
	}
	out["mcpServers"] = cfg.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal client config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write client config: %w", err)
	}
	return nil
}

// findServerBinary looks for the MCP server next to the running executable,
// then on PATH.
func findServerBinary() (string, error) {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), serverBinary)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath(serverBinary); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("binary %q not found next to genomectl or on PATH; pass --binary", serverBinary)
}

func (a *app) newSetupCmd() *cobra.Command {
	var (
		binary     string
		clientPath string
		dataDir    string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the MCP server with a desktop MCP client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if binary == "" {
				if binary, err = findServerBinary(); err != nil {
					return err
				}
			}
			if clientPath == "" {
				if clientPath, err = DefaultClientConfigPath(); err != nil {
					return err
				}
			}

			entry := MCPServerConfig{Command: binary}
			if a.configFile != "" {
				abs, err := filepath.Abs(a.configFile)
				if err != nil {
					return err
				}
				entry.Args = []string{"--config", abs}
			}
			if dataDir != "" {
				entry.Env = map[string]string{config.DataDirEnv: dataDir}
			}

			if dryRun {
				return render(cmd.OutOrStdout(), OutputJSON, map[string]any{
					"mcpServers": map[string]MCPServerConfig{ServerName: entry},
				})
			}

			clientCfg, err := LoadClientConfig(clientPath)
			if err != nil {
				return err
			}
			clientCfg.MCPServers[ServerName] = entry
			if err := SaveClientConfig(clientPath, clientCfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s in %s\nRestart the client to load it.\n", ServerName, clientPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&binary, "binary", "", "path to the MCP server binary")
	cmd.Flags().StringVar(&clientPath, "client-config", "", "client config file to update")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory passed to the server")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the entry instead of writing it")
	return cmd
}
