package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
)

// SetupCmd configures MCP for various AI clients.
type SetupCmd struct {
	Claude   bool   `help:"Configure for Claude Code"`
	Cursor   bool   `help:"Configure for Cursor"`
	Local    bool   `help:"Create project-local configuration"`
	Global   bool   `help:"Create global configuration"`
	FilePath string `help:"Custom file path for configuration"`
}

// Run executes the setup command.
func (c *SetupCmd) Run() error {
	// If no specific client is specified, output config to stdout
	if !c.Claude && !c.Cursor {
		content, err := json.MarshalIndent(generateMCPConfig(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(content))
		return nil
	}

	// If neither local nor global is specified, default to local
	if !c.Local && !c.Global {
		c.Local = true
	}

	if c.Claude {
		if err := c.setupClient("claude", "Claude"); err != nil {
			return err
		}
	}
	if c.Cursor {
		if err := c.setupClient("cursor", "Cursor"); err != nil {
			return err
		}
	}
	return nil
}

func (c *SetupCmd) setupClient(client, display string) error {
	mcpConfig := generateMCPConfig()

	if c.Global {
		globalPath := getGlobalConfigPath(client)
		if err := writeClientConfig(globalPath, mcpConfig); err != nil {
			return err
		}
		color.Green("✓ Created global %s MCP config at %s", display, globalPath)
	}

	if c.Local {
		localPath := filepath.Join(".", "."+client, "mcp.json")
		if c.FilePath != "" {
			localPath = filepath.Join(c.FilePath, "mcp.json")
		}
		if err := writeClientConfig(localPath, mcpConfig); err != nil {
			return err
		}
		color.Green("✓ Created local %s MCP config at %s", display, localPath)
	}
	return nil
}

func generateMCPConfig() map[string]any {
	return map[string]any{
		"mcpServers": map[string]any{
			"voiceboard": map[string]any{
				"command": "voiceboard",
				"args":    []string{"mcp"},
			},
		},
	}
}

func getGlobalConfigPath(client string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
	}
	return filepath.Join(homeDir, "."+client, "global", "mcp.json")
}

func writeClientConfig(configPath string, config map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	content, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	content = append(content, '\n')

	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
