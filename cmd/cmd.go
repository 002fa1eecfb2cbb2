// Package cmd provides CLI command implementations for Voiceboard.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/sungrove/voiceboard-go/internal/canvas"
	"github.com/sungrove/voiceboard-go/internal/catalog"
	"github.com/sungrove/voiceboard-go/internal/compile"
	"github.com/sungrove/voiceboard-go/internal/config"
	"github.com/sungrove/voiceboard-go/internal/draft"
	"github.com/sungrove/voiceboard-go/internal/extract"
	"github.com/sungrove/voiceboard-go/internal/logx"
	"github.com/sungrove/voiceboard-go/internal/persist"
	"github.com/sungrove/voiceboard-go/internal/toolgen"
	"github.com/sungrove/voiceboard-go/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewCmd starts a new agent canvas from a template.
type NewCmd struct {
	Name     string `arg:"" help:"Business name"`
	Template string `short:"t" help:"Template id (see 'voiceboard templates'); empty for a blank canvas"`
	File     string `short:"f" default:"agent.json" help:"Canvas file to write"`
}

// Run executes the new command.
func (c *NewCmd) Run() error {
	store, err := catalog.Instantiate(c.Template, c.Name)
	if err != nil {
		return err
	}

	cfg := compile.Compile(store.Snapshot())
	if err := writeCanvasFile(c.File, cfg); err != nil {
		return err
	}

	appCfg, err := config.Load()
	if err == nil {
		if store, err := openDrafts(appCfg, false); err == nil {
			defer func() { _ = store.Close() }()
			_ = store.Put(context.Background(), draftKeyFor(cfg), cfg)
		}
	}

	color.Green("✓ Created %s", c.File)
	fmt.Printf("  Business:  %s\n", cfg.BusinessName)
	if c.Template != "" {
		fmt.Printf("  Template:  %s\n", c.Template)
	}
	fmt.Printf("  Blocks:    %d\n", len(cfg.Nodes))
	fmt.Printf("  Tools:     %d\n", len(cfg.Tools))
	fmt.Println("\nNext: edit the canvas, then 'voiceboard push' to save it to the runtime.")
	return nil
}

// TemplatesCmd lists the template catalog.
type TemplatesCmd struct{}

// Run executes the templates command.
func (c *TemplatesCmd) Run() error {
	for _, tpl := range catalog.All() {
		color.Cyan("%s (%s)", tpl.Name, tpl.ID)
		fmt.Printf("  %s\n", tpl.Description)
		for _, seed := range tpl.Tools {
			fmt.Printf("  - tool: %s (%s)\n", seed.Label, seed.ToolType)
		}
		for _, seed := range tpl.Integrations {
			fmt.Printf("  - integration: %s (%s)\n", seed.Label, seed.Platform)
		}
		fmt.Println()
	}
	return nil
}

// CompileCmd compiles a canvas file and prints the configuration.
type CompileCmd struct {
	File string `arg:"" optional:"" default:"agent.json" help:"Canvas file"`
}

// Run executes the compile command.
func (c *CompileCmd) Run() error {
	store, record, err := loadCanvas(c.File)
	if err != nil {
		return err
	}

	st := store.Snapshot()
	st.AgentID = record.ID
	cfg := compile.Compile(st)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// PushCmd saves a canvas file to the agent runtime immediately.
type PushCmd struct {
	File string `arg:"" optional:"" default:"agent.json" help:"Canvas file"`
}

// Run executes the push command.
func (c *PushCmd) Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return err
	}
	logx.Init(appCfg.Environment)

	store, record, err := loadCanvas(c.File)
	if err != nil {
		return err
	}

	coord := newCoordinator(appCfg)
	defer coord.Close()
	if record.ID != "" {
		coord.SetAgentID(record.ID)
	}

	if err := coord.SaveNow(context.Background(), store.Snapshot(), true); err != nil {
		return fmt.Errorf("saving agent: %w", err)
	}

	// Reconcile a first-create id back into the canvas file so later
	// pushes use update semantics.
	if record.ID == "" && coord.AgentID() != "" {
		record.ID = coord.AgentID()
		st := store.Snapshot()
		st.AgentID = record.ID
		if err := writeCanvasFile(c.File, compile.Compile(st)); err != nil {
			return err
		}
	}

	if drafts, err := openDrafts(appCfg, false); err == nil {
		defer func() { _ = drafts.Close() }()
		st := store.Snapshot()
		st.AgentID = record.ID
		cfg := compile.Compile(st)
		_ = drafts.Put(context.Background(), draftKeyFor(cfg), cfg)
	}

	color.Green("✓ Saved agent %s", coord.AgentID())
	return nil
}

// PullCmd fetches an agent from the runtime into a canvas file.
type PullCmd struct {
	ID   string `arg:"" help:"Agent id"`
	File string `short:"f" default:"agent.json" help:"Canvas file to write"`
}

// Run executes the pull command.
func (c *PullCmd) Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return err
	}

	client := persist.NewClient(appCfg.Runtime.BaseURL, appCfg.Runtime.APIKey, appCfg.Runtime.Timeout)
	record, err := client.GetAgent(context.Background(), c.ID)
	if err != nil {
		return fmt.Errorf("fetching agent: %w", err)
	}

	store, err := compile.Hydrate(record)
	if err != nil {
		return fmt.Errorf("hydrating agent: %w", err)
	}

	st := store.Snapshot()
	st.AgentID = record.ID
	if err := writeCanvasFile(c.File, compile.Compile(st)); err != nil {
		return err
	}

	color.Green("✓ Pulled agent %s into %s", c.ID, c.File)
	return nil
}

// ImportMenuCmd parses a menu document into items on a tool block.
type ImportMenuCmd struct {
	File   string `arg:"" help:"Canvas file"`
	NodeID string `arg:"" help:"Id of the tool block to receive the items"`
	Menu   string `arg:"" help:"Menu document (text, or any format when extraction is configured)"`
}

// Run executes the import-menu command.
func (c *ImportMenuCmd) Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return err
	}
	logx.Init(appCfg.Environment)

	store, record, err := loadCanvas(c.File)
	if err != nil {
		return err
	}

	node := store.GetNode(c.NodeID)
	if node == nil || node.Tool == nil {
		return fmt.Errorf("no tool block with id %q in %s", c.NodeID, c.File)
	}

	text, err := menuText(appCfg, c.Menu)
	if err != nil {
		return err
	}

	items := extract.ParseMenuText(text)
	if len(items) == 0 {
		fmt.Println("No menu items recognized.")
		return nil
	}

	store.UpdateToolNode(c.NodeID, canvas.ToolPatch{MenuItems: items})

	st := store.Snapshot()
	st.AgentID = record.ID
	if err := writeCanvasFile(c.File, compile.Compile(st)); err != nil {
		return err
	}

	color.Green("✓ Imported %d menu item(s) onto %s", len(items), node.Label)
	return nil
}

// menuText reads the menu document, using the extraction service for
// non-text formats when it is configured. Extraction failures fall
// back to reading the file as plain text.
func menuText(appCfg *config.Config, path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading menu document: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if appCfg.Extract.BaseURL != "" && ext != ".txt" && ext != ".md" {
		client := extract.NewClient(appCfg.Extract.BaseURL, appCfg.Extract.Timeout)
		text, err := client.ExtractText(context.Background(), filepath.Base(path), contents)
		if err != nil {
			logx.Warn().Err(err).Msg("extraction failed, treating document as plain text")
			return string(contents), nil
		}
		return text, nil
	}
	return string(contents), nil
}

// ListCmd lists locally stored drafts.
type ListCmd struct{}

// Run executes the list command.
func (c *ListCmd) Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := openDrafts(appCfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	drafts, err := store.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing drafts: %w", err)
	}
	if len(drafts) == 0 {
		fmt.Println("No local drafts. Run 'voiceboard new' to start one.")
		return nil
	}

	for _, d := range drafts {
		status := "draft"
		if d.Config != nil && d.Config.ID != "" {
			status = "saved as " + d.Config.ID
		}
		fmt.Printf("%-24s %-20s %s\n", d.Key, d.SavedAt.Format("2006-01-02 15:04"), status)
	}
	return nil
}

// StatusCmd shows the state of a canvas file.
type StatusCmd struct {
	File string `arg:"" optional:"" default:"agent.json" help:"Canvas file"`
}

// Run executes the status command.
func (c *StatusCmd) Run() error {
	store, record, err := loadCanvas(c.File)
	if err != nil {
		return err
	}

	profile := store.Profile()
	fmt.Printf("## %s\n\n", c.File)
	fmt.Printf("Agent:        %s\n", profile.Name)
	fmt.Printf("Business:     %s (%s)\n", profile.BusinessName, catalog.BusinessTypeLabel(profile.BusinessType))
	if record.ID != "" {
		fmt.Printf("Runtime id:   %s\n", record.ID)
	} else {
		fmt.Println("Runtime id:   (not yet saved)")
	}
	fmt.Printf("Blocks:       %d\n", store.NodeCount())
	fmt.Printf("Connections:  %d\n", store.EdgeCount())
	fmt.Printf("Tools:        %d\n", len(store.NodesByKind(canvas.KindTool)))
	fmt.Printf("Integrations: %d\n", len(store.NodesByKind(canvas.KindIntegration)))
	return nil
}

// CleanCmd deletes local drafts.
type CleanCmd struct {
	Key string `arg:"" optional:"" help:"Draft key to delete; all drafts when omitted"`
}

// Run executes the clean command.
func (c *CleanCmd) Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return err
	}

	if c.Key != "" {
		store, err := openDrafts(appCfg, false)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.Delete(context.Background(), c.Key); err != nil {
			return fmt.Errorf("deleting draft: %w", err)
		}
		color.Green("✓ Deleted draft %s", c.Key)
		return nil
	}

	if err := os.RemoveAll(filepath.Join(appCfg.DataDir, "badger")); err != nil {
		return fmt.Errorf("removing draft store: %w", err)
	}
	color.Green("✓ Deleted all local drafts")
	return nil
}

// MCPCmd starts the MCP server on stdio.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return err
	}
	logx.Init(appCfg.Environment)

	coord := newCoordinator(appCfg)
	defer coord.Close()

	var gen *toolgen.Client
	if appCfg.ToolGen.BaseURL != "" {
		gen = toolgen.NewClient(appCfg.ToolGen.BaseURL, appCfg.ToolGen.Timeout)
	}

	server := mcp.NewServer(coord, gen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-osSignalChannel()
		cancel()
	}()

	err = server.Run(ctx, os.Stdin, os.Stdout)
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// Helper functions

func osSignalChannel() chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

// loadCanvas reads a canvas file and rebuilds the graph store from it.
func loadCanvas(path string) (*canvas.Store, *compile.AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var record compile.AgentConfig
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	store, err := compile.Hydrate(&record)
	if err != nil {
		return nil, nil, fmt.Errorf("hydrating %s: %w", path, err)
	}
	return store, &record, nil
}

func writeCanvasFile(path string, cfg *compile.AgentConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding canvas: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func newCoordinator(appCfg *config.Config) *persist.Coordinator {
	client := persist.NewClient(appCfg.Runtime.BaseURL, appCfg.Runtime.APIKey, appCfg.Runtime.Timeout)
	return persist.NewCoordinator(client, appCfg.Autosave.Debounce)
}

func openDrafts(appCfg *config.Config, readOnly bool) (draft.Store, error) {
	dbPath := filepath.Join(appCfg.DataDir, "badger")
	if err := os.MkdirAll(appCfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	store := draft.NewBadgerStore()
	if err := store.Initialize(dbPath, readOnly); err != nil {
		return nil, fmt.Errorf("initializing draft store: %w", err)
	}
	return store, nil
}

// draftKeyFor picks the local draft key: the runtime id once assigned,
// otherwise a slug of the business name.
func draftKeyFor(cfg *compile.AgentConfig) string {
	if cfg.ID != "" {
		return cfg.ID
	}
	slug := strings.ToLower(strings.TrimSpace(cfg.BusinessName))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "draft"
	}
	return slug
}

// CLI is the root Kong command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	Verbose bool             `short:"v" help:"Enable verbose output"`
	Quiet   bool             `short:"q" help:"Suppress non-essential output"`

	// Commands
	New        NewCmd        `cmd:"" help:"Start a new agent canvas from a template"`
	Templates  TemplatesCmd  `cmd:"" help:"List the template catalog"`
	Compile    CompileCmd    `cmd:"" help:"Compile a canvas file into its agent configuration"`
	Push       PushCmd       `cmd:"" help:"Save a canvas to the agent runtime now"`
	Pull       PullCmd       `cmd:"" help:"Fetch an agent from the runtime into a canvas file"`
	Watch      WatchCmd      `cmd:"" help:"Watch a canvas file and autosave changes"`
	ImportMenu ImportMenuCmd `cmd:"" help:"Parse a menu document into items on a tool block"`
	List       ListCmd       `cmd:"" help:"List local drafts"`
	Status     StatusCmd     `cmd:"" help:"Show the state of a canvas file"`
	Clean      CleanCmd      `cmd:"" help:"Delete local drafts"`
	MCP        MCPCmd        `cmd:"" help:"Start MCP server (stdio transport)"`
	Setup      SetupCmd      `cmd:"" help:"Configure MCP for Claude Code / Cursor"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	kongCtx := kong.Parse(c,
		kong.Name("voiceboard"),
		kong.Description("Canvas-based voice agent builder"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	return kongCtx.Run()
}
