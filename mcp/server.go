// Package mcp provides the MCP (Model Context Protocol) server for
// Voiceboard.
//
// It exposes the canvas mutation surface (add/update/remove blocks,
// profile patches, compile, save) as MCP tools over stdio so an
// operator front end or assistant can drive the builder.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sungrove/voiceboard-go/internal/canvas"
	"github.com/sungrove/voiceboard-go/internal/catalog"
	"github.com/sungrove/voiceboard-go/internal/persist"
	"github.com/sungrove/voiceboard-go/internal/toolgen"
)

// Server represents the MCP server for one builder session.
type Server struct {
	mu     sync.Mutex
	store  *canvas.Store
	tpl    *catalog.Template
	coord  *persist.Coordinator
	gen    *toolgen.Client
	server *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server with a blank canvas. The
// coordinator drives autosave after every mutation; gen may be nil
// when tool generation is not configured.
func NewServer(coord *persist.Coordinator, gen *toolgen.Client) *Server {
	s := &Server{
		store: canvas.NewStore(),
		coord: coord,
		gen:   gen,
	}

	// Create MCP server
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "voiceboard",
		Version: "0.1.0",
	}, nil)

	// Register tools
	s.registerTools()

	// Register resources
	s.registerResources()

	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "canvas_new",
			Description: "Start a new agent canvas from a template (or blank) for the given business name.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"template":      {Type: "string", Description: "Template id, empty for a blank canvas"},
					"business_name": {Type: "string", Description: "Name of the business"},
				},
				Required: []string{"business_name"},
			},
		},
		{
			Name:        "canvas_templates",
			Description: "List the available business vertical templates.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "canvas_add_tool",
			Description: "Add a capability tool block to the canvas, connected to the personality block.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"tool_type": {Type: "string", Description: "Tool type, e.g. take-order, menu, faq"},
					"label":     {Type: "string", Description: "Display label"},
				},
				Required: []string{"tool_type"},
			},
		},
		{
			Name:        "canvas_add_integration",
			Description: "Add a third-party integration block to the canvas.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"integration_type": {Type: "string", Description: "Integration type, e.g. calendar"},
					"platform":         {Type: "string", Description: "Platform, e.g. google-calendar"},
					"label":            {Type: "string", Description: "Display label"},
				},
				Required: []string{"integration_type"},
			},
		},
		{
			Name:        "canvas_update_tool",
			Description: "Update a tool block. Only the provided fields change; everything else is preserved.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"node_id":    {Type: "string", Description: "Id of the tool block"},
					"label":      {Type: "string", Description: "New display label"},
					"menu_items": {Type: "array", Items: &jsonschema.Schema{Type: "object"}, Description: "Menu items (name, description, price, category)"},
					"sheet":      {Type: "object", Description: "Spreadsheet binding from the linking flow"},
					"schema":     {Type: "object", Description: "Hand-authored JSON schema for a function tool"},
				},
				Required: []string{"node_id"},
			},
		},
		{
			Name:        "canvas_update_integration",
			Description: "Update an integration block. Only the provided fields change; everything else is preserved.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"node_id":           {Type: "string", Description: "Id of the integration block"},
					"label":             {Type: "string", Description: "New display label"},
					"platform":          {Type: "string", Description: "Platform, e.g. google-calendar"},
					"connection_status": {Type: "string", Description: "Lifecycle state: disconnected, pending, or connected"},
					"config":            {Type: "object", Description: "Platform-specific settings"},
				},
				Required: []string{"node_id"},
			},
		},
		{
			Name:        "canvas_remove_node",
			Description: "Remove a tool or integration block. Core blocks are never removed.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"node_id": {Type: "string", Description: "Id of the block to remove"},
				},
				Required: []string{"node_id"},
			},
		},
		{
			Name:        "canvas_patch_profile",
			Description: "Update agent profile fields. Renaming the business rewrites still-default greeting text.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name":                 {Type: "string"},
					"business_name":        {Type: "string"},
					"business_type":        {Type: "string"},
					"business_description": {Type: "string"},
					"custom_requirements":  {Type: "string"},
					"instructions":         {Type: "string"},
					"first_message":        {Type: "string"},
					"voice":                {Type: "string"},
					"language":             {Type: "string"},
				},
			},
		},
		{
			Name:        "canvas_generate_tools",
			Description: "Generate function tools for a tool block from the business profile.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"node_id":      {Type: "string", Description: "Id of the tool block"},
					"requirements": {Type: "string", Description: "Extra requirements for generation"},
				},
				Required: []string{"node_id"},
			},
		},
		{
			Name:        "canvas_import_menu",
			Description: "Parse extracted menu text into items on a tool block.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"node_id": {Type: "string", Description: "Id of the tool block"},
					"text":    {Type: "string", Description: "Free text from document extraction"},
				},
				Required: []string{"node_id", "text"},
			},
		},
		{
			Name:        "canvas_compile",
			Description: "Compile the canvas into the normalized agent configuration document.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "canvas_save",
			Description: "Save the agent to the runtime now, bypassing the autosave debounce.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "voiceboard://overview",
			Name:        "Canvas Overview",
			Description: "Current canvas node/edge counts and profile summary",
			MimeType:    "text/plain",
		},
		{
			URI:         "voiceboard://templates",
			Name:        "Template Catalog",
			Description: "Business vertical templates with their recommended blocks",
			MimeType:    "text/plain",
		},
		{
			URI:         "voiceboard://config",
			Name:        "Compiled Configuration",
			Description: "The current canvas compiled to its agent configuration document",
			MimeType:    "application/json",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case "canvas_new":
		return s.handleNew(argString(args, "template"), argString(args, "business_name"))
	case "canvas_templates":
		return handleTemplates(), nil
	case "canvas_add_tool":
		return s.handleAddTool(argString(args, "tool_type"), argString(args, "label"))
	case "canvas_add_integration":
		return s.handleAddIntegration(argString(args, "integration_type"), argString(args, "platform"), argString(args, "label"))
	case "canvas_update_tool":
		return s.handleUpdateTool(args)
	case "canvas_update_integration":
		return s.handleUpdateIntegration(args)
	case "canvas_remove_node":
		return s.handleRemoveNode(argString(args, "node_id"))
	case "canvas_patch_profile":
		return s.handlePatchProfile(args)
	case "canvas_generate_tools":
		return s.handleGenerateTools(ctx, argString(args, "node_id"), argString(args, "requirements"))
	case "canvas_import_menu":
		return s.handleImportMenu(argString(args, "node_id"), argString(args, "text"))
	case "canvas_compile":
		return s.handleCompile()
	case "canvas_save":
		return s.handleSave(ctx)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch uri {
	case "voiceboard://overview":
		return s.overview(), nil
	case "voiceboard://templates":
		return handleTemplates(), nil
	case "voiceboard://config":
		return s.compiledJSON()
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// Note: Do NOT use SetIndent - MCP protocol requires compact JSON (one line per message)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		// Parse JSON-RPC request
		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		// Handle request
		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    "voiceboard",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		_ = json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	mimeType := "text/plain"
	if uri == "voiceboard://config" {
		mimeType = "application/json"
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": mimeType,
					"text":     content,
				},
			},
		},
	}
}

// Helper functions

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}

func argString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// registerTools registers tools with the MCP server.
func (s *Server) registerTools() {
	// Tools are handled via ListTools and CallTool
}

// registerResources registers resources with the MCP server.
func (s *Server) registerResources() {
	// Resources are handled via ListResources and ReadResource
}
