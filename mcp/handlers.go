package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/sungrove/voiceboard-go/internal/canvas"
	"github.com/sungrove/voiceboard-go/internal/catalog"
	"github.com/sungrove/voiceboard-go/internal/compile"
	"github.com/sungrove/voiceboard-go/internal/extract"
	"github.com/sungrove/voiceboard-go/internal/toolgen"
)

// Tool handlers. The server mutex is held by CallTool.

func (s *Server) handleNew(templateID, businessName string) (string, error) {
	if businessName == "" {
		return "", fmt.Errorf("business_name is required")
	}

	store, err := catalog.Instantiate(templateID, businessName)
	if err != nil {
		return "", err
	}
	s.store = store
	s.tpl = nil
	if templateID != "" {
		s.tpl, _ = catalog.Lookup(templateID)
	}
	s.scheduleAutosave()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Started canvas for **%s**", businessName))
	if s.tpl != nil {
		sb.WriteString(fmt.Sprintf(" from the %s template", s.tpl.Name))
	}
	sb.WriteString(fmt.Sprintf("\n\nBlocks: %d, connections: %d\n", store.NodeCount(), store.EdgeCount()))
	for _, n := range store.NodesByKind(canvas.KindTool) {
		sb.WriteString(fmt.Sprintf("- %s (%s) id=%s\n", n.Label, n.Tool.ToolType, n.ID))
	}
	for _, n := range store.NodesByKind(canvas.KindIntegration) {
		sb.WriteString(fmt.Sprintf("- %s (integration) id=%s\n", n.Label, n.ID))
	}
	return sb.String(), nil
}

func handleTemplates() string {
	var sb strings.Builder
	sb.WriteString("Available templates:\n\n")
	for _, tpl := range catalog.All() {
		sb.WriteString(fmt.Sprintf("- **%s** (`%s`): %s\n", tpl.Name, tpl.ID, tpl.Description))
		for _, seed := range tpl.Tools {
			sb.WriteString(fmt.Sprintf("  - tool: %s (%s)\n", seed.Label, seed.ToolType))
		}
		for _, seed := range tpl.Integrations {
			sb.WriteString(fmt.Sprintf("  - integration: %s (%s)\n", seed.Label, seed.Platform))
		}
	}
	return sb.String()
}

func (s *Server) handleAddTool(toolType, label string) (string, error) {
	if toolType == "" {
		return "", fmt.Errorf("tool_type is required")
	}
	if label == "" {
		label = toolType
	}

	id := s.store.AddToolNode(canvas.ToolPayload{ToolType: toolType, Label: label})
	s.scheduleAutosave()
	return fmt.Sprintf("Added tool block %s (id=%s)", label, id), nil
}

func (s *Server) handleAddIntegration(integrationType, platform, label string) (string, error) {
	if integrationType == "" {
		return "", fmt.Errorf("integration_type is required")
	}
	if label == "" {
		label = integrationType
	}

	id := s.store.AddIntegrationNode(canvas.IntegrationPayload{
		IntegrationType:  integrationType,
		Platform:         platform,
		Label:            label,
		ConnectionStatus: canvas.StatusDisconnected,
	})
	s.scheduleAutosave()
	return fmt.Sprintf("Added integration block %s (id=%s)", label, id), nil
}

func (s *Server) handleUpdateTool(args map[string]any) (string, error) {
	nodeID := argString(args, "node_id")
	node := s.store.GetNode(nodeID)
	if node == nil || node.Tool == nil {
		return "", fmt.Errorf("no tool block with id %q", nodeID)
	}

	patch := canvas.ToolPatch{}
	if label := argString(args, "label"); label != "" {
		patch.Label = &label
	}
	if raw, ok := args["menu_items"]; ok {
		if err := reencode(raw, &patch.MenuItems); err != nil {
			return "", fmt.Errorf("invalid menu_items: %w", err)
		}
	}
	if raw, ok := args["sheet"]; ok {
		var binding canvas.SheetBinding
		if err := reencode(raw, &binding); err != nil {
			return "", fmt.Errorf("invalid sheet: %w", err)
		}
		patch.Sheet = &binding
	}
	if raw, ok := args["schema"]; ok {
		var schema jsonschema.Schema
		if err := reencode(raw, &schema); err != nil {
			return "", fmt.Errorf("invalid schema: %w", err)
		}
		patch.Schema = &schema
	}

	s.store.UpdateToolNode(nodeID, patch)
	s.scheduleAutosave()
	return fmt.Sprintf("Updated block %s", nodeID), nil
}

func (s *Server) handleUpdateIntegration(args map[string]any) (string, error) {
	nodeID := argString(args, "node_id")
	node := s.store.GetNode(nodeID)
	if node == nil || node.Integration == nil {
		return "", fmt.Errorf("no integration block with id %q", nodeID)
	}

	patch := canvas.IntegrationPatch{}
	if label := argString(args, "label"); label != "" {
		patch.Label = &label
	}
	if platform := argString(args, "platform"); platform != "" {
		patch.Platform = &platform
	}
	if v := argString(args, "connection_status"); v != "" {
		status := canvas.ConnectionStatus(v)
		switch status {
		case canvas.StatusDisconnected, canvas.StatusPending, canvas.StatusConnected:
		default:
			return "", fmt.Errorf("invalid connection_status %q", v)
		}
		patch.ConnectionStatus = &status
	}
	if raw, ok := args["config"]; ok {
		if err := reencode(raw, &patch.Config); err != nil {
			return "", fmt.Errorf("invalid config: %w", err)
		}
	}

	s.store.UpdateIntegrationNode(nodeID, patch)
	s.scheduleAutosave()
	return fmt.Sprintf("Updated integration %s", nodeID), nil
}

func (s *Server) handleRemoveNode(nodeID string) (string, error) {
	if canvas.IsCoreNodeID(nodeID) {
		return "Core blocks can't be removed.", nil
	}
	if !s.store.RemoveNode(nodeID) {
		return fmt.Sprintf("No block with id %s", nodeID), nil
	}
	s.scheduleAutosave()
	return fmt.Sprintf("Removed block %s and its connections", nodeID), nil
}

func (s *Server) handlePatchProfile(args map[string]any) (string, error) {
	before := s.store.Profile()
	patch := canvas.ProfilePatch{}

	set := func(key string, dst **string) {
		if v, ok := args[key].(string); ok {
			*dst = &v
		}
	}
	set("name", &patch.Name)
	set("business_name", &patch.BusinessName)
	set("business_type", &patch.BusinessType)
	set("business_description", &patch.BusinessDescription)
	set("custom_requirements", &patch.CustomRequirements)
	set("instructions", &patch.Instructions)
	set("first_message", &patch.FirstMessage)
	set("voice", &patch.Voice)
	set("language", &patch.Language)

	s.store.PatchProfile(patch)

	if patch.BusinessName != nil && *patch.BusinessName != before.BusinessName {
		catalog.Resubstitute(s.store, s.tpl, before.BusinessName, *patch.BusinessName)
	}
	s.scheduleAutosave()
	return "Profile updated", nil
}

func (s *Server) handleGenerateTools(ctx context.Context, nodeID, requirements string) (string, error) {
	node := s.store.GetNode(nodeID)
	if node == nil || node.Tool == nil {
		return "", fmt.Errorf("no tool block with id %q", nodeID)
	}

	profile := s.store.Profile()
	req := toolgen.Request{
		BusinessType:        profile.BusinessType,
		BusinessName:        profile.BusinessName,
		BusinessDescription: profile.BusinessDescription,
		Requirements:        requirements,
		ToolConfiguration:   node.Tool.ToolType,
	}

	var tools []canvas.FunctionTool
	if s.gen != nil {
		tools = s.gen.GenerateOrFallback(ctx, req)
	} else {
		tools = toolgen.GenericTools(profile.BusinessName)
	}

	s.store.UpdateToolNode(nodeID, canvas.ToolPatch{GeneratedTools: tools})
	s.scheduleAutosave()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Attached %d generated tool(s) to %s:\n", len(tools), node.Label))
	for _, t := range tools {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", t.Name, t.Description))
	}
	return sb.String(), nil
}

func (s *Server) handleImportMenu(nodeID, text string) (string, error) {
	node := s.store.GetNode(nodeID)
	if node == nil || node.Tool == nil {
		return "", fmt.Errorf("no tool block with id %q", nodeID)
	}

	items := extract.ParseMenuText(text)
	if len(items) == 0 {
		return "No menu items recognized in the text.", nil
	}

	s.store.UpdateToolNode(nodeID, canvas.ToolPatch{MenuItems: items})
	s.scheduleAutosave()
	return fmt.Sprintf("Imported %d menu item(s) onto %s", len(items), node.Label), nil
}

func (s *Server) handleCompile() (string, error) {
	return s.compiledJSON()
}

func (s *Server) handleSave(ctx context.Context) (string, error) {
	if s.coord == nil {
		return "", fmt.Errorf("no runtime API configured")
	}
	if err := s.coord.SaveNow(ctx, s.store.Snapshot(), true); err != nil {
		return "", err
	}
	if id := s.coord.AgentID(); id != "" {
		return fmt.Sprintf("Saved agent %s", id), nil
	}
	return "Saved agent", nil
}

func (s *Server) compiledJSON() (string, error) {
	st := s.store.Snapshot()
	if s.coord != nil {
		st.AgentID = s.coord.AgentID()
	}
	cfg := compile.Compile(st)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding configuration: %w", err)
	}
	return string(data), nil
}

func (s *Server) overview() string {
	profile := s.store.Profile()
	var sb strings.Builder
	sb.WriteString("## Canvas Overview\n\n")
	sb.WriteString(fmt.Sprintf("Agent: %s\n", profile.Name))
	sb.WriteString(fmt.Sprintf("Business: %s (%s)\n", profile.BusinessName, catalog.BusinessTypeLabel(profile.BusinessType)))
	sb.WriteString(fmt.Sprintf("Blocks: %d, connections: %d\n", s.store.NodeCount(), s.store.EdgeCount()))
	sb.WriteString(fmt.Sprintf("Tools: %d, integrations: %d\n",
		len(s.store.NodesByKind(canvas.KindTool)), len(s.store.NodesByKind(canvas.KindIntegration))))
	return sb.String()
}

func (s *Server) scheduleAutosave() {
	if s.coord != nil {
		s.coord.ScheduleSave(s.store.Snapshot())
	}
}

// reencode converts a decoded JSON value into a typed destination.
func reencode(raw any, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
