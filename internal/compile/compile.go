package compile

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/sungrove/voiceboard-go/internal/canvas"
	"github.com/sungrove/voiceboard-go/internal/catalog"
)

// Compile flattens a canvas snapshot into the normalized agent
// configuration document.
//
// It is deterministic, total over structurally valid input, and
// idempotent: an unchanged snapshot compiles to a deep-equal document,
// byte-for-byte after serialization. Nodes are processed in snapshot
// order, which is the stable tie-break for the emitted lists.
func Compile(st *canvas.State) *AgentConfig {
	cfg := &AgentConfig{
		ID:                  st.AgentID,
		Name:                st.Profile.Name,
		BusinessName:        st.Profile.BusinessName,
		BusinessType:        st.Profile.BusinessType,
		BusinessDescription: st.Profile.BusinessDescription,
		CustomRequirements:  st.Profile.CustomRequirements,
		Instructions:        st.Profile.Instructions,
		FirstMessage:        st.Profile.FirstMessage,
		Voice:               st.Profile.Voice,
		Language:            st.Profile.Language,
		Tools:               ToolList{},
		Integrations:        []IntegrationEntry{},
	}

	cfg.Nodes = make([]*canvas.Node, 0, len(st.Nodes))
	for _, node := range st.Nodes {
		out := node.Clone()
		switch node.Kind {
		case canvas.KindBusiness, canvas.KindPersonality, canvas.KindVoice:
			// Core nodes produce no tool entries; only their display
			// label is refreshed from the current profile.
			out.Label = coreLabel(node.Kind, st.Profile)
		case canvas.KindTool:
			cfg.Tools = append(cfg.Tools, classifyTool(node))
		case canvas.KindIntegration:
			cfg.Tools = append(cfg.Tools, classifyTool(node))
			cfg.Integrations = append(cfg.Integrations, integrationEntry(node))
		}
		cfg.Nodes = append(cfg.Nodes, out)
	}

	cfg.Edges = make([]*canvas.Edge, 0, len(st.Edges))
	for _, e := range st.Edges {
		copied := *e
		cfg.Edges = append(cfg.Edges, &copied)
	}
	return cfg
}

func coreLabel(kind canvas.NodeKind, profile canvas.Profile) string {
	switch kind {
	case canvas.KindBusiness:
		if profile.BusinessName != "" {
			return profile.BusinessName
		}
		return catalog.BusinessTypeLabel(profile.BusinessType)
	case canvas.KindPersonality:
		return profile.Name
	case canvas.KindVoice:
		return profile.Voice
	}
	return ""
}

// classifyTool maps a node to its most complete tool representation.
// A node accumulates configuration incrementally (a menu tool may gain
// generated sub-tools, an order tool becomes sheet-backed after the
// linking flow), so classification looks at the payload's contents,
// not just the nominal tool type.
func classifyTool(node *canvas.Node) ToolEntry {
	p := node.Tool
	if p == nil {
		// Integration nodes and payload-less tool nodes fall through
		// to a bare reference.
		return ReferenceTool{ID: node.ID, Name: node.Label}
	}

	name := p.Label
	if name == "" {
		name = node.Label
	}

	switch {
	case canvas.OrderToolTypes[p.ToolType] && p.Sheet != nil:
		return GeneratedToolBundle{
			ID:             node.ID,
			Name:           name,
			GeneratedTools: []canvas.FunctionTool{orderCaptureTool()},
			MenuItems:      p.MenuItems,
			Sheet:          p.Sheet,
		}
	case canvas.FAQToolTypes[p.ToolType] && p.Sheet != nil:
		return SheetBackedTool{
			ID:         node.ID,
			Name:       name,
			Sheet:      *p.Sheet,
			JSONSchema: faqSchema(),
		}
	case p.ToolType == canvas.ToolTypeMenu && len(p.MenuItems) > 0:
		return MenuTool{
			ID:             node.ID,
			Name:           name,
			MenuItems:      p.MenuItems,
			GeneratedTools: p.GeneratedTools,
		}
	case len(p.GeneratedTools) > 0:
		return GeneratedToolBundle{
			ID:             node.ID,
			Name:           name,
			GeneratedTools: p.GeneratedTools,
			MenuItems:      p.MenuItems,
			Sheet:          p.Sheet,
		}
	case p.Schema != nil:
		return FunctionToolEntry{ID: node.ID, Name: name, JSONSchema: p.Schema}
	default:
		id := p.ToolType
		if id == "" {
			id = node.ID
		}
		return ReferenceTool{ID: id, Name: name}
	}
}

func integrationEntry(node *canvas.Node) IntegrationEntry {
	p := node.Integration
	if p == nil {
		return IntegrationEntry{ID: node.ID, ConnectionStatus: canvas.StatusDisconnected}
	}
	return IntegrationEntry{
		ID:               node.ID,
		Type:             p.IntegrationType,
		Platform:         p.Platform,
		ConnectionStatus: p.ConnectionStatus,
		Config:           p.Config,
	}
}

// orderCaptureTool is the fixed function tool synthesized for
// sheet-backed order tools.
func orderCaptureTool() canvas.FunctionTool {
	return canvas.FunctionTool{
		Name:        "capture_order",
		Description: "Record a customer order with contact and delivery details.",
		JSONSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"customer_name":    {Type: "string", Description: "Name of the customer"},
				"customer_phone":   {Type: "string", Description: "Contact phone number"},
				"items":            {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "Ordered items"},
				"total":            {Type: "string", Description: "Order total"},
				"delivery_address": {Type: "string", Description: "Delivery address, if any"},
				"notes":            {Type: "string", Description: "Special requests"},
			},
			Required: []string{"customer_name", "items"},
		},
	}
}

// faqSchema is the fixed parameter schema for sheet-backed question
// answering.
func faqSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"question": {Type: "string", Description: "The caller's question"},
			"category": {Type: "string", Description: "Optional question category"},
		},
		Required: []string{"question"},
	}
}
