// Package canvas provides the configuration graph for Voiceboard.
//
// It defines the node and edge types that represent the building blocks
// of a voice agent (business profile, personality, voice, capability
// tools, third-party integrations) together with the canonical scalar
// agent profile those blocks project.
package canvas

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// NodeKind represents the type of a canvas node.
type NodeKind string

const (
	KindBusiness    NodeKind = "business"
	KindPersonality NodeKind = "personality"
	KindVoice       NodeKind = "voice"
	KindTool        NodeKind = "tool"
	KindIntegration NodeKind = "integration"
)

// Core node ids. Exactly one node of each core kind exists per canvas
// and none of them can be removed.
const (
	BusinessNodeID    = "1"
	PersonalityNodeID = "2"
	VoiceNodeID       = "3"
)

// Tool type categories the compiler treats specially.
const (
	ToolTypeMenu = "menu"
)

// OrderToolTypes are the tool types that become an order-capture
// function bundle once a spreadsheet is linked.
var OrderToolTypes = map[string]bool{
	"order":      true,
	"take-order": true,
}

// FAQToolTypes are the tool types that become sheet-backed answer
// lookups once a spreadsheet is linked.
var FAQToolTypes = map[string]bool{
	"faq":              true,
	"answer-questions": true,
}

// ConnectionStatus is the lifecycle state of an integration.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusPending      ConnectionStatus = "pending"
	StatusConnected    ConnectionStatus = "connected"
)

// Profile holds the canonical scalar agent configuration. It is the
// single source of truth for these values; core node payloads carry
// only display labels derived from it.
type Profile struct {
	Name                string `json:"name"`
	BusinessName        string `json:"business_name"`
	BusinessType        string `json:"business_type"`
	BusinessDescription string `json:"business_description"`
	CustomRequirements  string `json:"custom_requirements"`
	Instructions        string `json:"instructions"`
	FirstMessage        string `json:"first_message"`
	Voice               string `json:"voice"`
	Language            string `json:"language"`
}

// ProfilePatch is a partial Profile update. Nil fields are left
// untouched by Store.PatchProfile.
type ProfilePatch struct {
	Name                *string
	BusinessName        *string
	BusinessType        *string
	BusinessDescription *string
	CustomRequirements  *string
	Instructions        *string
	FirstMessage        *string
	Voice               *string
	Language            *string
}

// MenuItem is one entry of a menu-backed tool.
type MenuItem struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
	Category    string `json:"category,omitempty"`
}

// SheetBinding links a tool to a spreadsheet produced by the linking
// flow. It is stored verbatim on the node payload.
type SheetBinding struct {
	SheetID        string            `json:"google_sheet_id"`
	SheetURL       string            `json:"google_sheet_url,omitempty"`
	SheetName      string            `json:"google_sheet_name,omitempty"`
	ColumnMappings map[string]string `json:"column_mappings,omitempty"`
}

// FunctionTool is a parameterized tool, either hand-authored or
// produced by the tool-generation service.
type FunctionTool struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	JSONSchema  *jsonschema.Schema `json:"json_schema"`
}

// ToolPayload is the node-local state of a Tool node. A single node
// accumulates configuration incrementally, so any combination of menu
// items, a sheet binding, generated tools and a hand-authored schema
// may be present at once; the compiler picks the most complete
// representation.
type ToolPayload struct {
	ToolType       string             `json:"tool_type"`
	Label          string             `json:"label"`
	MenuItems      []MenuItem         `json:"menu_items,omitempty"`
	Sheet          *SheetBinding      `json:"sheet,omitempty"`
	GeneratedTools []FunctionTool     `json:"generated_tools,omitempty"`
	Schema         *jsonschema.Schema `json:"json_schema,omitempty"`
}

// ToolPatch is a partial ToolPayload update. Nil fields are left
// untouched; slices replace only when non-nil.
type ToolPatch struct {
	ToolType       *string
	Label          *string
	MenuItems      []MenuItem
	Sheet          *SheetBinding
	GeneratedTools []FunctionTool
	Schema         *jsonschema.Schema
}

// IntegrationPayload is the node-local state of an Integration node.
type IntegrationPayload struct {
	IntegrationType  string            `json:"integration_type"`
	Label            string            `json:"label"`
	Platform         string            `json:"platform,omitempty"`
	ConnectionStatus ConnectionStatus  `json:"connection_status"`
	Config           map[string]string `json:"config,omitempty"`
}

// IntegrationPatch is a partial IntegrationPayload update.
type IntegrationPatch struct {
	IntegrationType  *string
	Label            *string
	Platform         *string
	ConnectionStatus *ConnectionStatus
	Config           map[string]string
}

// Node is one visual unit of agent configuration.
//
// Core nodes (business, personality, voice) carry only the display
// Label, a write-only projection of the Profile. Tool and Integration
// nodes additionally carry their kind-specific payload.
type Node struct {
	ID          string              `json:"id"`
	Kind        NodeKind            `json:"kind"`
	Label       string              `json:"label"`
	Tool        *ToolPayload        `json:"tool,omitempty"`
	Integration *IntegrationPayload `json:"integration,omitempty"`
}

// Edge is a directed connectivity record between two nodes. It carries
// no semantic weight beyond canvas visualization.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// State is an isolated snapshot of a canvas, safe to hand to the
// compiler while the store keeps mutating.
type State struct {
	AgentID string  `json:"agent_id,omitempty"`
	Profile Profile `json:"profile"`
	Nodes   []*Node `json:"nodes"`
	Edges   []*Edge `json:"edges"`
}

var lastNodeStamp atomic.Int64

// GenerateNodeID creates a node ID for a non-core node.
// Format: {kind}-{timestamp}. The stamp is the nanosecond clock, bumped
// past the previous one when two calls land on the same tick, so ids
// stay unique within a process while preserving creation order.
func GenerateNodeID(kind NodeKind) string {
	now := time.Now().UnixNano()
	for {
		last := lastNodeStamp.Load()
		if now <= last {
			now = last + 1
		}
		if lastNodeStamp.CompareAndSwap(last, now) {
			return fmt.Sprintf("%s-%d", kind, now)
		}
	}
}

// IsCoreNodeID reports whether id belongs to one of the three
// non-deletable core nodes.
func IsCoreNodeID(id string) bool {
	return id == BusinessNodeID || id == PersonalityNodeID || id == VoiceNodeID
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Tool = n.Tool.clone()
	out.Integration = n.Integration.clone()
	return &out
}

func (p *ToolPayload) clone() *ToolPayload {
	if p == nil {
		return nil
	}
	out := *p
	if p.MenuItems != nil {
		out.MenuItems = make([]MenuItem, len(p.MenuItems))
		copy(out.MenuItems, p.MenuItems)
	}
	if p.Sheet != nil {
		sheet := *p.Sheet
		if p.Sheet.ColumnMappings != nil {
			sheet.ColumnMappings = make(map[string]string, len(p.Sheet.ColumnMappings))
			for k, v := range p.Sheet.ColumnMappings {
				sheet.ColumnMappings[k] = v
			}
		}
		out.Sheet = &sheet
	}
	if p.GeneratedTools != nil {
		out.GeneratedTools = make([]FunctionTool, len(p.GeneratedTools))
		copy(out.GeneratedTools, p.GeneratedTools)
	}
	return &out
}

func (p *IntegrationPayload) clone() *IntegrationPayload {
	if p == nil {
		return nil
	}
	out := *p
	if p.Config != nil {
		out.Config = make(map[string]string, len(p.Config))
		for k, v := range p.Config {
			out.Config[k] = v
		}
	}
	return &out
}

// merge applies a shallow merge of the patch onto the payload.
// Unspecified keys keep their previous value, so updating e.g. the
// sheet binding never erases previously saved menu items.
func (p *ToolPayload) merge(patch ToolPatch) {
	if patch.ToolType != nil {
		p.ToolType = *patch.ToolType
	}
	if patch.Label != nil {
		p.Label = *patch.Label
	}
	if patch.MenuItems != nil {
		p.MenuItems = patch.MenuItems
	}
	if patch.Sheet != nil {
		p.Sheet = patch.Sheet
	}
	if patch.GeneratedTools != nil {
		p.GeneratedTools = patch.GeneratedTools
	}
	if patch.Schema != nil {
		p.Schema = patch.Schema
	}
}

func (p *IntegrationPayload) merge(patch IntegrationPatch) {
	if patch.IntegrationType != nil {
		p.IntegrationType = *patch.IntegrationType
	}
	if patch.Label != nil {
		p.Label = *patch.Label
	}
	if patch.Platform != nil {
		p.Platform = *patch.Platform
	}
	if patch.ConnectionStatus != nil {
		p.ConnectionStatus = *patch.ConnectionStatus
	}
	if patch.Config != nil {
		p.Config = patch.Config
	}
}

// apply merges the patch into the profile, touching only set fields.
func (p *Profile) apply(patch ProfilePatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.BusinessName != nil {
		p.BusinessName = *patch.BusinessName
	}
	if patch.BusinessType != nil {
		p.BusinessType = *patch.BusinessType
	}
	if patch.BusinessDescription != nil {
		p.BusinessDescription = *patch.BusinessDescription
	}
	if patch.CustomRequirements != nil {
		p.CustomRequirements = *patch.CustomRequirements
	}
	if patch.Instructions != nil {
		p.Instructions = *patch.Instructions
	}
	if patch.FirstMessage != nil {
		p.FirstMessage = *patch.FirstMessage
	}
	if patch.Voice != nil {
		p.Voice = *patch.Voice
	}
	if patch.Language != nil {
		p.Language = *patch.Language
	}
}
