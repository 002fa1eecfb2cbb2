// Package compile turns canvas graph state into the normalized agent
// configuration document consumed by the agent runtime, and back.
//
// The tool list is a closed sum type with an explicit "type"
// discriminant on the wire: reference, menu, sheet, generated, or
// function entries.
package compile

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/sungrove/voiceboard-go/internal/canvas"
)

// Tool entry discriminants.
const (
	EntryReference = "reference"
	EntryMenu      = "menu"
	EntrySheet     = "sheet"
	EntryGenerated = "generated"
	EntryFunction  = "function"
)

// ToolEntry is one compiled tool in the configuration document.
type ToolEntry interface {
	// EntryType returns the wire discriminant of the entry.
	EntryType() string
}

// ReferenceTool is a bare capability reference with no extra data.
type ReferenceTool struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MenuTool carries an inline item list, optionally merged with
// generated function tools living on the same node.
type MenuTool struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	MenuItems      []canvas.MenuItem     `json:"menu_items"`
	GeneratedTools []canvas.FunctionTool `json:"generated_tools,omitempty"`
}

// SheetBackedTool answers questions out of a linked spreadsheet.
type SheetBackedTool struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Sheet      canvas.SheetBinding `json:"sheet"`
	JSONSchema *jsonschema.Schema `json:"json_schema"`
}

// GeneratedToolBundle carries one or more function tools attached to a
// node, plus any menu items or sheet binding already present there so
// a later re-save does not lose them.
type GeneratedToolBundle struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	GeneratedTools []canvas.FunctionTool `json:"generated_tools"`
	MenuItems      []canvas.MenuItem     `json:"menu_items,omitempty"`
	Sheet          *canvas.SheetBinding  `json:"sheet,omitempty"`
}

// FunctionToolEntry is a directly-authored parameterized tool.
type FunctionToolEntry struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	JSONSchema *jsonschema.Schema `json:"json_schema"`
}

func (ReferenceTool) EntryType() string       { return EntryReference }
func (MenuTool) EntryType() string            { return EntryMenu }
func (SheetBackedTool) EntryType() string     { return EntrySheet }
func (GeneratedToolBundle) EntryType() string { return EntryGenerated }
func (FunctionToolEntry) EntryType() string   { return EntryFunction }

func marshalEntry(entry ToolEntry, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"] = json.RawMessage(fmt.Sprintf("%q", entry.EntryType()))
	return json.Marshal(fields)
}

// MarshalJSON implements json.Marshaler, adding the discriminant.
func (t ReferenceTool) MarshalJSON() ([]byte, error) {
	type alias ReferenceTool
	return marshalEntry(t, alias(t))
}

// MarshalJSON implements json.Marshaler, adding the discriminant.
func (t MenuTool) MarshalJSON() ([]byte, error) {
	type alias MenuTool
	return marshalEntry(t, alias(t))
}

// MarshalJSON implements json.Marshaler, adding the discriminant.
func (t SheetBackedTool) MarshalJSON() ([]byte, error) {
	type alias SheetBackedTool
	return marshalEntry(t, alias(t))
}

// MarshalJSON implements json.Marshaler, adding the discriminant.
func (t GeneratedToolBundle) MarshalJSON() ([]byte, error) {
	type alias GeneratedToolBundle
	return marshalEntry(t, alias(t))
}

// MarshalJSON implements json.Marshaler, adding the discriminant.
func (t FunctionToolEntry) MarshalJSON() ([]byte, error) {
	type alias FunctionToolEntry
	return marshalEntry(t, alias(t))
}

// ToolList is the polymorphic compiled tool list.
type ToolList []ToolEntry

// UnmarshalJSON implements json.Unmarshaler, dispatching each element
// on its "type" discriminant.
func (l *ToolList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	out := make(ToolList, 0, len(raws))
	for _, raw := range raws {
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return err
		}

		var entry ToolEntry
		switch probe.Type {
		case EntryReference:
			var t ReferenceTool
			if err := json.Unmarshal(raw, &t); err != nil {
				return err
			}
			entry = t
		case EntryMenu:
			var t MenuTool
			if err := json.Unmarshal(raw, &t); err != nil {
				return err
			}
			entry = t
		case EntrySheet:
			var t SheetBackedTool
			if err := json.Unmarshal(raw, &t); err != nil {
				return err
			}
			entry = t
		case EntryGenerated:
			var t GeneratedToolBundle
			if err := json.Unmarshal(raw, &t); err != nil {
				return err
			}
			entry = t
		case EntryFunction:
			var t FunctionToolEntry
			if err := json.Unmarshal(raw, &t); err != nil {
				return err
			}
			entry = t
		default:
			return fmt.Errorf("unknown tool entry type %q", probe.Type)
		}
		out = append(out, entry)
	}

	*l = out
	return nil
}

// IntegrationEntry is one compiled integration. Integrations and tools
// are disjoint output collections even though both originate from the
// same node set.
type IntegrationEntry struct {
	ID               string                  `json:"id"`
	Type             string                  `json:"type"`
	Platform         string                  `json:"platform,omitempty"`
	ConnectionStatus canvas.ConnectionStatus `json:"connection_status"`
	Config           map[string]string       `json:"config,omitempty"`
}

// AgentConfig is the persisted agent record. The tool and integration
// lists are what the runtime executes against; the node and edge
// arrays are opaque to it and exist solely so the loader can rebuild
// the canvas on re-entry.
type AgentConfig struct {
	ID                  string             `json:"id,omitempty"`
	Name                string             `json:"name"`
	BusinessName        string             `json:"business_name"`
	BusinessType        string             `json:"business_type,omitempty"`
	BusinessDescription string             `json:"business_description,omitempty"`
	CustomRequirements  string             `json:"custom_requirements,omitempty"`
	Instructions        string             `json:"instructions,omitempty"`
	FirstMessage        string             `json:"first_message,omitempty"`
	Voice               string             `json:"voice,omitempty"`
	Language            string             `json:"language,omitempty"`
	Tools               ToolList           `json:"tools"`
	Integrations        []IntegrationEntry `json:"integrations"`
	Nodes               []*canvas.Node     `json:"nodes"`
	Edges               []*canvas.Edge     `json:"edges"`
}

// Profile extracts the canonical scalar fields from the record.
func (c *AgentConfig) Profile() canvas.Profile {
	return canvas.Profile{
		Name:                c.Name,
		BusinessName:        c.BusinessName,
		BusinessType:        c.BusinessType,
		BusinessDescription: c.BusinessDescription,
		CustomRequirements:  c.CustomRequirements,
		Instructions:        c.Instructions,
		FirstMessage:        c.FirstMessage,
		Voice:               c.Voice,
		Language:            c.Language,
	}
}
