package compile

import (
	"github.com/sungrove/voiceboard-go/internal/canvas"
	"github.com/sungrove/voiceboard-go/internal/catalog"
)

// Hydrate rebuilds a canvas store from a persisted agent record, the
// inverse of Compile for the subset of information the server returns.
//
// The profile comes straight from the scalar fields. Persisted nodes
// are replayed verbatim except for the core nodes' display labels,
// which are re-derived from the profile; every other payload key is
// preserved, so a reloaded menu node keeps its items. Records created
// outside this pipeline carry no node array and fall back to template
// instantiation by business type.
func Hydrate(record *AgentConfig) (*canvas.Store, error) {
	if record == nil {
		return canvas.NewStore(), nil
	}

	profile := record.Profile()

	if len(record.Nodes) == 0 {
		return hydrateFromTemplate(record, profile)
	}

	store := canvas.NewStore()
	store.SetProfile(profile)

	for _, node := range record.Nodes {
		restored := node.Clone()
		if canvas.IsCoreNodeID(restored.ID) {
			restored.Label = coreLabel(restored.Kind, profile)
		}
		store.RestoreNode(restored)
	}
	for _, e := range record.Edges {
		store.RestoreEdge(e)
	}
	return store, nil
}

func hydrateFromTemplate(record *AgentConfig, profile canvas.Profile) (*canvas.Store, error) {
	templateID := ""
	if tpl, ok := catalog.LookupByBusinessType(record.BusinessType); ok {
		templateID = tpl.ID
	}

	store, err := catalog.Instantiate(templateID, record.BusinessName)
	if err != nil {
		return nil, err
	}
	// The record's scalar fields win over template seed text.
	store.SetProfile(profile)
	return store, nil
}
