package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	t.Parallel()

	s := NewStore()

	assert.Equal(t, 3, s.NodeCount())
	assert.Equal(t, 2, s.EdgeCount())
	assert.Equal(t, KindBusiness, s.GetNode(BusinessNodeID).Kind)
	assert.Equal(t, KindPersonality, s.GetNode(PersonalityNodeID).Kind)
	assert.Equal(t, KindVoice, s.GetNode(VoiceNodeID).Kind)
}

func TestStore_AddToolNode(t *testing.T) {
	t.Parallel()

	t.Run("ConnectsToPersonality", func(t *testing.T) {
		t.Parallel()
		s := NewStore()

		id := s.AddToolNode(ToolPayload{ToolType: "menu", Label: "Menu"})

		require.NotEmpty(t, id)
		assert.Equal(t, 4, s.NodeCount())
		inbound := s.InboundEdges(id)
		require.Len(t, inbound, 1)
		assert.Equal(t, PersonalityNodeID, inbound[0].Source)
	})

	t.Run("PreservesInsertionOrder", func(t *testing.T) {
		t.Parallel()
		s := NewStore()

		first := s.AddToolNode(ToolPayload{ToolType: "menu", Label: "Menu"})
		second := s.AddToolNode(ToolPayload{ToolType: "faq", Label: "FAQ"})

		tools := s.NodesByKind(KindTool)
		require.Len(t, tools, 2)
		assert.Equal(t, first, tools[0].ID)
		assert.Equal(t, second, tools[1].ID)
	})
}

func TestStore_UpdateToolNode(t *testing.T) {
	t.Parallel()

	t.Run("ShallowMergePreservesUnspecifiedFields", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		id := s.AddToolNode(ToolPayload{
			ToolType:  "menu",
			Label:     "Menu",
			MenuItems: []MenuItem{{Name: "Pizza", Price: "$10"}},
		})

		// Linking a sheet must not erase previously saved menu items.
		s.UpdateToolNode(id, ToolPatch{Sheet: &SheetBinding{SheetID: "sheet-1"}})

		node := s.GetNode(id)
		require.NotNil(t, node.Tool.Sheet)
		assert.Equal(t, "sheet-1", node.Tool.Sheet.SheetID)
		require.Len(t, node.Tool.MenuItems, 1)
		assert.Equal(t, "Pizza", node.Tool.MenuItems[0].Name)
	})

	t.Run("UpdatesLabel", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		id := s.AddToolNode(ToolPayload{ToolType: "menu", Label: "Menu"})

		label := "Dinner Menu"
		s.UpdateToolNode(id, ToolPatch{Label: &label})

		assert.Equal(t, "Dinner Menu", s.GetNode(id).Label)
		assert.Equal(t, "Dinner Menu", s.GetNode(id).Tool.Label)
	})

	t.Run("UnknownIDIsNoOp", func(t *testing.T) {
		t.Parallel()
		s := NewStore()

		label := "x"
		s.UpdateToolNode("tool-missing", ToolPatch{Label: &label})

		assert.Equal(t, 3, s.NodeCount())
	})
}

func TestStore_UpdateIntegrationNode(t *testing.T) {
	t.Parallel()

	t.Run("ShallowMergePreservesUnspecifiedFields", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		id := s.AddIntegrationNode(IntegrationPayload{
			IntegrationType: "calendar",
			Platform:        "google-calendar",
			Label:           "Google Calendar",
			Config:          map[string]string{"calendar_id": "primary"},
		})

		// Connecting the integration must not erase its config.
		status := StatusConnected
		s.UpdateIntegrationNode(id, IntegrationPatch{ConnectionStatus: &status})

		node := s.GetNode(id)
		assert.Equal(t, StatusConnected, node.Integration.ConnectionStatus)
		assert.Equal(t, "google-calendar", node.Integration.Platform)
		assert.Equal(t, "primary", node.Integration.Config["calendar_id"])
	})

	t.Run("StatusLifecycle", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		id := s.AddIntegrationNode(IntegrationPayload{IntegrationType: "calendar", Label: "Calendar"})
		assert.Equal(t, StatusDisconnected, s.GetNode(id).Integration.ConnectionStatus)

		for _, status := range []ConnectionStatus{StatusPending, StatusConnected} {
			patch := status
			s.UpdateIntegrationNode(id, IntegrationPatch{ConnectionStatus: &patch})
			assert.Equal(t, status, s.GetNode(id).Integration.ConnectionStatus)
		}
	})

	t.Run("UpdatesLabel", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		id := s.AddIntegrationNode(IntegrationPayload{IntegrationType: "calendar", Label: "Calendar"})

		label := "Work Calendar"
		s.UpdateIntegrationNode(id, IntegrationPatch{Label: &label})

		assert.Equal(t, "Work Calendar", s.GetNode(id).Label)
		assert.Equal(t, "Work Calendar", s.GetNode(id).Integration.Label)
	})

	t.Run("ToolNodeIsNoOp", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		id := s.AddToolNode(ToolPayload{ToolType: "menu", Label: "Menu"})

		label := "x"
		s.UpdateIntegrationNode(id, IntegrationPatch{Label: &label})

		assert.Equal(t, "Menu", s.GetNode(id).Label)
	})
}

func TestStore_RemoveNode(t *testing.T) {
	t.Parallel()

	t.Run("CoreNodesAreProtected", func(t *testing.T) {
		t.Parallel()
		s := NewStore()

		for _, id := range []string{BusinessNodeID, PersonalityNodeID, VoiceNodeID} {
			assert.False(t, s.RemoveNode(id))
		}
		assert.Equal(t, 3, s.NodeCount())
		assert.Equal(t, 2, s.EdgeCount())
	})

	t.Run("CascadesEdges", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		id := s.AddToolNode(ToolPayload{ToolType: "menu", Label: "Menu"})
		other := s.AddToolNode(ToolPayload{ToolType: "faq", Label: "FAQ"})
		s.Connect(id, other)

		require.True(t, s.RemoveNode(id))

		assert.Nil(t, s.GetNode(id))
		assert.Empty(t, s.InboundEdges(id))
		// Only edges touching the removed node are gone.
		assert.NotNil(t, s.GetNode(other))
		require.Len(t, s.InboundEdges(other), 1)
		assert.Equal(t, PersonalityNodeID, s.InboundEdges(other)[0].Source)
	})

	t.Run("UnknownIDIsNoOp", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		assert.False(t, s.RemoveNode("tool-missing"))
	})
}

func TestStore_Connect(t *testing.T) {
	t.Parallel()

	t.Run("MissingEndpointIsNoOp", func(t *testing.T) {
		t.Parallel()
		s := NewStore()

		s.Connect(PersonalityNodeID, "ghost")
		s.Connect("ghost", PersonalityNodeID)

		assert.Equal(t, 2, s.EdgeCount())
	})

	t.Run("DuplicateIsNoOp", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		id := s.AddToolNode(ToolPayload{ToolType: "menu", Label: "Menu"})

		s.Connect(PersonalityNodeID, id)

		assert.Len(t, s.InboundEdges(id), 1)
	})
}

func TestStore_PatchProfile(t *testing.T) {
	t.Parallel()

	s := NewStore()
	name := "Mario's Assistant"
	business := "Mario's"
	s.PatchProfile(ProfilePatch{Name: &name, BusinessName: &business})

	voice := "alloy"
	s.PatchProfile(ProfilePatch{Voice: &voice})

	profile := s.Profile()
	assert.Equal(t, "Mario's Assistant", profile.Name)
	assert.Equal(t, "Mario's", profile.BusinessName)
	assert.Equal(t, "alloy", profile.Voice)
}

func TestStore_Snapshot(t *testing.T) {
	t.Parallel()

	t.Run("IsolatedFromLaterMutations", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		id := s.AddToolNode(ToolPayload{
			ToolType:  "menu",
			Label:     "Menu",
			MenuItems: []MenuItem{{Name: "Pizza"}},
		})

		st := s.Snapshot()
		s.UpdateToolNode(id, ToolPatch{MenuItems: []MenuItem{{Name: "Pasta"}}})

		var snapNode *Node
		for _, n := range st.Nodes {
			if n.ID == id {
				snapNode = n
			}
		}
		require.NotNil(t, snapNode)
		require.Len(t, snapNode.Tool.MenuItems, 1)
		assert.Equal(t, "Pizza", snapNode.Tool.MenuItems[0].Name)
	})

	t.Run("PreservesOrder", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		first := s.AddToolNode(ToolPayload{ToolType: "a", Label: "A"})
		second := s.AddToolNode(ToolPayload{ToolType: "b", Label: "B"})

		st := s.Snapshot()

		require.Len(t, st.Nodes, 5)
		assert.Equal(t, BusinessNodeID, st.Nodes[0].ID)
		assert.Equal(t, first, st.Nodes[3].ID)
		assert.Equal(t, second, st.Nodes[4].ID)
	})
}

func TestStore_Disconnect(t *testing.T) {
	t.Parallel()

	s := NewStore()
	id := s.AddToolNode(ToolPayload{ToolType: "menu", Label: "Menu"})

	s.Disconnect(PersonalityNodeID, id)

	assert.Empty(t, s.InboundEdges(id))
	// Disconnecting again is a no-op.
	s.Disconnect(PersonalityNodeID, id)
}
