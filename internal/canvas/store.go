// Package canvas provides the in-memory configuration graph store.
//
// The store owns the mutable node/edge set plus the canonical Profile
// and is mutated exclusively through its own operations. Structurally
// invalid calls (removing a core node, connecting a missing node) are
// no-ops rather than errors so the store stays total over any call
// sequence a front end might produce.
package canvas

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the mutable configuration graph for one agent session.
//
// Node iteration order is insertion order; the compiler relies on it
// as the stable tie-break for the emitted tool list. All operations
// are synchronous and perform no I/O.
type Store struct {
	mu      sync.RWMutex
	profile Profile
	nodes   map[string]*Node
	order   []string
	edges   []*Edge
}

// NewStore creates a store holding only the three core nodes with
// empty payloads, chained business -> personality -> voice.
func NewStore() *Store {
	s := &Store{nodes: make(map[string]*Node)}
	s.putNode(&Node{ID: BusinessNodeID, Kind: KindBusiness})
	s.putNode(&Node{ID: PersonalityNodeID, Kind: KindPersonality})
	s.putNode(&Node{ID: VoiceNodeID, Kind: KindVoice})
	s.edges = append(s.edges,
		&Edge{ID: uuid.NewString(), Source: BusinessNodeID, Target: PersonalityNodeID},
		&Edge{ID: uuid.NewString(), Source: PersonalityNodeID, Target: VoiceNodeID},
	)
	return s
}

// putNode inserts without locking. Caller holds the write lock or is
// the constructor.
func (s *Store) putNode(n *Node) {
	if _, ok := s.nodes[n.ID]; !ok {
		s.order = append(s.order, n.ID)
	}
	s.nodes[n.ID] = n
}

// AddToolNode adds a Tool node connected to the personality node and
// returns its id.
func (s *Store) AddToolNode(payload ToolPayload) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := GenerateNodeID(KindTool)
	s.putNode(&Node{ID: id, Kind: KindTool, Label: payload.Label, Tool: &payload})
	s.connectLocked(PersonalityNodeID, id)
	return id
}

// AddIntegrationNode adds an Integration node connected to the
// personality node and returns its id.
func (s *Store) AddIntegrationNode(payload IntegrationPayload) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payload.ConnectionStatus == "" {
		payload.ConnectionStatus = StatusDisconnected
	}
	id := GenerateNodeID(KindIntegration)
	s.putNode(&Node{ID: id, Kind: KindIntegration, Label: payload.Label, Integration: &payload})
	s.connectLocked(PersonalityNodeID, id)
	return id
}

// RestoreNode inserts a node with a caller-supplied id, used by the
// loader when replaying persisted state. Existing nodes with the same
// id are replaced in place, keeping their position.
func (s *Store) RestoreNode(n *Node) {
	if n == nil || n.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putNode(n.Clone())
}

// RestoreEdge appends a persisted edge verbatim. Edges referencing
// unknown nodes are dropped.
func (s *Store) RestoreEdge(e *Edge) {
	if e == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[e.Source]; !ok {
		return
	}
	if _, ok := s.nodes[e.Target]; !ok {
		return
	}
	for _, existing := range s.edges {
		if existing.Source == e.Source && existing.Target == e.Target {
			return
		}
	}
	copied := *e
	s.edges = append(s.edges, &copied)
}

// UpdateToolNode shallow-merges the patch into the node's tool
// payload. Unknown ids and non-tool nodes are no-ops.
func (s *Store) UpdateToolNode(id string, patch ToolPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok || n.Tool == nil {
		return
	}
	n.Tool.merge(patch)
	if patch.Label != nil {
		n.Label = *patch.Label
	}
}

// UpdateIntegrationNode shallow-merges the patch into the node's
// integration payload. Unknown ids and non-integration nodes are
// no-ops.
func (s *Store) UpdateIntegrationNode(id string, patch IntegrationPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok || n.Integration == nil {
		return
	}
	n.Integration.merge(patch)
	if patch.Label != nil {
		n.Label = *patch.Label
	}
}

// RemoveNode removes a node and cascade-deletes every edge referencing
// it. Core nodes and unknown ids are no-ops. Returns true if a node
// was removed.
func (s *Store) RemoveNode(id string) bool {
	if IsCoreNodeID(id) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	for i, nid := range s.order {
		if nid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	kept := s.edges[:0]
	for _, e := range s.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	s.edges = kept
	return true
}

// Connect adds a directed edge between two existing nodes. Missing
// endpoints and duplicate edges are no-ops.
func (s *Store) Connect(sourceID, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectLocked(sourceID, targetID)
}

func (s *Store) connectLocked(sourceID, targetID string) {
	if _, ok := s.nodes[sourceID]; !ok {
		return
	}
	if _, ok := s.nodes[targetID]; !ok {
		return
	}
	for _, e := range s.edges {
		if e.Source == sourceID && e.Target == targetID {
			return
		}
	}
	s.edges = append(s.edges, &Edge{ID: uuid.NewString(), Source: sourceID, Target: targetID})
}

// Disconnect removes the edge between two nodes, if present.
func (s *Store) Disconnect(sourceID, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.edges {
		if e.Source == sourceID && e.Target == targetID {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return
		}
	}
}

// SetNodeLabel replaces a node's display label. Unknown ids are
// no-ops. Used for the profile-to-canvas label projection; labels are
// never read back into the profile.
func (s *Store) SetNodeLabel(id, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.nodes[id]; ok {
		n.Label = label
	}
}

// PatchProfile merges the patch into the canonical profile.
func (s *Store) PatchProfile(patch ProfilePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.apply(patch)
}

// SetProfile replaces the whole profile, used by the loader.
func (s *Store) SetProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

// Profile returns a copy of the canonical profile.
func (s *Store) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// GetNode returns a copy of the node with the given id, or nil.
func (s *Store) GetNode(id string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id].Clone()
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// NodesByKind returns copies of all nodes of the given kind, in
// insertion order.
func (s *Store) NodesByKind(kind NodeKind) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Node
	for _, id := range s.order {
		if n := s.nodes[id]; n.Kind == kind {
			out = append(out, n.Clone())
		}
	}
	return out
}

// InboundEdges returns copies of every edge targeting the node.
func (s *Store) InboundEdges(id string) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Edge
	for _, e := range s.edges {
		if e.Target == id {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out
}

// Snapshot returns a deep copy of the full graph state in insertion
// order, safe to hand to the compiler or the persistence coordinator.
func (s *Store) Snapshot() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &State{Profile: s.profile}
	st.Nodes = make([]*Node, 0, len(s.order))
	for _, id := range s.order {
		st.Nodes = append(st.Nodes, s.nodes[id].Clone())
	}
	st.Edges = make([]*Edge, 0, len(s.edges))
	for _, e := range s.edges {
		copied := *e
		st.Edges = append(st.Edges, &copied)
	}
	return st
}
