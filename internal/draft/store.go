// Package draft provides local persistence for compiled agent
// configurations.
//
// It defines the Store interface plus Badger-backed and in-memory
// implementations. Drafts let the CLI resume work offline and keep the
// last compiled document per agent between sessions; the authoritative
// copy lives in the agent runtime once a first save succeeds.
package draft

import (
	"context"
	"errors"
	"time"

	"github.com/sungrove/voiceboard-go/internal/compile"
)

// ErrNotFound is returned when no draft exists under the given key.
var ErrNotFound = errors.New("draft not found")

// Draft is one locally stored compiled configuration.
type Draft struct {
	// Key is the local identifier: the server agent id once assigned,
	// otherwise a caller-chosen slug.
	Key string `json:"key"`

	// SavedAt is when the draft was last written.
	SavedAt time.Time `json:"saved_at"`

	// Config is the compiled configuration document.
	Config *compile.AgentConfig `json:"config"`
}

// Store defines the interface for draft storage implementations.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Initialize opens or creates the store at the given path.
	// If readOnly is true, the store is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the store.
	Close() error

	// Put writes a draft under the given key, replacing any previous
	// draft with the same key.
	Put(ctx context.Context, key string, cfg *compile.AgentConfig) error

	// Get returns the draft stored under the key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Draft, error)

	// List returns all drafts, most recently saved first.
	List(ctx context.Context) ([]*Draft, error)

	// Delete removes the draft under the key. Missing keys are no-ops.
	Delete(ctx context.Context, key string) error
}
