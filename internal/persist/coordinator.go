package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sungrove/voiceboard-go/internal/canvas"
	"github.com/sungrove/voiceboard-go/internal/compile"
	"github.com/sungrove/voiceboard-go/internal/logx"
)

// DefaultDebounce is the autosave debounce window.
const DefaultDebounce = 2 * time.Second

// ErrProfileIncomplete is returned by SaveNow when the profile is
// missing the name or business name required to persist a draft.
var ErrProfileIncomplete = errors.New("profile needs a name and business name before saving")

// saveState is the coordinator's lifecycle state.
type saveState int

const (
	stateIdle saveState = iota
	stateScheduled
	stateSaving
)

// Coordinator debounces canvas mutations, compiles the latest
// snapshot, and issues create-or-update calls to the runtime API.
//
// Saves for one agent are totally ordered: a save firing while another
// is in flight is coalesced into a single-slot pending buffer and only
// the most recent compilation is sent once the in-flight call
// resolves. A failed autosave is not retried; the next qualifying
// mutation reschedules.
type Coordinator struct {
	api      RuntimeAPI
	debounce time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	state   saveState
	timer   *time.Timer
	pending *compile.AgentConfig
	agentID string
	closed  bool
}

// NewCoordinator creates a coordinator with the given debounce window.
// A non-positive debounce falls back to DefaultDebounce.
func NewCoordinator(api RuntimeAPI, debounce time.Duration) *Coordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	c := &Coordinator{api: api, debounce: debounce}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// AgentID returns the server-assigned identifier, empty before the
// first successful create.
func (c *Coordinator) AgentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agentID
}

// SetAgentID seeds the server identity when resuming an existing
// agent, switching the coordinator to update semantics.
func (c *Coordinator) SetAgentID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agentID = id
}

// ScheduleSave restarts the debounce window with a fresh compilation
// of the snapshot. It fires at most once per window and not at all
// while the profile's name or business name is empty.
func (c *Coordinator) ScheduleSave(st *canvas.State) {
	if st == nil || st.Profile.Name == "" || st.Profile.BusinessName == "" {
		return
	}
	cfg := compile.Compile(st)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.pending = cfg
	if c.state == stateSaving {
		// Coalesced: picked up when the in-flight save resolves.
		return
	}

	c.state = stateScheduled
	if c.timer == nil {
		c.timer = time.AfterFunc(c.debounce, c.fire)
	} else {
		c.timer.Reset(c.debounce)
	}
}

// SaveNow bypasses the debounce for an explicit user-triggered save.
// With announce, the save result is returned to the caller; otherwise
// failures are only logged.
func (c *Coordinator) SaveNow(ctx context.Context, st *canvas.State, announce bool) error {
	if st == nil || st.Profile.Name == "" || st.Profile.BusinessName == "" {
		if announce {
			return ErrProfileIncomplete
		}
		return nil
	}
	cfg := compile.Compile(st)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	// The explicit save supersedes anything scheduled or pending.
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = nil
	for c.state == stateSaving {
		c.cond.Wait()
	}
	c.state = stateSaving
	c.mu.Unlock()

	err := c.dispatch(ctx, cfg)

	c.mu.Lock()
	c.state = stateIdle
	// An edit that landed while this save was in flight parked its
	// compilation in the pending slot with no timer armed; hand it
	// back to the debounce loop so it is not lost.
	if c.pending != nil && !c.closed {
		c.state = stateScheduled
		if c.timer == nil {
			c.timer = time.AfterFunc(c.debounce, c.fire)
		} else {
			c.timer.Reset(c.debounce)
		}
	}
	c.cond.Broadcast()
	c.mu.Unlock()

	if err != nil && !announce {
		logx.Error().Err(err).Msg("manual save failed")
		return nil
	}
	return err
}

// Close cancels any pending debounce timer. An in-flight save is
// allowed to complete but nothing further is dispatched.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = nil
}

// fire runs when the debounce window elapses. It drains the pending
// slot until no newer compilation arrived during the save.
func (c *Coordinator) fire() {
	c.mu.Lock()
	if c.state != stateScheduled {
		// An explicit SaveNow took over; it already superseded the
		// pending compilation.
		c.mu.Unlock()
		return
	}
	for {
		if c.closed {
			c.mu.Unlock()
			return
		}
		cfg := c.pending
		c.pending = nil
		if cfg == nil {
			c.state = stateIdle
			c.mu.Unlock()
			return
		}
		c.state = stateSaving
		c.mu.Unlock()

		err := c.dispatch(context.Background(), cfg)
		if err != nil {
			// Silent autosave failure: superseded by the next edit.
			logx.Warn().Err(err).Msg("autosave failed")
		}

		c.mu.Lock()
		c.state = stateIdle
		c.cond.Broadcast()
	}
}

// dispatch sends one compiled configuration, using create semantics
// until the server has assigned an identifier and update semantics
// afterwards. Last write wins; there is no version check.
func (c *Coordinator) dispatch(ctx context.Context, cfg *compile.AgentConfig) error {
	c.mu.Lock()
	id := c.agentID
	c.mu.Unlock()

	if id == "" {
		created, err := c.api.CreateAgent(ctx, cfg)
		if err != nil {
			return err
		}
		c.mu.Lock()
		// Session identity only; never written into node payloads.
		if c.agentID == "" && !c.closed {
			c.agentID = created.ID
		}
		c.mu.Unlock()
		logx.Info().Str("agent_id", created.ID).Msg("agent created")
		return nil
	}

	cfg.ID = id
	if _, err := c.api.UpdateAgent(ctx, id, cfg); err != nil {
		return err
	}
	logx.Debug().Str("agent_id", id).Msg("agent updated")
	return nil
}
