package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sungrove/voiceboard-go/internal/canvas"
	"github.com/sungrove/voiceboard-go/internal/compile"
)

// fakeRuntime records calls and can simulate slow or failing servers.
type fakeRuntime struct {
	mu       sync.Mutex
	creates  []*compile.AgentConfig
	updates  []*compile.AgentConfig
	delay    time.Duration
	err      error
	inflight int
	overlap  bool
}

func (f *fakeRuntime) enter() {
	f.mu.Lock()
	f.inflight++
	if f.inflight > 1 {
		f.overlap = true
	}
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
}

func (f *fakeRuntime) leave() {
	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()
}

func (f *fakeRuntime) CreateAgent(_ context.Context, cfg *compile.AgentConfig) (*compile.AgentConfig, error) {
	f.enter()
	defer f.leave()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.creates = append(f.creates, cfg)
	out := *cfg
	out.ID = "agent-123"
	return &out, nil
}

func (f *fakeRuntime) UpdateAgent(_ context.Context, id string, cfg *compile.AgentConfig) (*compile.AgentConfig, error) {
	f.enter()
	defer f.leave()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.updates = append(f.updates, cfg)
	return cfg, nil
}

func (f *fakeRuntime) GetAgent(context.Context, string) (*compile.AgentConfig, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRuntime) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

func (f *fakeRuntime) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func namedState(businessName string) *canvas.State {
	s := canvas.NewStore()
	s.SetProfile(canvas.Profile{
		Name:         businessName + " Assistant",
		BusinessName: businessName,
	})
	return s.Snapshot()
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestCoordinator_DebounceCoalesces(t *testing.T) {
	t.Parallel()

	api := &fakeRuntime{}
	c := NewCoordinator(api, 50*time.Millisecond)
	defer c.Close()

	// Three rapid edits inside one window produce exactly one save,
	// carrying the last state.
	c.ScheduleSave(namedState("One"))
	c.ScheduleSave(namedState("Two"))
	c.ScheduleSave(namedState("Three"))

	waitFor(t, func() bool { return api.createCount() == 1 })
	time.Sleep(100 * time.Millisecond)

	require.Equal(t, 1, api.createCount())
	assert.Equal(t, "Three", api.creates[0].BusinessName)
}

func TestCoordinator_EachWindowFiresOnce(t *testing.T) {
	t.Parallel()

	api := &fakeRuntime{}
	c := NewCoordinator(api, 30*time.Millisecond)
	defer c.Close()

	c.ScheduleSave(namedState("First"))
	waitFor(t, func() bool { return api.createCount() == 1 })

	c.ScheduleSave(namedState("Second"))
	waitFor(t, func() bool { return api.updateCount() == 1 })

	assert.Equal(t, "Second", api.updates[0].BusinessName)
}

func TestCoordinator_GuardsIncompleteProfile(t *testing.T) {
	t.Parallel()

	api := &fakeRuntime{}
	c := NewCoordinator(api, 10*time.Millisecond)
	defer c.Close()

	s := canvas.NewStore()
	c.ScheduleSave(s.Snapshot())
	c.ScheduleSave(nil)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, api.createCount())

	// A silent SaveNow on an incomplete profile succeeds without a call;
	// an announced one reports the guard.
	require.NoError(t, c.SaveNow(context.Background(), s.Snapshot(), false))
	err := c.SaveNow(context.Background(), s.Snapshot(), true)
	assert.ErrorIs(t, err, ErrProfileIncomplete)
	assert.Zero(t, api.createCount())
}

func TestCoordinator_CreateThenUpdate(t *testing.T) {
	t.Parallel()

	api := &fakeRuntime{}
	c := NewCoordinator(api, time.Minute)

	require.NoError(t, c.SaveNow(context.Background(), namedState("Mario's"), true))
	assert.Equal(t, "agent-123", c.AgentID())

	require.NoError(t, c.SaveNow(context.Background(), namedState("Mario's"), true))

	assert.Equal(t, 1, api.createCount())
	assert.Equal(t, 1, api.updateCount())
	assert.Equal(t, "agent-123", api.updates[0].ID)
}

func TestCoordinator_SeededAgentIDUsesUpdate(t *testing.T) {
	t.Parallel()

	api := &fakeRuntime{}
	c := NewCoordinator(api, time.Minute)
	c.SetAgentID("agent-existing")

	require.NoError(t, c.SaveNow(context.Background(), namedState("Mario's"), true))

	assert.Zero(t, api.createCount())
	require.Equal(t, 1, api.updateCount())
	assert.Equal(t, "agent-existing", api.updates[0].ID)
}

func TestCoordinator_SavesNeverOverlap(t *testing.T) {
	t.Parallel()

	api := &fakeRuntime{delay: 40 * time.Millisecond}
	c := NewCoordinator(api, 10*time.Millisecond)
	defer c.Close()

	// Keep scheduling while a slow save is in flight; the coordinator
	// must serialize dispatches and coalesce the backlog.
	for i := 0; i < 5; i++ {
		c.ScheduleSave(namedState("Mario's"))
		time.Sleep(15 * time.Millisecond)
	}

	waitFor(t, func() bool { return api.createCount()+api.updateCount() >= 2 })
	time.Sleep(100 * time.Millisecond)

	api.mu.Lock()
	overlap := api.overlap
	api.mu.Unlock()
	assert.False(t, overlap, "two saves ran concurrently")
}

func TestCoordinator_SaveNowSupersedesScheduled(t *testing.T) {
	t.Parallel()

	api := &fakeRuntime{}
	c := NewCoordinator(api, 50*time.Millisecond)
	defer c.Close()

	c.ScheduleSave(namedState("Scheduled"))
	require.NoError(t, c.SaveNow(context.Background(), namedState("Immediate"), true))

	time.Sleep(120 * time.Millisecond)

	// Only the explicit save went out; the pending autosave was dropped.
	require.Equal(t, 1, api.createCount())
	assert.Equal(t, "Immediate", api.creates[0].BusinessName)
	assert.Zero(t, api.updateCount())
}

func TestCoordinator_ScheduleDuringManualSaveIsNotLost(t *testing.T) {
	t.Parallel()

	api := &fakeRuntime{delay: 100 * time.Millisecond}
	c := NewCoordinator(api, 20*time.Millisecond)
	defer c.Close()

	done := make(chan error, 1)
	go func() {
		done <- c.SaveNow(context.Background(), namedState("Manual"), true)
	}()

	// Let the manual save get in flight, then edit behind its back.
	waitFor(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.inflight > 0
	})
	c.ScheduleSave(namedState("EditedDuringSave"))

	require.NoError(t, <-done)

	// The edit parked while the save was in flight still goes out once
	// the call resolves.
	waitFor(t, func() bool { return api.updateCount() == 1 })
	assert.Equal(t, 1, api.createCount())
	assert.Equal(t, "EditedDuringSave", api.updates[0].BusinessName)
}

func TestCoordinator_AutosaveFailureIsSilent(t *testing.T) {
	t.Parallel()

	api := &fakeRuntime{err: errors.New("server down")}
	c := NewCoordinator(api, 10*time.Millisecond)
	defer c.Close()

	c.ScheduleSave(namedState("Mario's"))
	time.Sleep(80 * time.Millisecond)

	// The failure is logged, not retried. A later announced save
	// surfaces the error to the caller.
	err := c.SaveNow(context.Background(), namedState("Mario's"), true)
	assert.ErrorContains(t, err, "server down")
}

func TestCoordinator_CloseCancelsPending(t *testing.T) {
	t.Parallel()

	api := &fakeRuntime{}
	c := NewCoordinator(api, 20*time.Millisecond)

	c.ScheduleSave(namedState("Mario's"))
	c.Close()

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, api.createCount())
}
