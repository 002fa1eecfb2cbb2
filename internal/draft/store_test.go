package draft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sungrove/voiceboard-go/internal/compile"
)

// storeUnderTest runs the shared contract suite against one Store
// implementation.
func storeUnderTest(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)

		cfg := &compile.AgentConfig{
			Name:         "Mario's Assistant",
			BusinessName: "Mario's",
			Tools: compile.ToolList{
				compile.ReferenceTool{ID: "business-hours", Name: "Business Hours"},
			},
		}
		require.NoError(t, s.Put(ctx, "marios", cfg))

		got, err := s.Get(ctx, "marios")
		require.NoError(t, err)
		assert.Equal(t, "marios", got.Key)
		assert.WithinDuration(t, time.Now(), got.SavedAt, 5*time.Second)
		require.NotNil(t, got.Config)
		assert.Equal(t, "Mario's", got.Config.BusinessName)
		require.Len(t, got.Config.Tools, 1)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("PutReplacesPrevious", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Put(ctx, "k", &compile.AgentConfig{BusinessName: "Old"}))
		require.NoError(t, s.Put(ctx, "k", &compile.AgentConfig{BusinessName: "New"}))

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "New", got.Config.BusinessName)
	})

	t.Run("EmptyKeyRejected", func(t *testing.T) {
		s := newStore(t)
		assert.Error(t, s.Put(ctx, "", &compile.AgentConfig{}))
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Put(ctx, "first", &compile.AgentConfig{BusinessName: "First"}))
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, s.Put(ctx, "second", &compile.AgentConfig{BusinessName: "Second"}))

		drafts, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, drafts, 2)
		assert.Equal(t, "second", drafts[0].Key)
		assert.Equal(t, "first", drafts[1].Key)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Put(ctx, "k", &compile.AgentConfig{}))
		require.NoError(t, s.Delete(ctx, "k"))
		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)

		// Deleting again is a no-op.
		assert.NoError(t, s.Delete(ctx, "k"))
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	storeUnderTest(t, func(t *testing.T) Store {
		s := NewMemoryStore()
		require.NoError(t, s.Initialize("", false))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBadgerStore(t *testing.T) {
	t.Parallel()

	storeUnderTest(t, func(t *testing.T) Store {
		s := NewBadgerStore()
		require.NoError(t, s.Initialize(t.TempDir(), false))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBadgerStore_Uninitialized(t *testing.T) {
	t.Parallel()

	s := NewBadgerStore()
	err := s.Put(context.Background(), "k", &compile.AgentConfig{})
	assert.ErrorContains(t, err, "not initialized")
}

func TestBadgerStore_Persistence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	s := NewBadgerStore()
	require.NoError(t, s.Initialize(dir, false))
	require.NoError(t, s.Put(ctx, "marios", &compile.AgentConfig{BusinessName: "Mario's"}))
	require.NoError(t, s.Close())

	reopened := NewBadgerStore()
	require.NoError(t, reopened.Initialize(dir, false))
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, "marios")
	require.NoError(t, err)
	assert.Equal(t, "Mario's", got.Config.BusinessName)
}
