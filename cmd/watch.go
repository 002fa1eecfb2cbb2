package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/sungrove/voiceboard-go/internal/compile"
	"github.com/sungrove/voiceboard-go/internal/config"
	"github.com/sungrove/voiceboard-go/internal/draft"
	"github.com/sungrove/voiceboard-go/internal/logx"
	"github.com/sungrove/voiceboard-go/internal/persist"
)

// WatchCmd watches a canvas file and autosaves edits to the runtime.
type WatchCmd struct {
	File string `arg:"" optional:"" default:"agent.json" help:"Canvas file"`
}

// Run executes the watch command.
func (c *WatchCmd) Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return err
	}
	logx.Init(appCfg.Environment)

	path, err := filepath.Abs(c.File)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	coord := newCoordinator(appCfg)
	defer coord.Close()

	drafts, err := openDrafts(appCfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = drafts.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	go func() {
		<-osSignalChannel()
		fmt.Println("\nStopping watch mode...")
		cancel()
	}()

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", path)
	return watchCanvas(ctx, path, coord, drafts)
}

// watchCanvas blocks until the context is cancelled, feeding every
// file change through the persistence coordinator. The coordinator's
// debounce window absorbs editor save bursts; only the most recent
// state is ever sent.
func watchCanvas(ctx context.Context, path string, coord *persist.Coordinator, drafts draft.Store) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors replace files on save, which drops
	// a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := pushCanvasChange(ctx, path, coord, drafts); err != nil {
				logx.Warn().Err(err).Str("file", path).Msg("ignoring unreadable canvas change")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logx.Error().Err(err).Msg("watch error")
		}
	}
}

func pushCanvasChange(ctx context.Context, path string, coord *persist.Coordinator, drafts draft.Store) error {
	store, record, err := loadCanvas(path)
	if err != nil {
		return err
	}

	if record.ID != "" && coord.AgentID() == "" {
		coord.SetAgentID(record.ID)
	}

	st := store.Snapshot()
	st.AgentID = record.ID
	coord.ScheduleSave(st)

	cfg := compile.Compile(st)
	if err := drafts.Put(ctx, draftKeyFor(cfg), cfg); err != nil {
		logx.Warn().Err(err).Msg("draft save failed")
	}
	return nil
}
