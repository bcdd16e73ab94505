package workspace

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// WatchConfig holds watcher configuration options.
type WatchConfig struct {
	Dirs     []string
	Debounce time.Duration
	// Match selects the paths worth reporting. Nil reports script files.
	Match func(path string) bool
}

func DefaultWatchConfig(dirs ...string) WatchConfig {
	return WatchConfig{
		Dirs:     dirs,
		Debounce: 200 * time.Millisecond,
		Match:    IsScript,
	}
}

// Watcher batches file system events into debounced lists of changed paths.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dirs     []string
	debounce time.Duration
	match    func(string) bool
	changes  chan []string
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
}

func NewWatcher(cfg WatchConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating fsnotify watcher: %w", err)
	}

	match := cfg.Match
	if match == nil {
		match = IsScript
	}

	return &Watcher{
		fsw:      fsw,
		dirs:     cfg.Dirs,
		debounce: cfg.Debounce,
		match:    match,
		changes:  make(chan []string, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives sorted, deduplicated paths once
// events have been quiet for the debounce duration, and is closed after Stop.
func (me *Watcher) Start(ctx context.Context) (<-chan []string, error) {
	for _, dir := range me.dirs {
		if err := me.fsw.Add(dir); err != nil {
			return nil, errors.Errorf("watching directory %s: %w", dir, err)
		}
	}

	go me.loop(ctx)

	return me.changes, nil
}

// Stop is safe to call more than once.
func (me *Watcher) Stop() error {
	me.stopOnce.Do(func() {
		close(me.done)
		me.stopErr = me.fsw.Close()
	})
	return me.stopErr
}

func (me *Watcher) loop(ctx context.Context) {
	var (
		timer   *time.Timer
		pending = map[string]bool{}
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		close(me.changes)
	}()

	for {
		select {
		case event, ok := <-me.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 || !me.match(event.Name) {
				continue
			}
			pending[event.Name] = true

			if timer == nil {
				timer = time.NewTimer(me.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(me.debounce)

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)

			select {
			case me.changes <- batch:
				pending = map[string]bool{}
			case <-me.done:
				return
			case <-ctx.Done():
				return
			}

		case err, ok := <-me.fsw.Errors:
			if !ok {
				return
			}
			zerolog.Ctx(ctx).Warn().Err(err).Msg("file watcher error")

		case <-me.done:
			return

		case <-ctx.Done():
			return
		}
	}
}
