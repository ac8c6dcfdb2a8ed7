package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/unicorn/internal/logging"
	"github.com/aretw0/unicorn/pkg/trie"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Loader implements ports.TrieLoader and ports.Watchable over a single file.
type Loader struct {
	path     string
	format   trie.Format
	strict   bool
	debounce time.Duration
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFormat overrides the format guessed from the file extension.
func WithFormat(f trie.Format) LoaderOption {
	return func(l *Loader) {
		l.format = f
	}
}

// WithStrict validates JSON payloads against the trie schema before parsing.
func WithStrict(strict bool) LoaderOption {
	return func(l *Loader) {
		l.strict = strict
	}
}

// WithDebounce sets the quiet period before a change is signalled.
func WithDebounce(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.debounce = d
	}
}

// WithLogger sets the logger used by the watcher.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader for path. The format defaults to the file extension.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{
		path:     path,
		format:   trie.FormatFromPath(path),
		debounce: DefaultDebounce,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the watched file path.
func (l *Loader) Path() string { return l.path }

// Load reads and parses the file.
func (l *Loader) Load(ctx context.Context) (*trie.Trie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.path, err)
	}
	if l.strict && l.format == trie.FormatJSON {
		if err := trie.Validate(data); err != nil {
			return nil, err
		}
	}
	return trie.Parse(data, l.format)
}

// Watch signals on the returned channel whenever the file is written or recreated.
// The containing directory is watched so atomic saves (rename over) are seen.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}

	ch := make(chan struct{}, 1)
	go l.watchLoop(ctx, watcher, ch)
	return ch, nil
}

func (l *Loader) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, ch chan<- struct{}) {
	defer close(ch)
	defer watcher.Close()

	var debounce *time.Timer
	var fire <-chan time.Time
	base := filepath.Base(l.path)

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(l.debounce)
			} else {
				debounce.Reset(l.debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			l.logger.Debug("trie file changed", "path", l.path)
			select {
			case ch <- struct{}{}:
			default:
				// A signal is already pending.
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("watcher error", "path", l.path, "err", err)
		}
	}
}
