// Package credsource follows a token file written by an external login flow.
package credsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"chatwire/internal/logging"
)

const (
	defaultPollPeriod = 5 * time.Second
	maxTokenBytes     = 64 << 10
)

type Options struct {
	Path       string
	PollPeriod time.Duration
}

// Watcher reports the token file's content whenever it changes. A missing or
// empty file is reported as "".
type Watcher struct {
	opts   Options
	logger *logging.Logger

	last    string
	emitted bool
}

func New(opts Options, logger *logging.Logger) *Watcher {
	if logger == nil {
		panic("credsource.New: logger must not be nil")
	}
	if opts.PollPeriod <= 0 {
		opts.PollPeriod = defaultPollPeriod
	}
	opts.Path = filepath.Clean(opts.Path)
	return &Watcher{opts: opts, logger: logger.Component("credsource")}
}

// Read returns the current token, or "" when the file does not exist.
func (w *Watcher) Read() (string, error) {
	data, err := os.ReadFile(w.opts.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if len(data) > maxTokenBytes {
		return "", fmt.Errorf("token file %s is larger than %d bytes", w.opts.Path, maxTokenBytes)
	}
	return strings.TrimSpace(string(data)), nil
}

// Run calls onChange with the initial token and then with every change until
// ctx ends. The directory is watched rather than the file so editors and
// atomic renames are seen.
func (w *Watcher) Run(ctx context.Context, onChange func(string)) error {
	if onChange == nil {
		panic("credsource.Watcher.Run: callback must not be nil")
	}
	dir := filepath.Dir(w.opts.Path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to initialize fsnotify watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch token directory %s: %w", dir, err)
	}
	w.logger.Info("watching token file", logging.Field("path", w.opts.Path))

	w.check(onChange)

	ticker := time.NewTicker(w.opts.PollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("stopping token watcher: context canceled")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.opts.Path {
				continue
			}
			w.logger.Debugf("fsnotify event: op=%s path=%s", event.Op.String(), event.Name)
			w.check(onChange)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("token watcher error", logging.Field("error", err))
		case <-ticker.C:
			w.check(onChange)
		}
	}
}

func (w *Watcher) check(onChange func(string)) {
	token, err := w.Read()
	if err != nil {
		w.logger.Warn("failed to read token file", logging.Field("path", w.opts.Path), logging.Field("error", err))
		return
	}
	if w.emitted && token == w.last {
		return
	}
	w.last = token
	w.emitted = true
	if token == "" {
		w.logger.Info("token file cleared", logging.Field("path", w.opts.Path))
	} else {
		w.logger.Debug("token file changed", logging.Field("path", w.opts.Path))
	}
	onChange(token)
}
