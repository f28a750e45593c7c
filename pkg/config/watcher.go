package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 100 * time.Millisecond

// Watcher reloads a configuration file when it changes. Reloads are debounced
// and happen at most once per the configured reload interval. A reload that
// fails keeps the previous configuration and reports the error on Errors.
type Watcher struct {
	path   string
	logger *slog.Logger

	mu         sync.RWMutex
	config     *Config
	onChange   []func(*Config)
	lastReload time.Time

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	errChan chan error
	done    chan struct{}
}

// NewWatcher creates a watcher for the file initial was loaded from.
func NewWatcher(initial *Config, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:    initial.Path(),
		logger:  logger,
		config:  initial,
		ctx:     ctx,
		cancel:  cancel,
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}
}

// Config returns the current configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnChange registers a callback invoked after each successful reload.
func (w *Watcher) OnChange(cb func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, cb)
}

// Errors returns a channel for receiving errors that occur during watching.
func (w *Watcher) Errors() <-chan error {
	return w.errChan
}

// Start watches the directory holding the config file.
func (w *Watcher) Start() error {
	if w.path == "" {
		return fmt.Errorf("watch config: no config file path")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher

	go w.watchLoop()
	return nil
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	return err
}

// watchLoop handles file system events.
func (w *Watcher) watchLoop() {
	defer close(w.done)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.delay(), func() {
				if err := w.Reload(); err != nil {
					w.report(err)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

// delay is the debounce delay stretched so reloads stay one interval apart.
func (w *Watcher) delay() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d := debounceDelay
	if w.lastReload.IsZero() {
		return d
	}
	if wait := time.Until(w.lastReload.Add(w.config.ReloadInterval)); wait > d {
		d = wait
	}
	return d
}

// Reload reads the file now. On failure the current configuration is kept.
func (w *Watcher) Reload() error {
	cfg, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous configuration", "path", w.path, "error", err)
		return fmt.Errorf("reload config: %w", err)
	}

	w.mu.Lock()
	w.config = cfg
	w.lastReload = time.Now()
	callbacks := append([]func(*Config){}, w.onChange...)
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path, "triggers", len(cfg.Definitions()))
	for _, cb := range callbacks {
		cb(cfg)
	}
	return nil
}

func (w *Watcher) report(err error) {
	select {
	case w.errChan <- err:
	default:
	}
}
