package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/headsync/internal/logging"
)

// ChangeHandler handles a reloaded configuration.
type ChangeHandler func(cfg *Config)

// Watcher watches a configuration file and reloads it on change, with
// debouncing so editors that write in several bursts trigger one reload.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   logging.Logger
	delay    time.Duration
	handlers []ChangeHandler

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, logger logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:    path,
		watcher: fsw,
		logger:  logger.WithComponent("config"),
		delay:   200 * time.Millisecond,
	}, nil
}

// AddHandler registers a handler invoked with every successfully reloaded
// configuration. Must be called before Start.
func (w *Watcher) AddHandler(handler ChangeHandler) {
	w.handlers = append(w.handlers, handler)
}

// Start begins watching. The containing directory is watched rather than the
// file itself so atomic save-and-rename writes are still observed.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.watchLoop(ctx)

	return nil
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, err, "config watcher error")
		}
	}
}

func (w *Watcher) scheduleReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.delay, func() {
		w.reload(ctx)
	})
}

func (w *Watcher) reload(ctx context.Context) {
	cfg, err := ReadFile(w.path)
	if err != nil {
		// A half-written or invalid file keeps the previous configuration.
		w.logger.Warn(ctx, err, "config reload failed", "path", w.path)
		return
	}

	w.logger.Info(ctx, "configuration reloaded", "path", w.path)

	for _, handler := range w.handlers {
		handler(cfg)
	}
}

// ReadFile loads and validates a configuration file directly, outside of
// viper's global state. Used by the watcher and by tests.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	defaults := Default()
	if config.Server.Host == "" {
		config.Server.Host = defaults.Server.Host
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// WriteFile marshals cfg to YAML at path. Used by the init command to
// scaffold a default configuration file.
func WriteFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
