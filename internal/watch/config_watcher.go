// Package watch reloads the configuration when its file changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ironsheep/image-styles/internal/config"
)

// DefaultDebounce collapses bursts of file events into one reload.
const DefaultDebounce = 500 * time.Millisecond

// ApplyFunc installs a freshly loaded configuration.
type ApplyFunc func(cfg *config.Config) error

// ConfigWatcher monitors the configuration file and applies valid changes.
// Derivatives already on disk are kept: changing a style does not invalidate
// files generated with its previous definition.
type ConfigWatcher struct {
	configPath string
	apply      ApplyFunc
	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	debounce   time.Duration

	reloadChan chan struct{}
	stopOnce   sync.Once
	stopChan   chan struct{}
	done       sync.WaitGroup
}

// NewConfigWatcher creates a watcher for configPath. A zero debounce selects
// DefaultDebounce.
func NewConfigWatcher(configPath string, apply ApplyFunc, debounce time.Duration, logger *slog.Logger) (*ConfigWatcher, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigWatcher{
		configPath: absPath,
		apply:      apply,
		watcher:    watcher,
		logger:     logger,
		debounce:   debounce,
		reloadChan: make(chan struct{}, 1),
		stopChan:   make(chan struct{}),
	}, nil
}

// Start begins monitoring. Editors replace files rather than write them in
// place, so the containing directory is watched.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}

	cw.logger.Info("Starting configuration watcher", slog.String("config_path", cw.configPath))

	cw.done.Add(2)
	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutines.
func (cw *ConfigWatcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		close(cw.stopChan)
		err = cw.watcher.Close()
		cw.done.Wait()
	})
	return err
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	defer cw.done.Done()
	configFile := filepath.Base(cw.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				cw.logger.Debug("Config file change detected", slog.String("file", event.Name), slog.String("op", event.Op.String()))
				cw.triggerReload()
			case event.Has(fsnotify.Remove):
				cw.logger.Warn("Config file removed", slog.String("file", event.Name))
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("Config watcher error", slog.String("error", err.Error()))
		}
	}
}

func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	defer cw.done.Done()
	timer := time.NewTimer(cw.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-cw.stopChan:
			timer.Stop()
			return
		case <-cw.reloadChan:
			timer.Reset(cw.debounce)
		case <-timer.C:
			if err := cw.reload(); err != nil {
				cw.logger.Error("Failed to reload configuration", slog.String("error", err.Error()))
			}
		}
	}
}

func (cw *ConfigWatcher) triggerReload() {
	select {
	case cw.reloadChan <- struct{}{}:
	default:
	}
}

// reload loads and applies the configuration. An invalid file leaves the
// running configuration untouched.
func (cw *ConfigWatcher) reload() error {
	cfg, err := config.Load(cw.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new configuration: %w", err)
	}
	if err := cw.apply(cfg); err != nil {
		return fmt.Errorf("failed to apply new configuration: %w", err)
	}
	cw.logger.Info("Configuration reloaded", slog.Int("styles", len(cfg.ImageStyles)))
	return nil
}
