package server

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cvsync/internal/errors"
	"cvsync/internal/schema"

	"github.com/fsnotify/fsnotify"
)

// MappingCache holds the schema mapping served to handlers. The watcher
// replaces its contents on reload; readers always see a consistent snapshot.
type MappingCache struct {
	mu      sync.RWMutex
	mapping map[string]string
	logger  *errors.Logger
}

// NewMappingCache creates an empty mapping cache
func NewMappingCache(logger *errors.Logger) *MappingCache {
	return &MappingCache{logger: logger}
}

// Get returns the current mapping snapshot. The returned map must not be
// mutated by callers; Load always installs a fresh one.
func (mc *MappingCache) Get() map[string]string {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.mapping
}

// Load reads the mapping file and installs it. A missing file clears the
// cache instead of failing: the server keeps running with internal names.
func (mc *MappingCache) Load(path string) error {
	if path == "" {
		return nil
	}

	mapping, err := schema.LoadMapping(path)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && appErr.Code == errors.ErrCodeMappingNotFound {
			mc.mu.Lock()
			mc.mapping = nil
			mc.mu.Unlock()
			if mc.logger != nil {
				mc.logger.Warn("Mapping file absent, field overrides disabled", "file", path)
			}
			return nil
		}
		return err
	}

	mc.mu.Lock()
	mc.mapping = mapping
	mc.mu.Unlock()

	if mc.logger != nil {
		mc.logger.Info("Schema mapping loaded", "file", path, "entries", len(mapping))
	}
	return nil
}

// MappingWatcher watches the mapping file for changes and hot-reloads the
// mapping cache
type MappingWatcher struct {
	mu sync.RWMutex

	mappingFile string
	cache       *MappingCache

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	lastModTime time.Time
	logger      *errors.Logger
	running     bool
}

// NewMappingWatcher creates a new mapping file watcher
func NewMappingWatcher(mappingFile string, debounceDelay time.Duration, cache *MappingCache, logger *errors.Logger) *MappingWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second // Default 1 second debounce
	}

	return &MappingWatcher{
		mappingFile:   mappingFile,
		cache:         cache,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		logger:        logger,
	}
}

// Start begins watching the mapping file for changes
func (mw *MappingWatcher) Start() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	if mw.running {
		return fmt.Errorf("mapping watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	mw.fsWatcher = watcher

	if stat, err := os.Stat(mw.mappingFile); err == nil {
		mw.lastModTime = stat.ModTime()
	}

	if err := mw.addToWatcher(); err != nil {
		if closeErr := watcher.Close(); closeErr != nil && mw.logger != nil {
			mw.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return err
	}

	mw.running = true
	go mw.watchLoop()

	if mw.logger != nil {
		mw.logger.Info("Mapping file watcher started",
			"file", mw.mappingFile,
			"debounce_delay", mw.debounceDelay)
	}
	return nil
}

// Stop stops the mapping file watcher
func (mw *MappingWatcher) Stop() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	if !mw.running {
		return nil
	}

	close(mw.stopChan)

	if mw.debounceTimer != nil {
		mw.debounceTimer.Stop()
	}

	if mw.fsWatcher != nil {
		if err := mw.fsWatcher.Close(); err != nil {
			if mw.logger != nil {
				mw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	mw.running = false

	if mw.logger != nil {
		mw.logger.Info("Mapping file watcher stopped")
	}
	return nil
}

// IsRunning returns whether the watcher is currently running
func (mw *MappingWatcher) IsRunning() bool {
	mw.mu.RLock()
	defer mw.mu.RUnlock()
	return mw.running
}

// addToWatcher watches the mapping file and its directory. Watching the
// directory catches atomic writes (rename operations) and files created
// after startup.
func (mw *MappingWatcher) addToWatcher() error {
	dir := filepath.Dir(mw.mappingFile)
	if err := mw.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	if err := mw.fsWatcher.Add(mw.mappingFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to watch file %s: %w", mw.mappingFile, err)
	}

	return nil
}

// watchLoop is the main event loop for file watching
func (mw *MappingWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-mw.fsWatcher.Events:
			if !ok {
				return
			}
			if mw.shouldProcessEvent(event) {
				mw.scheduleReload()
			}

		case err, ok := <-mw.fsWatcher.Errors:
			if !ok {
				return
			}
			if mw.logger != nil {
				mw.logger.LogError(err, "File watcher error")
			}

		case <-mw.reloadChan:
			// Debounced reload trigger
			if mw.hasFileChanged() {
				if mw.logger != nil {
					mw.logger.Info("Mapping file changed, reloading")
				}
				if err := mw.cache.Load(mw.mappingFile); err != nil && mw.logger != nil {
					mw.logger.LogError(err, "Failed to reload mapping file, keeping previous mapping")
				}
			}

		case <-mw.stopChan:
			return
		}
	}
}

// shouldProcessEvent determines if a file system event should trigger a
// reload check
func (mw *MappingWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Name != mw.mappingFile && filepath.Base(event.Name) != filepath.Base(mw.mappingFile) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// hasFileChanged checks if the mapping file was modified since last check
func (mw *MappingWatcher) hasFileChanged() bool {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	stat, err := os.Stat(mw.mappingFile)
	if err != nil {
		if os.IsNotExist(err) && !mw.lastModTime.IsZero() {
			// File was deleted
			mw.lastModTime = time.Time{}
			return true
		}
		return false
	}

	if mw.lastModTime.IsZero() || stat.ModTime().After(mw.lastModTime) {
		mw.lastModTime = stat.ModTime()
		return true
	}
	return false
}

// scheduleReload schedules a debounced reload
func (mw *MappingWatcher) scheduleReload() {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	if mw.debounceTimer != nil {
		mw.debounceTimer.Stop()
	}

	mw.debounceTimer = time.AfterFunc(mw.debounceDelay, func() {
		select {
		case mw.reloadChan <- struct{}{}:
			// Reload scheduled
		default:
			// Channel is full, reload already scheduled
		}
	})
}
