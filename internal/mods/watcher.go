package mods

import (
	"errors"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrAlreadyWatching is returned by Watch when a watch is already running.
var ErrAlreadyWatching = errors.New("mods: already watching")

// Watch starts reacting to changes in the mods directory: a created or
// rewritten script is (re)loaded, a removed script is unloaded. Runs until
// Stop is called. Calling Watch again without an intervening Stop returns
// ErrAlreadyWatching.
func (h *Host) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(h.dir); err != nil {
		watcher.Close()
		return err
	}

	h.mu.Lock()
	if h.watcher != nil {
		h.mu.Unlock()
		watcher.Close()
		return ErrAlreadyWatching
	}
	h.watcher = watcher
	h.mu.Unlock()

	go h.watchLoop(watcher)
	return nil
}

// Stop ends watching. Loaded mods stay loaded.
func (h *Host) Stop() {
	h.mu.Lock()
	watcher := h.watcher
	h.watcher = nil
	h.mu.Unlock()

	if watcher != nil {
		watcher.Close()
	}
}

func (h *Host) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".lua") {
				continue
			}
			h.handleFileEvent(ev)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Warn("mods watcher error", zap.Error(err))
		}
	}
}

func (h *Host) handleFileEvent(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		if err := h.Load(ev.Name); err != nil {
			h.logger.Warn("mod reload failed",
				zap.String("path", ev.Name),
				zap.Error(err),
			)
		}
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		h.Unload(modName(ev.Name))
	}
}
