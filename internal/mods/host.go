package mods

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/emeraldgrove/engine/internal/event"
	"github.com/emeraldgrove/engine/internal/event/events"
)

// Mod is one loaded script: its Lua state plus every subscription it made.
type Mod struct {
	name string
	path string

	// mu serializes Lua execution against teardown. A publish that already
	// snapshotted its handler set can still reach this mod after Unload;
	// the closed flag turns that into a no-op instead of entering a closed
	// state.
	mu     sync.Mutex
	state  *lua.LState
	subs   []event.SubscriptionID
	closed bool
}

// Name returns the mod name (the script file name without extension).
func (m *Mod) Name() string {
	return m.name
}

// Host loads mod scripts and owns their lifecycle.
type Host struct {
	bus      *event.Bus
	dir      string
	logger   *zap.Logger
	bindings map[string]Binding

	mu      sync.Mutex
	mods    map[string]*Mod
	watcher *fsnotify.Watcher
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostLogger sets the host logger.
func WithHostLogger(logger *zap.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithBindings replaces the event surface exposed to scripts.
func WithBindings(bindings map[string]Binding) HostOption {
	return func(h *Host) {
		if bindings != nil {
			h.bindings = bindings
		}
	}
}

// NewHost creates a host loading scripts from dir.
func NewHost(bus *event.Bus, dir string, opts ...HostOption) *Host {
	h := &Host{
		bus:      bus,
		dir:      dir,
		logger:   zap.NewNop(),
		bindings: DefaultBindings(),
		mods:     make(map[string]*Mod),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// LoadAll loads every *.lua file in the mods directory. A script that fails
// to load is logged and skipped; the remaining mods still load.
func (h *Host) LoadAll() error {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		return fmt.Errorf("read mods dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
			continue
		}
		path := filepath.Join(h.dir, entry.Name())
		if err := h.Load(path); err != nil {
			h.logger.Warn("mod failed to load",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Load runs one script file. If a mod with the same name is already loaded
// it is unloaded first, so Load doubles as reload.
func (h *Host) Load(path string) error {
	name := modName(path)
	h.Unload(name)

	mod := &Mod{
		name:  name,
		path:  path,
		state: lua.NewState(),
	}
	h.install(mod)

	mod.mu.Lock()
	err := mod.state.DoFile(path)
	mod.mu.Unlock()
	if err != nil {
		h.teardown(mod)
		return fmt.Errorf("run mod %s: %w", name, err)
	}

	mod.mu.Lock()
	subs := len(mod.subs)
	mod.mu.Unlock()

	h.mu.Lock()
	h.mods[name] = mod
	h.mu.Unlock()

	h.logger.Info("mod loaded",
		zap.String("mod", name),
		zap.Int("subscriptions", subs),
	)
	event.Publish(h.bus, events.ModLoaded{Meta: event.NewMeta(event.PriorityLow), Name: name})
	return nil
}

// Unload removes a mod: every subscription it made is unsubscribed and its
// Lua state closed. Reports whether the mod was loaded. Unloading an
// unknown mod is a no-op.
func (h *Host) Unload(name string) bool {
	h.mu.Lock()
	mod, ok := h.mods[name]
	if ok {
		delete(h.mods, name)
	}
	h.mu.Unlock()
	if !ok {
		return false
	}

	h.teardown(mod)
	h.logger.Info("mod unloaded", zap.String("mod", name))
	event.Publish(h.bus, events.ModUnloaded{Meta: event.NewMeta(event.PriorityLow), Name: name})
	return true
}

// Mods returns the names of the loaded mods.
func (h *Host) Mods() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.mods))
	for name := range h.mods {
		names = append(names, name)
	}
	return names
}

// Close stops watching and unloads every mod.
func (h *Host) Close() {
	h.Stop()
	for _, name := range h.Mods() {
		h.Unload(name)
	}
}

func (h *Host) teardown(mod *Mod) {
	mod.mu.Lock()
	mod.closed = true
	subs := mod.subs
	mod.subs = nil
	mod.state.Close()
	mod.mu.Unlock()

	// Unsubscribe is idempotent, so a teardown racing a reload is harmless.
	for _, id := range subs {
		h.bus.Unsubscribe(id)
	}
}

// install registers the script API into the mod's Lua state.
func (h *Host) install(mod *Mod) {
	L := mod.state

	L.SetGlobal("subscribe", L.NewFunction(func(L *lua.LState) int {
		eventName := L.CheckString(1)
		fn := L.CheckFunction(2)
		prioName := L.OptString(3, "normal")

		binding, ok := h.bindings[eventName]
		if !ok {
			L.RaiseError("unknown event %q", eventName)
			return 0
		}
		prio, ok := event.ParsePriority(prioName)
		if !ok {
			L.RaiseError("unknown priority %q", prioName)
			return 0
		}

		id := binding(h.bus, prio, func(payload map[string]any) bool {
			return h.call(mod, fn, payload)
		})
		// The interpreter only runs with mod.mu held (Load and call), so
		// subs needs no locking of its own here.
		mod.subs = append(mod.subs, id)

		L.Push(lua.LNumber(id))
		return 1
	}))

	L.SetGlobal("log", L.NewFunction(func(L *lua.LState) int {
		h.logger.Info("mod log",
			zap.String("mod", mod.name),
			zap.String("message", L.CheckString(1)),
		)
		return 0
	}))
}

// call invokes a script callback with the payload as a table. A script
// error becomes a Go error on the bus handler path, where the bus isolates
// and logs it. A true return requests cancellation.
//
// A call that lost the race with teardown returns false without entering
// the closed state.
func (h *Host) call(mod *Mod, fn *lua.LFunction, payload map[string]any) bool {
	mod.mu.Lock()
	defer mod.mu.Unlock()
	if mod.closed {
		return false
	}
	L := mod.state

	table := L.NewTable()
	for k, v := range payload {
		L.SetField(table, k, toLuaValue(L, v))
	}

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, table); err != nil {
		h.logger.Error("mod handler failed",
			zap.String("mod", mod.name),
			zap.Error(err),
		)
		return false
	}

	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret)
}

func toLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

func modName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".lua")
}
