// Package mods hosts Lua mod scripts as consumers of the engine event bus.
//
// Each *.lua file in the mods directory gets its own interpreter state and
// a small API: subscribe(eventName, fn [, priority]) and log(msg). When a
// mod is unloaded, or its file changes on disk, every subscription it made
// is removed before the script is (re)run, so a reloading mod never leaves
// stale handlers behind.
//
// Script handlers run on the publishing goroutine. Each mod guards its
// interpreter with a mutex, so a handler running on the game loop never
// races a reload or unload driven from the watcher goroutine, and a
// publish that is already in flight when a mod unloads skips it rather
// than entering the closed state.
package mods
