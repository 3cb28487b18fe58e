package logger

import (
	"sync"
)

// Component loggers are looked up by name. An unregistered component gets a
// logger derived from the global one at lookup time, so it follows later
// calls to SetGlobalLogger.
var (
	componentsMu sync.RWMutex
	components   = map[string]*Logger{}
)

// Register binds name to l. A nil l removes the binding.
func Register(name string, l *Logger) {
	componentsMu.Lock()
	defer componentsMu.Unlock()
	if l == nil {
		delete(components, name)
		return
	}
	components[name] = l
}

// Get returns the logger registered for name, or the global logger tagged
// with component=name.
func Get(name string) *Logger {
	componentsMu.RLock()
	l := components[name]
	componentsMu.RUnlock()
	if l != nil {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// Reset forgets every registered component.
func Reset() {
	componentsMu.Lock()
	defer componentsMu.Unlock()
	clear(components)
}
