package runtimeconfig

import "sync"

// APIPrefix is the route segment appended to the base path to reach the
// admin API.
const APIPrefix = "/api/admin"

// Config is the runtime configuration record injected into the admin UI.
// BasePath is a URL path prefix owned by the host; this package never
// validates or rewrites it.
type Config struct {
	BasePath string `json:"basePath"`
}

// APIBaseURL derives the admin API base URL from the record by raw
// concatenation. No normalization is applied.
func (c Config) APIBaseURL() string {
	return c.BasePath + APIPrefix
}

var (
	mu      sync.RWMutex
	current *Config
)

// Set populates the process-wide slot with the provided record.
func Set(cfg Config) {
	mu.Lock()
	current = &cfg
	mu.Unlock()
}

// Clear empties the slot, restoring the unset state.
func Clear() {
	mu.Lock()
	current = nil
	mu.Unlock()
}

// Get returns the injected record unchanged, or a zero record when the slot
// is unset. It never fails.
func Get() Config {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil {
		return Config{}
	}
	return *current
}

// APIBaseURL derives the admin API base URL from the current slot contents.
func APIBaseURL() string {
	return Get().APIBaseURL()
}
