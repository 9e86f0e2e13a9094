package selectors

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
)

// Memory remembers which locators produced usable text for each target
// fingerprint, persisted as a flat JSON mapping. It is an optimization
// cache, not a correctness store: reads are cheap and concurrent, writes are
// last-writer-wins, and losing an update only costs a rescan next time.
type Memory struct {
	path string

	mu      sync.RWMutex
	entries map[string][]string
}

// OpenMemory loads the memory file at path. A missing or corrupt file is not
// an error; it just starts empty. An empty path disables persistence.
func OpenMemory(path string) *Memory {
	m := &Memory{path: path, entries: map[string][]string{}}
	if path == "" {
		return m
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	var entries map[string][]string
	if err := json.Unmarshal(data, &entries); err == nil && entries != nil {
		m.entries = entries
	}
	return m
}

// Lookup returns the remembered locator order for a fingerprint, or nil.
func (m *Memory) Lookup(fingerprint string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	locs := m.entries[fingerprint]
	out := make([]string, len(locs))
	copy(out, locs)
	return out
}

// Store records the locators that yielded matches for a fingerprint and
// rewrites the backing file. Only called on confirmed success.
func (m *Memory) Store(fingerprint string, locators []string) error {
	if len(locators) == 0 {
		return nil
	}
	sorted := make([]string, len(locators))
	copy(sorted, locators)
	sort.Strings(sorted)

	m.mu.Lock()
	m.entries[fingerprint] = sorted
	data, err := json.MarshalIndent(m.entries, "", "  ")
	m.mu.Unlock()
	if err != nil || m.path == "" {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Evict drops a stale entry after the remembered locators failed to produce
// anything. The file is not rewritten here; the next Store does that.
func (m *Memory) Evict(fingerprint string) {
	m.mu.Lock()
	delete(m.entries, fingerprint)
	m.mu.Unlock()
}
