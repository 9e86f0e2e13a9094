package selectors

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.json")

	m := OpenMemory(path)
	require.NoError(t, m.Store("company-profile:AAPL", []string{"model-response", "article"}))

	// A fresh open must see what was persisted.
	reopened := OpenMemory(path)
	got := reopened.Lookup("company-profile:AAPL")
	assert.ElementsMatch(t, []string{"model-response", "article"}, got)
}

func TestMemoryMissIsNotAnError(t *testing.T) {
	m := OpenMemory(filepath.Join(t.TempDir(), "absent.json"))
	assert.Empty(t, m.Lookup("unknown-target"))
}

func TestMemoryCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("not json{"), 0o644))

	m := OpenMemory(path)
	assert.Empty(t, m.Lookup("anything"))
}

func TestMemoryEvict(t *testing.T) {
	m := OpenMemory("")
	require.NoError(t, m.Store("fp", []string{"p"}))
	m.Evict("fp")
	assert.Empty(t, m.Lookup("fp"))
}

func TestMemoryConcurrentReadersAndWriters(t *testing.T) {
	m := OpenMemory(filepath.Join(t.TempDir(), "mem.json"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = m.Store("fp", []string{"model-response", "article"})
		}()
		go func() {
			defer wg.Done()
			_ = m.Lookup("fp")
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"article", "model-response"}, m.Lookup("fp"))
}

func TestOrderPutsRememberedFirstWithoutDuplicates(t *testing.T) {
	remembered := []string{"article", "model-response"}
	order := Order(remembered)

	require.GreaterOrEqual(t, len(order), len(Base))
	assert.Equal(t, "article", order[0])
	assert.Equal(t, "model-response", order[1])

	seen := map[string]int{}
	for _, loc := range order {
		seen[loc]++
	}
	for loc, n := range seen {
		assert.Equal(t, 1, n, "locator %s duplicated", loc)
	}
}
