package rom

import (
	"fmt"
	"log"
	"sync"
)

// Layout builds a ROM container from the per-spriteset chunk triples an
// orchestrator produces, choosing where each spriteset's three chunks
// (palette, sprite table, cell pool) land in the final container: the
// flat layout appends them straight to the top-level table, the nested
// layout groups them under named folders (spec.md §6).
type Layout interface {
	// AddSpriteset records one spriteset's three chunks and returns
	// their chunk indices in (palette, spriteTable, cellPool) order.
	// For the nested layout the indices are local to the spriteset's
	// folder, not the outer table.
	AddSpriteset(name string, palette, spriteTable, cellPool []byte) (indices [3]int, err error)
	// Validate checks every invariant across the whole layout.
	Validate() error
	// Save validates and serializes the layout to path.
	Save(path string) error
}

var (
	layoutRegistry = make(map[string]func() Layout)
	layoutMutex    sync.RWMutex
)

// RegisterLayout is called by each layout implementation's init() to add
// itself to the registry under a name, which ForLayout then looks up.
func RegisterLayout(name string, ctor func() Layout) {
	layoutMutex.Lock()
	defer layoutMutex.Unlock()
	if _, exists := layoutRegistry[name]; exists {
		log.Printf("rom: duplicate layout registration for %q, overwriting", name)
	}
	layoutRegistry[name] = ctor
}

// ForLayout returns a fresh Layout for the named layout, or an error if no
// layout is registered under that name.
func ForLayout(name string) (Layout, error) {
	layoutMutex.RLock()
	defer layoutMutex.RUnlock()
	ctor, ok := layoutRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unsupported rom layout: %q", name)
	}
	return ctor(), nil
}

// RegisteredLayouts lists the names available through ForLayout.
func RegisteredLayouts() []string {
	layoutMutex.RLock()
	defer layoutMutex.RUnlock()
	names := make([]string, 0, len(layoutRegistry))
	for name := range layoutRegistry {
		names = append(names, name)
	}
	return names
}
