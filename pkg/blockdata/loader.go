package blockdata

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// ErrUnknownPack is returned by Load for a name that was never registered.
var ErrUnknownPack = errors.New("unknown block pack")

var (
	mu    sync.RWMutex
	packs = map[string]func() (*Pack, error){}
)

// Register makes a pack factory available under name.
func Register(name string, factory func() (*Pack, error)) {
	mu.Lock()
	defer mu.Unlock()
	packs[name] = factory
}

// Load returns the registered pack with the given name.
func Load(name string) (*Pack, error) {
	mu.RLock()
	f, ok := packs[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPack, name)
	}
	return f()
}

// RegisteredPacks returns the sorted names of all registered packs.
func RegisteredPacks() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(packs))
	for name := range packs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve loads ref as a YAML file when it exists on disk, otherwise as a
// registered pack name.
func Resolve(ref string) (*Pack, error) {
	if _, err := os.Stat(ref); err == nil {
		return LoadFile(ref)
	}
	return Load(ref)
}
