package object_store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/turbot/basic-cleaning/config"
)

// Factory is a global StoreFactory instance
var Factory = newFactory()

type StoreFactory struct {
	stores map[string]func() Store
}

func newFactory() StoreFactory {
	return StoreFactory{
		stores: make(map[string]func() Store),
	}
}

func (b *StoreFactory) RegisterStores(storeFuncs ...func() Store) {
	for _, ctor := range storeFuncs {
		// create an instance of the store to get the identifier
		s := ctor()
		b.stores[s.Identifier()] = ctor
	}
}

// GetStore attempts to instantiate a store, using the provided data
// It will fail if the requested store type is not registered
func (b *StoreFactory) GetStore(ctx context.Context, configData *config.Data) (Store, error) {
	ctor, ok := b.stores[configData.Type]
	if !ok {
		return nil, fmt.Errorf("store not registered: %s, must be one of %s", configData.Type, strings.Join(b.Identifiers(), ", "))
	}
	store := ctor()

	if err := store.Init(ctx, configData); err != nil {
		return nil, fmt.Errorf("failed to initialise %s store: %w", configData.Type, err)
	}
	return store, nil
}

// Identifiers returns the identifiers of all registered stores
func (b *StoreFactory) Identifiers() []string {
	res := make([]string, 0, len(b.stores))
	for k := range b.stores {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
