package chat

import (
	"context"
	"fmt"
	"sync/atomic"

	"health-chatbot/internal/chatbot"
)

// DiseaseSource supplies the reference records a catalog is built from.
type DiseaseSource interface {
	ListDiseases(ctx context.Context) ([]chatbot.DiseaseRecord, error)
}

// CatalogStore hands out immutable catalog snapshots. Reload builds a fresh
// catalog and swaps it in whole, so callers holding the previous snapshot are
// unaffected.
type CatalogStore struct {
	src     DiseaseSource
	current atomic.Pointer[chatbot.Catalog]
}

func NewCatalogStore(src DiseaseSource) *CatalogStore {
	s := &CatalogStore{src: src}
	s.current.Store(chatbot.NewCatalog(nil))
	return s
}

// Snapshot returns the catalog in effect now.
func (s *CatalogStore) Snapshot() *chatbot.Catalog {
	return s.current.Load()
}

func (s *CatalogStore) Reload(ctx context.Context) (*chatbot.Catalog, error) {
	records, err := s.src.ListDiseases(ctx)
	if err != nil {
		return nil, fmt.Errorf("reload catalog: %w", err)
	}

	c := chatbot.NewCatalog(records)
	s.current.Store(c)
	return c, nil
}
