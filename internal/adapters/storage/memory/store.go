package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pill-tracker/internal/ports/docstore"
)

type store struct {
	mu   sync.RWMutex
	cols map[string]map[string]map[string]any
}

// NewStore crea un document store en memoria (modo dev y tests).
func NewStore() docstore.Store {
	return &store{
		cols: make(map[string]map[string]map[string]any),
	}
}

func (s *store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.cols[collection][id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, Data: copyMap(data)}, nil
}

func (s *store) Find(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]docstore.Document, 0)
	for id, data := range s.cols[collection] {
		if !docstore.Matches(data, filters) {
			continue
		}
		out = append(out, docstore.Document{ID: id, Data: copyMap(data)})
	}

	// Orden estable por id (los maps no tienen orden).
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *store) Create(ctx context.Context, collection, id string, data map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("document id required")
	}
	norm, err := docstore.Normalize(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.cols[collection]
	if !ok {
		col = make(map[string]map[string]any)
		s.cols[collection] = col
	}
	if _, exists := col[id]; exists {
		return docstore.ErrAlreadyExists
	}
	col[id] = norm
	return nil
}

func (s *store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("document id required")
	}
	norm, err := docstore.Normalize(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.cols[collection]
	if !ok {
		col = make(map[string]map[string]any)
		s.cols[collection] = col
	}
	col[id] = norm
	return nil
}

func (s *store) Update(ctx context.Context, collection, id string, fields map[string]any, conds ...docstore.Precondition) error {
	norm, err := docstore.Normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.cols[collection][id]
	if !ok {
		return docstore.ErrNotFound
	}
	if !docstore.Satisfies(current, conds) {
		return docstore.ErrPreconditionFailed
	}
	s.cols[collection][id] = docstore.Merge(current, norm)
	return nil
}

func (s *store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cols[collection][id]; !ok {
		return docstore.ErrNotFound
	}
	delete(s.cols[collection], id)
	return nil
}

func (s *store) Close() error { return nil }

// copyMap evita que el caller mute el estado interno (copia superficial alcanza:
// los documentos del dominio no anidan maps).
func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
