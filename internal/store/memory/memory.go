// Package memory is an in-memory domain.Store with the same query
// semantics as the Postgres adapter, for tests and local development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"confcentral/internal/domain"
)

type entry struct {
	kind  string
	props []byte
}

type Store struct {
	mu       sync.Mutex
	entities map[string]entry
}

func NewStore() *Store {
	return &Store{entities: make(map[string]entry)}
}

func (s *Store) Get(ctx context.Context, key *domain.Key, dst domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(key, dst)
}

func (s *Store) get(key *domain.Key, dst domain.Entity) error {
	e, ok := s.entities[key.Path()]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, key.Path())
	}
	if err := json.Unmarshal(e.props, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key.Path(), err)
	}
	dst.SetEntityKey(key)
	return nil
}

func (s *Store) Put(ctx context.Context, e domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(e)
}

func (s *Store) put(e domain.Entity) error {
	key := e.EntityKey()
	if key == nil {
		return fmt.Errorf("%w: entity has no key", domain.ErrBadRequest)
	}
	props, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key.Path(), err)
	}
	s.entities[key.Path()] = entry{kind: key.Kind, props: props}
	return nil
}

func (s *Store) GetMulti(ctx context.Context, keys []*domain.Key, newEntity func() domain.Entity) ([]domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Entity, len(keys))
	for i, key := range keys {
		e := newEntity()
		if err := s.get(key, e); err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (s *Store) AllocateID(_ context.Context, parent *domain.Key, kind string) (*domain.Key, error) {
	id := uuid.NewString()
	if parent == nil {
		return domain.NewKey(kind, id), nil
	}
	return domain.ChildKey(parent, kind, id), nil
}

func (s *Store) RunQuery(ctx context.Context, q domain.Query, newEntity func() domain.Entity) ([]domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type row struct {
		path  string
		props map[string]any
		raw   []byte
	}
	var rows []row
	for path, e := range s.entities {
		if e.kind != q.Kind {
			continue
		}
		if q.Ancestor != nil && !strings.HasPrefix(path, q.Ancestor.Path()+"/") {
			continue
		}
		var props map[string]any
		if err := json.Unmarshal(e.props, &props); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if matchesAll(props, q.Filters) {
			rows = append(rows, row{path: path, props: props, raw: e.props})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range q.Orders {
			cmp := compareValues(rows[i].props[o.Field], rows[j].props[o.Field])
			if cmp == 0 {
				continue
			}
			if o.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return rows[i].path < rows[j].path
	})

	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]domain.Entity, 0, len(rows))
	for _, r := range rows {
		key, err := domain.DecodeKey(websafeFromPath(r.path))
		if err != nil {
			return nil, err
		}
		e := newEntity()
		if err := json.Unmarshal(r.raw, e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.path, err)
		}
		e.SetEntityKey(key)
		out = append(out, e)
	}
	return out, nil
}

func matchesAll(props map[string]any, filters []domain.Filter) bool {
	for _, f := range filters {
		if !matches(props[f.Field], f) {
			return false
		}
	}
	return true
}

func matches(have any, f domain.Filter) bool {
	// Equality on a list field means membership.
	if list, ok := have.([]any); ok && f.Op == domain.OpEqual {
		for _, item := range list {
			if compareValues(item, f.Value) == 0 {
				return true
			}
		}
		return false
	}
	cmp := compareValues(have, f.Value)
	switch f.Op {
	case domain.OpEqual:
		return cmp == 0
	case domain.OpNotEqual:
		return cmp != 0
	case domain.OpGreater:
		return cmp > 0
	case domain.OpGreaterEqual:
		return cmp >= 0
	case domain.OpLess:
		return cmp < 0
	case domain.OpLessEqual:
		return cmp <= 0
	}
	return false
}

// compareValues orders two property values, coercing numbers to float64
// since decoded JSON numbers arrive that way.
func compareValues(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa := fmt.Sprintf("%v", a)
	sb := fmt.Sprintf("%v", b)
	return strings.Compare(sa, sb)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// websafeFromPath rebuilds a key from its slash-separated path segments.
func websafeFromPath(path string) string {
	parts := strings.Split(path, "/")
	var k *domain.Key
	for i := 0; i+1 < len(parts); i += 2 {
		k = &domain.Key{Kind: parts[i], ID: parts[i+1], Parent: k}
	}
	return k.Websafe()
}

// memTx buffers writes so a failed atomic body leaves the store untouched.
type memTx struct {
	store   *Store
	pending []domain.Entity
}

func (t *memTx) Get(ctx context.Context, key *domain.Key, dst domain.Entity) error {
	for i := len(t.pending) - 1; i >= 0; i-- {
		if t.pending[i].EntityKey().Equal(key) {
			raw, err := json.Marshal(t.pending[i])
			if err != nil {
				return err
			}
			if err := json.Unmarshal(raw, dst); err != nil {
				return err
			}
			dst.SetEntityKey(key)
			return nil
		}
	}
	return t.store.get(key, dst)
}

func (t *memTx) Put(ctx context.Context, e domain.Entity) error {
	if e.EntityKey() == nil {
		return fmt.Errorf("%w: entity has no key", domain.ErrBadRequest)
	}
	t.pending = append(t.pending, e)
	return nil
}

// RunAtomic serializes all atomic operations behind the store lock, so the
// body always observes and commits against a consistent state.
func (s *Store) RunAtomic(ctx context.Context, roots []*domain.Key, fn func(tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	for _, e := range tx.pending {
		if err := s.put(e); err != nil {
			return err
		}
	}
	return nil
}
