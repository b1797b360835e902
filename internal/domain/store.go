package domain

import "context"

// Comparison operators accepted by store queries.
const (
	OpEqual        = "="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpNotEqual     = "!="
)

// Filter is a single field predicate in a store query.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Order is one sort key of a store query.
type Order struct {
	Field      string
	Descending bool
}

// Query describes a declarative query over one entity kind. The store
// requires that a field compared with an inequality operator, if any, is
// also the first sort key; the query composer enforces this before a
// query reaches the store.
type Query struct {
	Kind     string
	Ancestor *Key
	Filters  []Filter
	Orders   []Order
	Limit    int
}

// Tx is the view of the store available inside an atomic operation.
// Reads observe a consistent snapshot; writes become visible only when
// the enclosing RunAtomic commits.
type Tx interface {
	Get(ctx context.Context, key *Key, dst Entity) error
	Put(ctx context.Context, e Entity) error
}

// Store is the transactional entity store the engine is built on.
type Store interface {
	// Get fetches one entity by key into dst, or ErrNotFound.
	Get(ctx context.Context, key *Key, dst Entity) error
	// GetMulti fetches the entities for keys in order. newEntity allocates
	// the destination for each element. Any missing key is ErrNotFound.
	GetMulti(ctx context.Context, keys []*Key, newEntity func() Entity) ([]Entity, error)
	// Put writes one entity outside any atomic operation.
	Put(ctx context.Context, e Entity) error
	// AllocateID reserves a fresh identifier for a new entity of the given
	// kind under parent (nil for a root entity) and returns its key. The
	// identifier is never reused, even if the entity is never written.
	AllocateID(ctx context.Context, parent *Key, kind string) (*Key, error)
	// RunQuery executes a declarative query. newEntity allocates the
	// destination for each result row.
	RunQuery(ctx context.Context, q Query, newEntity func() Entity) ([]Entity, error)
	// RunAtomic runs fn atomically against the entity groups named by
	// roots; at least two independent groups per call are supported. On
	// commit conflict the whole fn is re-run against fresh data, a bounded
	// number of times, before surfacing a transient ErrConflict.
	RunAtomic(ctx context.Context, roots []*Key, fn func(tx Tx) error) error
}
