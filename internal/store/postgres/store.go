// Package postgres implements the entity store on a single Postgres table.
// Entities are documents: the ancestor path is the primary key, properties
// live in a JSONB column, and serializable transactions provide atomic
// commits spanning independent entity groups.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"confcentral/internal/domain"
)

// Fields stored as JSON arrays; an equality filter on them means
// membership, not whole-value comparison.
var arrayFields = map[string]bool{
	"topics": true,
}

// Fields compared and sorted numerically.
var numericFields = map[string]bool{
	"month":          true,
	"maxAttendees":   true,
	"seatsAvailable": true,
	"startTimeSlot":  true,
	"duration":       true,
}

const maxTxAttempts = 3

type Store struct {
	DB *sql.DB
}

// NewStore returns a domain.Store backed by the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// EnsureSchema creates the entities table and its indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			path  TEXT PRIMARY KEY,
			kind  TEXT NOT NULL,
			root  TEXT NOT NULL,
			props JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS entities_kind_idx ON entities (kind)`,
		`CREATE INDEX IF NOT EXISTS entities_root_idx ON entities (root)`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx so reads and writes
// share one implementation inside and outside atomic operations.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getEntity(ctx context.Context, q queryer, key *domain.Key, dst domain.Entity) error {
	var props []byte
	err := q.QueryRowContext(ctx, `SELECT props FROM entities WHERE path = $1`, key.Path()).Scan(&props)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, key.Path())
		}
		return fmt.Errorf("get %s: %w", key.Path(), err)
	}
	if err := json.Unmarshal(props, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key.Path(), err)
	}
	dst.SetEntityKey(key)
	return nil
}

func putEntity(ctx context.Context, q queryer, e domain.Entity) error {
	key := e.EntityKey()
	if key == nil {
		return fmt.Errorf("%w: entity has no key", domain.ErrBadRequest)
	}
	props, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key.Path(), err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO entities (path, kind, root, props)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (path) DO UPDATE SET props = EXCLUDED.props`,
		key.Path(), key.Kind, key.Root().Path(), props)
	if err != nil {
		return fmt.Errorf("put %s: %w", key.Path(), err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key *domain.Key, dst domain.Entity) error {
	return getEntity(ctx, s.DB, key, dst)
}

func (s *Store) Put(ctx context.Context, e domain.Entity) error {
	return putEntity(ctx, s.DB, e)
}

func (s *Store) GetMulti(ctx context.Context, keys []*domain.Key, newEntity func() domain.Entity) ([]domain.Entity, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	paths := make([]string, len(keys))
	for i, k := range keys {
		paths[i] = k.Path()
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT path, props FROM entities WHERE path = ANY($1)`, pq.Array(paths))
	if err != nil {
		return nil, fmt.Errorf("get multi: %w", err)
	}
	defer rows.Close()

	byPath := make(map[string][]byte, len(keys))
	for rows.Next() {
		var path string
		var props []byte
		if err := rows.Scan(&path, &props); err != nil {
			return nil, fmt.Errorf("get multi: %w", err)
		}
		byPath[path] = props
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get multi: %w", err)
	}

	out := make([]domain.Entity, len(keys))
	for i, key := range keys {
		props, ok := byPath[key.Path()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key.Path())
		}
		e := newEntity()
		if err := json.Unmarshal(props, e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key.Path(), err)
		}
		e.SetEntityKey(key)
		out[i] = e
	}
	return out, nil
}

// AllocateID reserves a unique identifier outside any transaction. A crash
// between allocation and commit leaves the identifier unused, never reused.
func (s *Store) AllocateID(_ context.Context, parent *domain.Key, kind string) (*domain.Key, error) {
	id := uuid.NewString()
	if parent == nil {
		return domain.NewKey(kind, id), nil
	}
	return domain.ChildKey(parent, kind, id), nil
}

func (s *Store) RunQuery(ctx context.Context, q domain.Query, newEntity func() domain.Entity) ([]domain.Entity, error) {
	stmt, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	var out []domain.Entity
	for rows.Next() {
		var path string
		var props []byte
		if err := rows.Scan(&path, &props); err != nil {
			return nil, fmt.Errorf("run query: %w", err)
		}
		key, err := decodePath(path)
		if err != nil {
			return nil, err
		}
		e := newEntity()
		if err := json.Unmarshal(props, e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		e.SetEntityKey(key)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	return out, nil
}

func buildQuery(q domain.Query) (string, []any, error) {
	var b strings.Builder
	b.WriteString(`SELECT path, props FROM entities WHERE kind = $1`)
	args := []any{q.Kind}

	if q.Ancestor != nil {
		args = append(args, q.Ancestor.Path()+"/%")
		fmt.Fprintf(&b, ` AND path LIKE $%d`, len(args))
	}
	for _, f := range q.Filters {
		op := f.Op
		if op == domain.OpNotEqual {
			op = "<>"
		}
		switch {
		case arrayFields[f.Field]:
			if f.Op != domain.OpEqual {
				return "", nil, fmt.Errorf("%w: %s only supports equality", domain.ErrInvalidFilter, f.Field)
			}
			args = append(args, f.Value)
			fmt.Fprintf(&b, ` AND props->'%s' ? $%d`, f.Field, len(args))
		case numericFields[f.Field]:
			args = append(args, f.Value)
			fmt.Fprintf(&b, ` AND (props->>'%s')::numeric %s $%d`, f.Field, op, len(args))
		default:
			args = append(args, f.Value)
			fmt.Fprintf(&b, ` AND props->>'%s' %s $%d`, f.Field, op, len(args))
		}
	}
	if len(q.Orders) > 0 {
		clauses := make([]string, len(q.Orders))
		for i, o := range q.Orders {
			expr := fmt.Sprintf(`props->>'%s'`, o.Field)
			if numericFields[o.Field] {
				expr = fmt.Sprintf(`(props->>'%s')::numeric`, o.Field)
			}
			dir := "ASC"
			if o.Descending {
				dir = "DESC"
			}
			clauses[i] = expr + " " + dir
		}
		b.WriteString(` ORDER BY ` + strings.Join(clauses, ", "))
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, ` LIMIT %d`, q.Limit)
	}
	return b.String(), args, nil
}

func decodePath(path string) (*domain.Key, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || len(parts)%2 != 0 {
		return nil, fmt.Errorf("malformed entity path %q", path)
	}
	var key *domain.Key
	for i := 0; i < len(parts); i += 2 {
		key = &domain.Key{Kind: parts[i], ID: parts[i+1], Parent: key}
	}
	return key, nil
}

type storeTx struct {
	tx *sql.Tx
}

func (t *storeTx) Get(ctx context.Context, key *domain.Key, dst domain.Entity) error {
	return getEntity(ctx, t.tx, key, dst)
}

func (t *storeTx) Put(ctx context.Context, e domain.Entity) error {
	return putEntity(ctx, t.tx, e)
}

// RunAtomic runs fn in a serializable transaction. The entity-group roots
// are locked in sorted order so concurrent operations over the same groups
// serialize instead of deadlocking. On serialization failure the whole fn
// is re-run so precondition checks see fresh data.
func (s *Store) RunAtomic(ctx context.Context, roots []*domain.Key, fn func(tx domain.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.runAtomicOnce(ctx, roots, fn)
		if !retryableTxError(err) {
			return err
		}
	}
	return fmt.Errorf("%w: operation kept conflicting with concurrent updates: %v", domain.ErrConflict, err)
}

func (s *Store) runAtomicOnce(ctx context.Context, roots []*domain.Key, fn func(tx domain.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin atomic: %w", err)
	}
	defer tx.Rollback()

	if len(roots) > 0 {
		paths := make([]string, len(roots))
		for i, r := range roots {
			paths[i] = r.Path()
		}
		sort.Strings(paths)
		if _, err := tx.ExecContext(ctx, `SELECT path FROM entities WHERE path = ANY($1) FOR UPDATE`, pq.Array(paths)); err != nil {
			return fmt.Errorf("lock entity groups: %w", err)
		}
	}

	if err := fn(&storeTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit atomic: %w", err)
	}
	return nil
}

func retryableTxError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure or deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
