package cascade

import (
	"context"
	"log/slog"
	"sync"

	"github.com/syssam/cascade/adapter"
	"github.com/syssam/cascade/dialect"
	"github.com/syssam/cascade/schema"
	"github.com/syssam/cascade/sqlgen"
)

// Session is the entry point of the persistence engine. It owns one pinned
// connection while open, the identity cache and the transaction state.
//
// Open and Close are reference counted: every public operation opens and
// closes the session around its own work, and lazy relationship handles do
// the same when they resolve, so a caller holding a reference keeps the
// connection and the cache alive across calls.
//
// A Session may be shared by goroutines only if they serialize their calls.
type Session struct {
	drv        dialect.Driver
	meta       schema.Metadata
	adapters   *adapter.Registry
	builder    *sqlgen.Builder
	mapper     *Mapper
	log        *slog.Logger
	cache      *IdentityCache
	autocommit bool
	dialect    string

	mu    sync.Mutex
	refs  int
	conn  dialect.Conn
	tx    dialect.Tx
	depth int
	// txRef is set when the outermost transaction holds the session
	// reference it was begun on.
	txRef bool
	// changes lists the cache and key effects of the open transaction;
	// marks[i] is where nesting level i+1 starts in it.
	changes []change
	marks   []int
}

// NewSession returns a closed session over drv for the types of meta.
func NewSession(drv dialect.Driver, meta schema.Metadata, opts ...Option) *Session {
	s := &Session{
		drv:        drv,
		meta:       meta,
		log:        slog.New(slog.DiscardHandler),
		autocommit: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.adapters == nil {
		s.adapters = adapter.New()
	}
	if s.cache == nil {
		s.cache = NewIdentityCache(DefaultCacheCapacity)
	}
	if s.dialect == "" {
		s.dialect = drv.Dialect()
	}
	s.builder = sqlgen.New(s.dialect, meta, s.adapters)
	s.mapper = NewMapper(meta, s.adapters)
	return s
}

// Dialect returns the SQL dialect statements are generated for.
func (s *Session) Dialect() string { return s.dialect }

// Metadata returns the metadata provider of the session.
func (s *Session) Metadata() schema.Metadata { return s.meta }

// Builder returns the SQL builder of the session.
func (s *Session) Builder() *sqlgen.Builder { return s.builder }

// Open acquires a reference on the session. The first reference pins a
// connection.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open(ctx)
}

func (s *Session) open(ctx context.Context) error {
	if s.refs == 0 {
		conn, err := s.drv.Conn(ctx)
		if err != nil {
			return err
		}
		s.conn = conn
	}
	s.refs++
	return nil
}

// Close releases a reference. Releasing the last one rolls back a dangling
// transaction, returns the connection and clears the identity cache.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.close()
}

func (s *Session) close() error {
	if s.refs == 0 {
		return nil
	}
	if s.refs--; s.refs > 0 {
		return nil
	}
	var err error
	if s.tx != nil {
		s.log.Warn("rolling back transaction left open on close", "depth", s.depth)
		s.revert(0)
		err = s.tx.Rollback()
		s.tx, s.depth, s.txRef = nil, 0, false
		s.changes, s.marks = nil, nil
	}
	err = joinClose(err, s.conn.Close())
	s.conn = nil
	s.cache.Clear()
	return err
}

// IsOpen reports if the session holds at least one reference.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs > 0
}

// with runs fn while holding a reference.
func (s *Session) with(ctx context.Context, fn func() error) (err error) {
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer func() { err = joinClose(err, s.Close()) }()
	return fn()
}

// exec returns the executor statements run on: the open transaction if
// any, the pinned connection otherwise.
func (s *Session) exec() dialect.ExecQuerier {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.logged(s.tx)
	}
	return s.logged(s.conn)
}

func (s *Session) logged(eq dialect.ExecQuerier) dialect.ExecQuerier {
	return loggedExec{ExecQuerier: eq, log: s.log}
}

// query runs a SELECT and materializes its rows, so that relationship
// queries may run while the result is processed.
func (s *Session) query(ctx context.Context, query string) ([]dialect.Row, error) {
	rows, err := s.exec().Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return dialect.ScanAll(rows)
}

// count runs a COUNT query.
func (s *Session) count(ctx context.Context, query string) (int64, error) {
	rows, err := s.query(ctx, query)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	for _, v := range rows[0] {
		n, err := s.adapters.FromStorage("int64", v)
		if err != nil || n == nil {
			return 0, err
		}
		return n.(int64), nil
	}
	return 0, nil
}

// Execute runs a raw statement and returns the number of affected rows.
func (s *Session) Execute(ctx context.Context, query string) (n int64, err error) {
	err = s.with(ctx, func() error {
		n, err = s.exec().Execute(ctx, query)
		return err
	})
	return n, err
}

// CreateTables creates the tables of all registered types, then their join
// tables.
func (s *Session) CreateTables(ctx context.Context) error {
	create, _, err := s.builder.SchemaDDL()
	if err != nil {
		return err
	}
	return s.run(ctx, create)
}

// DropTables drops the join tables and the tables of all registered types,
// in reverse creation order.
func (s *Session) DropTables(ctx context.Context) error {
	_, drop, err := s.builder.SchemaDDL()
	if err != nil {
		return err
	}
	return s.run(ctx, drop)
}

func (s *Session) run(ctx context.Context, stmts []string) error {
	return s.with(ctx, func() error {
		for _, stmt := range stmts {
			if _, err := s.exec().Execute(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// RegisterTypeAdapter sets the adapter of goType, replacing the previous one.
func (s *Session) RegisterTypeAdapter(goType string, a *adapter.Adapter) {
	s.adapters.Register(goType, a)
}

// Identity returns the identity of e.
func (s *Session) Identity(e schema.Entity) (schema.Identity, error) {
	return s.mapper.Identity(e)
}

// Cache stores e under id. It returns false once the cache is full.
func (s *Session) Cache(id schema.Identity, e schema.Entity) bool {
	return s.cache.Put(id, e)
}

// CheckCache reports if an entity is cached under id.
func (s *Session) CheckCache(id schema.Identity) bool {
	return s.cache.Contains(id)
}

// SearchCache returns the entity cached under id.
func (s *Session) SearchCache(id schema.Identity) (schema.Entity, bool) {
	return s.cache.Get(id)
}

// ClearCache empties the identity cache.
func (s *Session) ClearCache() {
	s.cache.Clear()
}

// remember caches e, clearing the whole cache first if it is full.
func (s *Session) remember(id schema.Identity, e schema.Entity) {
	s.track(change{id: id})
	if s.cache.Put(id, e) {
		return
	}
	s.log.Warn("identity cache full, clearing", "capacity", s.cache.Capacity(), "identity", id.String())
	s.cache.Clear()
	s.cache.Put(id, e)
}

// Load returns the entity of typ with primary key id, from the identity
// cache if present.
func (s *Session) Load(ctx context.Context, typ string, id any) (e schema.Entity, err error) {
	err = s.with(ctx, func() error {
		table, err := s.meta.TableName(typ)
		if err != nil {
			return err
		}
		if c, ok := s.cache.Get(schema.NewIdentity(table, id)); ok {
			e = c
			return nil
		}
		query, err := s.builder.SelectByKeyQuery(typ, id)
		if err != nil {
			return err
		}
		rows, err := s.query(ctx, query)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return NewNotFoundError(typ, id)
		}
		e, err = s.newLoader().fromRow(ctx, typ, rows[0])
		return err
	})
	if err != nil {
		return nil, &QueryError{Entity: typ, Op: "load", Err: err}
	}
	return e, nil
}

// loggedExec logs every statement at debug level.
type loggedExec struct {
	dialect.ExecQuerier
	log *slog.Logger
}

func (l loggedExec) Execute(ctx context.Context, query string) (int64, error) {
	l.log.DebugContext(ctx, "execute", "sql", query)
	return l.ExecQuerier.Execute(ctx, query)
}

func (l loggedExec) Query(ctx context.Context, query string) (dialect.Rows, error) {
	l.log.DebugContext(ctx, "query", "sql", query)
	return l.ExecQuerier.Query(ctx, query)
}

func (l loggedExec) Insert(ctx context.Context, table string, values []dialect.Value, idColumn string) (int64, error) {
	l.log.DebugContext(ctx, "insert", "table", table, "columns", columnNames(values))
	return l.ExecQuerier.Insert(ctx, table, values, idColumn)
}

func (l loggedExec) Update(ctx context.Context, table string, values []dialect.Value, where string) (int64, error) {
	l.log.DebugContext(ctx, "update", "table", table, "columns", columnNames(values), "where", where)
	return l.ExecQuerier.Update(ctx, table, values, where)
}

func (l loggedExec) Delete(ctx context.Context, table, where string) (int64, error) {
	l.log.DebugContext(ctx, "delete", "table", table, "where", where)
	return l.ExecQuerier.Delete(ctx, table, where)
}

func columnNames(values []dialect.Value) []string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.Column
	}
	return names
}
