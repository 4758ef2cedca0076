package sqlgen_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cascade/adapter"
	"github.com/syssam/cascade/criterion"
	"github.com/syssam/cascade/dialect"
	"github.com/syssam/cascade/schema"
	"github.com/syssam/cascade/schema/edge"
	"github.com/syssam/cascade/schema/index"
	"github.com/syssam/cascade/sqlgen"
)

const customerID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

func registry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(
		schema.Define("Order").
			Cascade(schema.CascadeAll).
			Fields(
				schema.Int64("id").PrimaryKey().AutoIncrement(),
				schema.Float64("total"),
				schema.Of("note", "*string"),
				edge.OneToMany("items", "LineItem").Ref("order"),
				edge.ManyToOne("customer", "Customer"),
			),
		schema.Define("LineItem").
			Fields(
				schema.Int64("id").PrimaryKey().AutoIncrement(),
				schema.String("sku").Unique(),
				schema.Int("qty"),
				edge.ManyToOne("order", "Order"),
			),
		schema.Define("Customer").
			Fields(
				schema.UUID("id").PrimaryKey(),
				schema.String("name"),
			),
		schema.Define("Post").
			Fields(
				schema.Int64("id").PrimaryKey().AutoIncrement(),
				schema.String("title"),
				edge.ManyToMany("tags", "Tag"),
			),
		schema.Define("Tag").
			Fields(
				schema.Int64("id").PrimaryKey().AutoIncrement(),
				schema.String("name"),
				edge.ManyToMany("posts", "Post").Inverse().Ref("tags"),
			),
		schema.Define("Person").
			Fields(
				schema.Int64("id").PrimaryKey().AutoIncrement(),
				schema.String("name"),
				edge.OneToOne("passport", "Passport").Owner("Passport"),
			),
		schema.Define("Passport").
			Fields(
				schema.Int64("id").PrimaryKey().AutoIncrement(),
				schema.String("number"),
				edge.OneToOne("holder", "Person").Ref("passport"),
			),
	)
	require.NoError(t, err)
	return reg
}

func TestCreateTableDDL(t *testing.T) {
	t.Parallel()
	reg := registry(t)

	tests := []struct {
		dialect string
		typ     string
		want    string
	}{
		{dialect.SQLite, "Order", "CREATE TABLE IF NOT EXISTS orders (id INTEGER PRIMARY KEY AUTOINCREMENT, total REAL NOT NULL, note TEXT, customer_id TEXT)"},
		{dialect.SQLite, "LineItem", "CREATE TABLE IF NOT EXISTS line_items (id INTEGER PRIMARY KEY AUTOINCREMENT, sku TEXT NOT NULL UNIQUE, qty INTEGER NOT NULL, order_id INTEGER)"},
		{dialect.SQLite, "Customer", "CREATE TABLE IF NOT EXISTS customers (id TEXT PRIMARY KEY, name TEXT NOT NULL)"},
		{dialect.SQLite, "Person", "CREATE TABLE IF NOT EXISTS people (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)"},
		{dialect.SQLite, "Passport", "CREATE TABLE IF NOT EXISTS passports (id INTEGER PRIMARY KEY AUTOINCREMENT, number TEXT NOT NULL, person_id INTEGER)"},
		{dialect.Postgres, "Order", "CREATE TABLE IF NOT EXISTS orders (id BIGSERIAL PRIMARY KEY, total DOUBLE PRECISION NOT NULL, note TEXT, customer_id TEXT)"},
		{dialect.MySQL, "Customer", "CREATE TABLE IF NOT EXISTS customers (id VARCHAR(255) PRIMARY KEY, name TEXT NOT NULL)"},
		{dialect.MySQL, "LineItem", "CREATE TABLE IF NOT EXISTS line_items (id BIGINT AUTO_INCREMENT PRIMARY KEY, sku VARCHAR(255) NOT NULL UNIQUE, qty BIGINT NOT NULL, order_id BIGINT)"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.typ, func(t *testing.T) {
			got, err := sqlgen.New(tt.dialect, reg, nil).CreateTableDDL(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinTableDDL(t *testing.T) {
	t.Parallel()
	b := sqlgen.New(dialect.SQLite, registry(t), nil)

	want := "CREATE TABLE IF NOT EXISTS posts_tags (posts_id_1 INTEGER NOT NULL, tags_id_2 INTEGER NOT NULL, PRIMARY KEY (posts_id_1, tags_id_2))"
	for _, side := range [][2]string{{"Post", "tags"}, {"Tag", "posts"}} {
		got, err := b.CreateJoinTableDDL(side[0], side[1])
		require.NoError(t, err)
		assert.Equal(t, want, got)
		got, err = b.DropJoinTableDDL(side[0], side[1])
		require.NoError(t, err)
		assert.Equal(t, "DROP TABLE IF EXISTS posts_tags", got)
	}

	jt, err := b.JoinTable("Tag", "posts")
	require.NoError(t, err)
	assert.Equal(t, "tags_id_2", jt.Self)
	assert.Equal(t, "posts_id_1", jt.Other)
	require.NotNil(t, jt.Relation)
	assert.Equal(t, "Post", jt.Relation.Target)

	_, err = b.JoinTable("Order", "items")
	require.True(t, schema.IsConfigError(err))
}

func TestSchemaDDL(t *testing.T) {
	t.Parallel()
	create, drop, err := sqlgen.New(dialect.SQLite, registry(t), nil).SchemaDDL()
	require.NoError(t, err)
	require.Len(t, create, 8)
	assert.Contains(t, create[7], "posts_tags")
	assert.Equal(t, []string{
		"DROP TABLE IF EXISTS passports",
		"DROP TABLE IF EXISTS people",
		"DROP TABLE IF EXISTS tags",
		"DROP TABLE IF EXISTS posts_tags",
		"DROP TABLE IF EXISTS posts",
		"DROP TABLE IF EXISTS customers",
		"DROP TABLE IF EXISTS line_items",
		"DROP TABLE IF EXISTS orders",
	}, drop)
}

func TestSelectQuery(t *testing.T) {
	t.Parallel()
	reg := registry(t)

	tests := []struct {
		name    string
		dialect string
		query   sqlgen.Query
		want    string
	}{
		{
			name:  "all",
			query: sqlgen.Query{Type: "Order"},
			want:  "SELECT * FROM orders",
		},
		{
			name:  "limit_offset",
			query: sqlgen.Query{Type: "Order", Where: []criterion.Criterion{criterion.Eq("total", 1)}, Limit: 10, Offset: 5},
			want:  "SELECT * FROM orders WHERE total = 1 LIMIT 10 OFFSET 5",
		},
		{
			name:  "offset_without_limit",
			query: sqlgen.Query{Type: "Order", Offset: 5},
			want:  "SELECT * FROM orders LIMIT -1 OFFSET 5",
		},
		{
			name:    "offset_without_limit_postgres",
			dialect: dialect.Postgres,
			query:   sqlgen.Query{Type: "Order", Offset: 5},
			want:    "SELECT * FROM orders LIMIT ALL OFFSET 5",
		},
		{
			name:  "quoted_text",
			query: sqlgen.Query{Type: "LineItem", Where: []criterion.Criterion{criterion.Eq("sku", "it's"), criterion.Gt("qty", 2)}},
			want:  "SELECT * FROM line_items WHERE sku = 'it''s' AND qty > 2",
		},
		{
			name: "nested",
			query: sqlgen.Query{Type: "Order", Where: []criterion.Criterion{
				criterion.Or(criterion.Gt("total", 10.5), criterion.And(criterion.IsNull("note"), criterion.Not(criterion.Like("note", "%x%")))),
				criterion.Eq("customer", customerID),
			}},
			want: "SELECT * FROM orders WHERE (total > 10.5 OR (note IS NULL AND NOT (note LIKE '%x%'))) AND customer_id = '" + customerID + "'",
		},
		{
			name:  "order",
			query: sqlgen.Query{Type: "Order", Order: []criterion.Order{criterion.Desc("total"), criterion.Asc("note").CaseInsensitive()}},
			want:  "SELECT * FROM orders ORDER BY total DESC, note COLLATE NOCASE ASC",
		},
		{
			name:    "order_fold_postgres",
			dialect: dialect.Postgres,
			query:   sqlgen.Query{Type: "Order", Order: []criterion.Order{criterion.Asc("note").CaseInsensitive()}},
			want:    "SELECT * FROM orders ORDER BY LOWER(note) ASC",
		},
		{
			name:  "fold",
			query: sqlgen.Query{Type: "LineItem", Where: []criterion.Criterion{criterion.EqFold("sku", "AB")}},
			want:  "SELECT * FROM line_items WHERE sku = 'AB' COLLATE NOCASE",
		},
		{
			name:    "fold_mysql",
			dialect: dialect.MySQL,
			query:   sqlgen.Query{Type: "LineItem", Where: []criterion.Criterion{criterion.EqFold("sku", `a\b`)}},
			want:    `SELECT * FROM line_items WHERE LOWER(sku) = LOWER('a\\b')`,
		},
		{
			name:  "in_between",
			query: sqlgen.Query{Type: "LineItem", Where: []criterion.Criterion{criterion.In("qty", 1, 2), criterion.Between("id", 3, 9)}},
			want:  "SELECT * FROM line_items WHERE qty IN (1, 2) AND id BETWEEN 3 AND 9",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := tt.dialect
			if name == "" {
				name = dialect.SQLite
			}
			b := sqlgen.New(name, reg, nil)
			got, err := b.SelectQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			again, err := b.SelectQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestCountQuery(t *testing.T) {
	t.Parallel()
	b := sqlgen.New(dialect.SQLite, registry(t), nil)
	got, err := b.CountQuery(sqlgen.Query{
		Type:  "Order",
		Where: []criterion.Criterion{criterion.Gt("total", 1.5)},
		Order: []criterion.Order{criterion.Desc("total")},
		Limit: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM orders WHERE total > 1.5", got)
}

func TestInvalidCriteria(t *testing.T) {
	t.Parallel()
	b := sqlgen.New(dialect.SQLite, registry(t), nil)
	for _, q := range []sqlgen.Query{
		{Type: "Order", Where: []criterion.Criterion{criterion.Eq("missing", 1)}},
		{Type: "Order", Where: []criterion.Criterion{criterion.Eq("items", 1)}},
		{Type: "Order", Order: []criterion.Order{criterion.Asc("missing")}},
	} {
		_, err := b.SelectQuery(q)
		require.Error(t, err)
		assert.True(t, criterion.IsUnknownField(err))
		_, err = b.CountQuery(q)
		require.Error(t, err)
		assert.True(t, criterion.IsUnknownField(err))
	}
	_, err := b.SelectQuery(sqlgen.Query{Type: "Unknown"})
	assert.True(t, schema.IsConfigError(err))
	_, err = b.SelectQuery(sqlgen.Query{Type: "Order", Where: []criterion.Criterion{criterion.Eq("customer", "not-a-uuid")}})
	assert.True(t, adapter.IsMappingError(err))
}

func TestRelationQueries(t *testing.T) {
	t.Parallel()
	b := sqlgen.New(dialect.SQLite, registry(t), nil)

	tests := []struct {
		name string
		gen  func() (string, error)
		want string
	}{
		{
			name: "select_by_key",
			gen:  func() (string, error) { return b.SelectByKeyQuery("Order", int64(3)) },
			want: "SELECT * FROM orders WHERE id = 3 LIMIT 1",
		},
		{
			name: "select_by_uuid_key",
			gen:  func() (string, error) { return b.SelectByKeyQuery("Customer", uuid.MustParse(customerID)) },
			want: "SELECT * FROM customers WHERE id = '" + customerID + "' LIMIT 1",
		},
		{
			name: "select_by_column",
			gen:  func() (string, error) { return b.SelectByColumnQuery("LineItem", "order_id", "Order", int64(3), 0) },
			want: "SELECT * FROM line_items WHERE order_id = 3 ORDER BY id ASC",
		},
		{
			name: "select_by_column_single",
			gen:  func() (string, error) { return b.SelectByColumnQuery("Passport", "person_id", "Person", int64(1), 1) },
			want: "SELECT * FROM passports WHERE person_id = 1 ORDER BY id ASC LIMIT 1",
		},
		{
			name: "many_to_many_join",
			gen:  func() (string, error) { return b.ManyToManyJoinQuery("Post", "tags", int64(1)) },
			want: "SELECT t.* FROM tags AS t INNER JOIN posts_tags AS j ON j.tags_id_2 = t.id INNER JOIN posts AS o ON o.id = j.posts_id_1 WHERE o.id = 1 ORDER BY t.id ASC",
		},
		{
			name: "many_to_many_join_inverse",
			gen:  func() (string, error) { return b.ManyToManyJoinQuery("Tag", "posts", int64(2)) },
			want: "SELECT t.* FROM posts AS t INNER JOIN posts_tags AS j ON j.posts_id_1 = t.id INNER JOIN tags AS o ON o.id = j.tags_id_2 WHERE o.id = 2 ORDER BY t.id ASC",
		},
		{
			name: "join_row_exists",
			gen:  func() (string, error) { return b.JoinRowExistsQuery("Post", "tags", int64(1), int64(2)) },
			want: "SELECT COUNT(*) FROM posts_tags WHERE posts_id_1 = 1 AND tags_id_2 = 2",
		},
		{
			name: "delete_stale_join_rows",
			gen: func() (string, error) {
				return b.DeleteStaleJoinRowsQuery("Post", "tags", int64(1), []any{int64(2), int64(4)})
			},
			want: "DELETE FROM posts_tags WHERE posts_id_1 = 1 AND tags_id_2 NOT IN (2, 4)",
		},
		{
			name: "delete_stale_join_rows_empty",
			gen:  func() (string, error) { return b.DeleteStaleJoinRowsQuery("Post", "tags", int64(1), nil) },
			want: "DELETE FROM posts_tags WHERE posts_id_1 = 1",
		},
		{
			name: "delete_join_rows_inverse",
			gen:  func() (string, error) { return b.DeleteJoinRowsQuery("Tag", "posts", int64(2)) },
			want: "DELETE FROM posts_tags WHERE tags_id_2 = 2",
		},
		{
			name: "update_many_to_one",
			gen:  func() (string, error) { return b.UpdateForeignKeyQuery("LineItem", "order", int64(5), int64(3)) },
			want: "UPDATE line_items SET order_id = 3 WHERE id = 5",
		},
		{
			name: "update_one_to_many",
			gen:  func() (string, error) { return b.UpdateForeignKeyQuery("Order", "items", int64(3), int64(5)) },
			want: "UPDATE line_items SET order_id = 3 WHERE id = 5",
		},
		{
			name: "update_many_to_one_null",
			gen:  func() (string, error) { return b.UpdateForeignKeyQuery("LineItem", "order", int64(5), nil) },
			want: "UPDATE line_items SET order_id = NULL WHERE id = 5",
		},
		{
			name: "update_one_to_one",
			gen:  func() (string, error) { return b.UpdateOneToOneForeignKeyQuery("Person", "passport", int64(1), int64(7)) },
			want: "UPDATE passports SET person_id = CASE WHEN id = 7 THEN 1 ELSE NULL END WHERE id = 7 OR person_id = 1",
		},
		{
			name: "update_one_to_one_owner",
			gen:  func() (string, error) { return b.UpdateOneToOneForeignKeyQuery("Passport", "holder", int64(7), int64(1)) },
			want: "UPDATE passports SET person_id = CASE WHEN id = 7 THEN 1 ELSE NULL END WHERE id = 7 OR person_id = 1",
		},
		{
			name: "clear_one_to_one",
			gen:  func() (string, error) { return b.ClearForeignKeyQuery("Person", "passport", int64(1)) },
			want: "UPDATE passports SET person_id = NULL WHERE person_id = 1",
		},
		{
			name: "clear_one_to_one_owner",
			gen:  func() (string, error) { return b.ClearForeignKeyQuery("Passport", "holder", int64(7)) },
			want: "UPDATE passports SET person_id = NULL WHERE id = 7",
		},
		{
			name: "detach_stale_children",
			gen: func() (string, error) {
				return b.DetachStaleChildrenQuery("Order", "items", int64(3), []any{int64(5), int64(6)})
			},
			want: "UPDATE line_items SET order_id = NULL WHERE order_id = 3 AND id NOT IN (5, 6)",
		},
		{
			name: "detach_all_children",
			gen:  func() (string, error) { return b.DetachStaleChildrenQuery("Order", "items", int64(3), nil) },
			want: "UPDATE line_items SET order_id = NULL WHERE order_id = 3",
		},
		{
			name: "update_single_column",
			gen:  func() (string, error) { return b.UpdateSingleColumnQuery("Order", int64(3), "note", "'x'") },
			want: "UPDATE orders SET note = 'x' WHERE id = 3",
		},
		{
			name: "key_predicate",
			gen:  func() (string, error) { return b.KeyPredicate("Order", 3) },
			want: "id = 3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.gen()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := b.UpdateForeignKeyQuery("Post", "tags", int64(1), int64(2))
	assert.True(t, schema.IsConfigError(err))
	_, err = b.UpdateOneToOneForeignKeyQuery("Order", "items", int64(1), int64(2))
	assert.True(t, schema.IsConfigError(err))
	_, err = b.DetachStaleChildrenQuery("LineItem", "order", int64(1), nil)
	assert.True(t, schema.IsConfigError(err))
	_, err = b.JoinRowExistsQuery("Post", "title", int64(1), int64(2))
	assert.True(t, schema.IsConfigError(err))
}

func TestLiteral(t *testing.T) {
	t.Parallel()
	reg := registry(t)
	sqlite := sqlgen.New(dialect.SQLite, reg, nil)
	pg := sqlgen.New(dialect.Postgres, reg, nil)

	assert.Equal(t, "NULL", sqlite.Literal(nil, 0))
	assert.Equal(t, "X'01ff'", sqlite.Literal([]byte{0x01, 0xff}, 4))
	assert.Equal(t, `'\x01ff'`, pg.Literal([]byte{0x01, 0xff}, 4))

	lit, err := sqlite.ValueLiteral("bool", true)
	require.NoError(t, err)
	assert.Equal(t, "1", lit)
	lit, err = sqlite.ValueLiteral("*string", (*string)(nil))
	require.NoError(t, err)
	assert.Equal(t, "NULL", lit)
	lit, err = sqlite.ValueLiteral("float64", 2.25)
	require.NoError(t, err)
	assert.Equal(t, "2.25", lit)
	lit, err = sqlite.ValueLiteral("int32", int32(-4))
	require.NoError(t, err)
	assert.Equal(t, "-4", lit)

	// The column's storage class decides quoting, not the value's type.
	lit, err = sqlite.ValueLiteral("string", 42)
	require.NoError(t, err)
	assert.Equal(t, "'42'", lit)

	_, err = sqlite.ValueLiteral("geom.Point", 1)
	assert.True(t, adapter.IsMappingError(err))
}

func TestCustomAdapter(t *testing.T) {
	t.Parallel()
	reg, err := schema.NewRegistry(schema.Define("Shape").Fields(
		schema.Int64("id").PrimaryKey(),
		schema.Of("center", "geom.Point"),
	))
	require.NoError(t, err)

	b := sqlgen.New(dialect.SQLite, reg, nil)
	_, err = b.CreateTableDDL("Shape")
	require.Error(t, err)
	assert.True(t, adapter.IsMappingError(err))

	adapters := adapter.New()
	adapters.Register("geom.Point", adapter.Msgpack[[2]float64]())
	got, err := sqlgen.New(dialect.SQLite, reg, adapters).CreateTableDDL("Shape")
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS shapes (id INTEGER PRIMARY KEY, center BLOB NOT NULL)", got)
}

func TestIndexDDL(t *testing.T) {
	t.Parallel()
	reg, err := schema.NewRegistry(schema.Define("Customer").
		Fields(
			schema.Int64("id").PrimaryKey(),
			schema.String("first_name"),
			schema.String("last_name"),
			schema.String("email").Column("mail"),
		).
		Indexes(
			index.Fields("last_name", "first_name"),
			index.Fields("email").Unique().StorageKey("customers_email"),
		))
	require.NoError(t, err)

	t.Run("SQLite", func(t *testing.T) {
		create, drop, err := sqlgen.New(dialect.SQLite, reg, nil).SchemaDDL()
		require.NoError(t, err)
		want := []string{
			"CREATE TABLE IF NOT EXISTS customers (id INTEGER PRIMARY KEY, first_name TEXT NOT NULL, last_name TEXT NOT NULL, mail TEXT NOT NULL)",
			"CREATE INDEX IF NOT EXISTS customers_last_name_first_name_idx ON customers (last_name, first_name)",
			"CREATE UNIQUE INDEX IF NOT EXISTS customers_email ON customers (mail)",
		}
		if diff := cmp.Diff(want, create); diff != "" {
			t.Errorf("SchemaDDL() create mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, []string{"DROP TABLE IF EXISTS customers"}, drop)
	})

	t.Run("MySQL", func(t *testing.T) {
		b := sqlgen.New(dialect.MySQL, reg, nil)
		got, err := b.CreateTableDDL("Customer")
		require.NoError(t, err)
		assert.Equal(t, "CREATE TABLE IF NOT EXISTS customers (id BIGINT PRIMARY KEY, first_name VARCHAR(255) NOT NULL, last_name VARCHAR(255) NOT NULL, mail VARCHAR(255) NOT NULL, "+
			"INDEX customers_last_name_first_name_idx (last_name, first_name), UNIQUE INDEX customers_email (mail))", got)
		stmts, err := b.CreateIndexDDL("Customer")
		require.NoError(t, err)
		assert.Empty(t, stmts)
	})
}
