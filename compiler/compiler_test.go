package compiler_test

import (
	"context"
	"errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cascade/compiler"
	"github.com/syssam/cascade/schema"
)

const shop = `
package: shop
types:
  - name: Order
    cascade: all
    fields:
      - {name: id, type: int64, pk: true, auto_increment: true}
      - {name: total, type: float64}
      - {name: note, type: "*string"}
      - {name: shipped_at, type: sql.NullTime}
      - {name: items, relation: one_to_many, target: LineItem, ref: order}
      - {name: customer, relation: many_to_one, target: Customer}
  - name: LineItem
    fields:
      - {name: id, type: int64, pk: true, auto_increment: true}
      - {name: sku, type: string, unique: true}
      - {name: qty, type: int}
      - {name: order, relation: many_to_one, target: Order}
  - name: Customer
    table: clients
    lazy: true
    fields:
      - {name: id, type: uuid.UUID, pk: true}
      - {name: name, type: string, column: full_name}
      - {name: tags, type: "[]string"}
    indexes:
      - {fields: [name], unique: true, name: clients_name}
`

func document(t *testing.T, src string) *schema.Document {
	t.Helper()
	doc, err := schema.ReadDocument(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), path, data, parser.AllErrors)
	require.NoError(t, err, "generated file must parse")
	return string(data)
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	g, err := compiler.New(document(t, shop), compiler.WithTarget(dir), compiler.WithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, "shop", g.Package())
	require.NoError(t, g.Generate(context.Background()))

	m := g.Metrics()
	assert.Equal(t, 4, m.FilesGenerated)
	assert.Positive(t, m.TotalBytes)

	t.Run("Entity", func(t *testing.T) {
		src := readFile(t, filepath.Join(dir, "order.go"))
		for _, want := range []string{
			"// Code generated by cascade. DO NOT EDIT.",
			"package shop",
			`"github.com/syssam/cascade/lazy"`,
			"// Order is the entity stored in table orders.",
			"lazy.Many[LineItem]",
			"lazy.One[Customer]",
			"sql.NullTime",
			"func (*Order) EntityName() string",
			`return "Order"`,
			"func (o *Order) Get(field string) any",
			"return &o.Items",
			"return o.ShippedAt",
			"func (o *Order) Set(field string, value any) error",
			"o.Note = &v",
			"v, ok := value.(time.Time)",
			`return fmt.Errorf("Order has no field %q", field)`,
		} {
			assert.Contains(t, src, want)
		}
		assert.NotContains(t, src, `case "items":`+"\n\t\tv, ok")
	})

	t.Run("Names", func(t *testing.T) {
		src := readFile(t, filepath.Join(dir, "line_item.go"))
		assert.Contains(t, src, "func (l *LineItem) Get(field string) any")
		assert.Contains(t, src, "l.SKU = v")
		src = readFile(t, filepath.Join(dir, "customer.go"))
		assert.Contains(t, src, "// Customer is the entity stored in table clients.")
		assert.Contains(t, src, `"github.com/google/uuid"`)
		assert.Contains(t, src, "v, ok := value.([]string)")
	})

	t.Run("Registry", func(t *testing.T) {
		src := readFile(t, filepath.Join(dir, "schema.go"))
		for _, want := range []string{
			"func Registry() (*schema.Registry, error)",
			`schema.Define("Order")`,
			".Cascade(schema.CascadeAll)",
			`schema.Of("id", "int64").PrimaryKey().AutoIncrement()`,
			`schema.Of("note", "*string")`,
			`edge.OneToMany("items", "LineItem").Ref("order")`,
			`edge.ManyToOne("customer", "Customer")`,
			`schema.Of("sku", "string").Unique()`,
			`schema.Define("Customer").Table("clients").Lazy()`,
			`schema.Of("name", "string").Column("full_name")`,
			"return &Customer{}",
			`index.Fields("name").Unique().StorageKey("clients_name")`,
		} {
			assert.Contains(t, src, want)
		}
		assert.NotContains(t, src, "CascadeNone")
	})
}

func TestGenerateImports(t *testing.T) {
	const src = `
types:
  - name: Invoice
    fields:
      - {name: id, type: int64, pk: true}
      - {name: amount, type: money.Amount}
`
	dir := filepath.Join(t.TempDir(), "billing")
	ctx := context.Background()

	err := compiler.Generate(ctx, document(t, src), compiler.WithTarget(dir))
	require.Error(t, err)
	assert.True(t, compiler.IsSchemaError(err))
	assert.Contains(t, err.Error(), `unknown package "money"`)

	require.NoError(t, compiler.Generate(ctx, document(t, src),
		compiler.WithTarget(dir),
		compiler.WithImport("money", "example.com/money"),
	))
	out := readFile(t, filepath.Join(dir, "invoice.go"))
	assert.Contains(t, out, "package billing", "the package defaults to the target directory")
	assert.Contains(t, out, `"example.com/money"`)
	assert.Contains(t, out, "money.Amount")
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts []compiler.Option
		is   func(error) bool
	}{
		{
			name: "NoTarget",
			src:  shop,
			is:   compiler.IsConfigError,
		},
		{
			name: "BadPackage",
			src:  shop,
			opts: []compiler.Option{compiler.WithPackage("not-valid")},
			is:   compiler.IsConfigError,
		},
		{
			name: "BadWorkers",
			src:  shop,
			opts: []compiler.Option{compiler.WithWorkers(0)},
			is:   compiler.IsConfigError,
		},
		{
			name: "Empty",
			src:  "types: []\n",
			is:   compiler.IsSchemaError,
		},
		{
			name: "UnknownTarget",
			src: `
types:
  - name: Order
    fields:
      - {name: id, type: int64, pk: true}
      - {name: items, relation: one_to_many, target: Missing}
`,
			is: compiler.IsSchemaError,
		},
		{
			name: "Unexported",
			src: `
types:
  - name: order
    fields:
      - {name: id, type: int64, pk: true}
`,
			is: compiler.IsSchemaError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if tt.name != "NoTarget" {
				opts = append([]compiler.Option{compiler.WithTarget(t.TempDir()), compiler.WithPackage("shop")}, opts...)
			}
			_, err := compiler.New(document(t, tt.src), opts...)
			require.Error(t, err)
			assert.True(t, tt.is(err), "unexpected error: %v", err)
		})
	}
}

func TestGenerateFieldErrors(t *testing.T) {
	tests := map[string]string{
		"Reserved": `
types:
  - name: Order
    fields:
      - {name: id, type: int64, pk: true}
      - {name: get, type: string}
`,
		"Duplicate": `
types:
  - name: Order
    fields:
      - {name: id, type: int64, pk: true}
      - {name: order_id, type: int64}
      - {name: orderID, type: int64}
`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			err := compiler.Generate(context.Background(), document(t, src),
				compiler.WithTarget(t.TempDir()), compiler.WithPackage("shop"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, compiler.ErrInvalidSchema))
		})
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(shop), 0o644))
	out := filepath.Join(dir, "shop")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- compiler.Watch(ctx, path, nil, compiler.WithTarget(out)) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "order.go"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	extended := shop + `
  - name: Coupon
    fields:
      - {name: code, type: string, pk: true}
`
	require.NoError(t, os.WriteFile(path, []byte(extended), 0o644))
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "coupon.go"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
