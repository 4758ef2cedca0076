package cascade_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cascade"
	"github.com/syssam/cascade/dialect"
	dsql "github.com/syssam/cascade/dialect/sql"
	"github.com/syssam/cascade/lazy"
	"github.com/syssam/cascade/schema"
	"github.com/syssam/cascade/schema/edge"
)

type Order struct {
	ID       int64
	Total    float64
	Note     *string
	Items    lazy.Many[LineItem]
	Customer lazy.One[Customer]
}

func (*Order) EntityName() string { return "Order" }

func (o *Order) Get(field string) any {
	switch field {
	case "id":
		return o.ID
	case "total":
		return o.Total
	case "note":
		return o.Note
	case "items":
		return &o.Items
	case "customer":
		return &o.Customer
	}
	return nil
}

func (o *Order) Set(field string, v any) error {
	switch field {
	case "id":
		o.ID, _ = v.(int64)
	case "total":
		o.Total, _ = v.(float64)
	case "note":
		o.Note = nil
		if s, ok := v.(string); ok {
			o.Note = &s
		}
	default:
		return fmt.Errorf("Order has no field %q", field)
	}
	return nil
}

type LineItem struct {
	ID    int64
	SKU   string
	Qty   int
	Order lazy.One[Order]
}

func (*LineItem) EntityName() string { return "LineItem" }

func (li *LineItem) Get(field string) any {
	switch field {
	case "id":
		return li.ID
	case "sku":
		return li.SKU
	case "qty":
		return li.Qty
	case "order":
		return &li.Order
	}
	return nil
}

func (li *LineItem) Set(field string, v any) error {
	switch field {
	case "id":
		li.ID, _ = v.(int64)
	case "sku":
		li.SKU, _ = v.(string)
	case "qty":
		li.Qty, _ = v.(int)
	default:
		return fmt.Errorf("LineItem has no field %q", field)
	}
	return nil
}

type Customer struct {
	ID   uuid.UUID
	Name string
}

func (*Customer) EntityName() string { return "Customer" }

func (c *Customer) Get(field string) any {
	switch field {
	case "id":
		return c.ID
	case "name":
		return c.Name
	}
	return nil
}

func (c *Customer) Set(field string, v any) error {
	switch field {
	case "id":
		c.ID, _ = v.(uuid.UUID)
	case "name":
		c.Name, _ = v.(string)
	default:
		return fmt.Errorf("Customer has no field %q", field)
	}
	return nil
}

type Post struct {
	ID    int64
	Title string
	Tags  lazy.Many[Tag]
}

func (*Post) EntityName() string { return "Post" }

func (p *Post) Get(field string) any {
	switch field {
	case "id":
		return p.ID
	case "title":
		return p.Title
	case "tags":
		return &p.Tags
	}
	return nil
}

func (p *Post) Set(field string, v any) error {
	switch field {
	case "id":
		p.ID, _ = v.(int64)
	case "title":
		p.Title, _ = v.(string)
	default:
		return fmt.Errorf("Post has no field %q", field)
	}
	return nil
}

type Tag struct {
	ID    int64
	Name  string
	Posts lazy.Many[Post]
}

func (*Tag) EntityName() string { return "Tag" }

func (g *Tag) Get(field string) any {
	switch field {
	case "id":
		return g.ID
	case "name":
		return g.Name
	case "posts":
		return &g.Posts
	}
	return nil
}

func (g *Tag) Set(field string, v any) error {
	switch field {
	case "id":
		g.ID, _ = v.(int64)
	case "name":
		g.Name, _ = v.(string)
	default:
		return fmt.Errorf("Tag has no field %q", field)
	}
	return nil
}

type Person struct {
	ID       int64
	Name     string
	Passport lazy.One[Passport]
}

func (*Person) EntityName() string { return "Person" }

func (p *Person) Get(field string) any {
	switch field {
	case "id":
		return p.ID
	case "name":
		return p.Name
	case "passport":
		return &p.Passport
	}
	return nil
}

func (p *Person) Set(field string, v any) error {
	switch field {
	case "id":
		p.ID, _ = v.(int64)
	case "name":
		p.Name, _ = v.(string)
	default:
		return fmt.Errorf("Person has no field %q", field)
	}
	return nil
}

type Passport struct {
	ID     int64
	Number string
	Holder lazy.One[Person]
}

func (*Passport) EntityName() string { return "Passport" }

func (p *Passport) Get(field string) any {
	switch field {
	case "id":
		return p.ID
	case "number":
		return p.Number
	case "holder":
		return &p.Holder
	}
	return nil
}

func (p *Passport) Set(field string, v any) error {
	switch field {
	case "id":
		p.ID, _ = v.(int64)
	case "number":
		p.Number, _ = v.(string)
	default:
		return fmt.Errorf("Passport has no field %q", field)
	}
	return nil
}

// fixture selects the cascade modes and loading strategy of the test
// registry.
type fixture struct {
	order  schema.CascadeMode
	post   schema.CascadeMode
	person schema.CascadeMode
	lazy   bool
}

var defaults = fixture{order: schema.CascadeAll, post: schema.CascadeAll, person: schema.CascadeAll}

func registry(t *testing.T, fx fixture) *schema.Registry {
	t.Helper()
	order := schema.Define("Order").
		Cascade(fx.order).
		Fields(
			schema.Int64("id").PrimaryKey().AutoIncrement(),
			schema.Float64("total"),
			schema.Of("note", "*string"),
			edge.OneToMany("items", "LineItem").Ref("order"),
			edge.ManyToOne("customer", "Customer"),
		).
		New(func() schema.Entity { return &Order{} })
	if fx.lazy {
		order.Lazy()
	}
	reg, err := schema.NewRegistry(
		order,
		schema.Define("LineItem").
			Fields(
				schema.Int64("id").PrimaryKey().AutoIncrement(),
				schema.String("sku").Unique(),
				schema.Int("qty"),
				edge.ManyToOne("order", "Order"),
			).
			New(func() schema.Entity { return &LineItem{} }),
		schema.Define("Customer").
			Fields(
				schema.UUID("id").PrimaryKey(),
				schema.String("name"),
			).
			New(func() schema.Entity { return &Customer{} }),
		schema.Define("Post").
			Cascade(fx.post).
			Fields(
				schema.Int64("id").PrimaryKey().AutoIncrement(),
				schema.String("title"),
				edge.ManyToMany("tags", "Tag"),
			).
			New(func() schema.Entity { return &Post{} }),
		schema.Define("Tag").
			Fields(
				schema.Int64("id").PrimaryKey().AutoIncrement(),
				schema.String("name"),
				edge.ManyToMany("posts", "Post").Inverse().Ref("tags"),
			).
			New(func() schema.Entity { return &Tag{} }),
		schema.Define("Person").
			Cascade(fx.person).
			Fields(
				schema.Int64("id").PrimaryKey().AutoIncrement(),
				schema.String("name"),
				edge.OneToOne("passport", "Passport").Owner("Passport"),
			).
			New(func() schema.Entity { return &Person{} }),
		schema.Define("Passport").
			Cascade(fx.person).
			Fields(
				schema.Int64("id").PrimaryKey().AutoIncrement(),
				schema.String("number"),
				edge.OneToOne("holder", "Person").Ref("passport"),
			).
			New(func() schema.Entity { return &Passport{} }),
	)
	require.NoError(t, err)
	return reg
}

// testSession returns an open session over a private in-memory SQLite
// database with all tables created. Statements are logged into the
// returned buffer.
func testSession(t *testing.T, fx fixture, opts ...cascade.Option) (*cascade.Session, *bytes.Buffer) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	drv, err := dsql.Open(dialect.SQLite, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := cascade.NewSession(drv, registry(t, fx), append([]cascade.Option{cascade.WithLogger(logger)}, opts...)...)

	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.CreateTables(ctx))
	buf.Reset()
	return s, &buf
}

func names[T any](es []*T, name func(*T) string) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = name(e)
	}
	return out
}
