package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cascade"
	dsql "github.com/syssam/cascade/dialect/sql"
	"github.com/syssam/cascade/internal/cli"
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
      - {name: items, relation: one_to_many, target: LineItem, ref: order}
  - name: LineItem
    fields:
      - {name: id, type: int64, pk: true, auto_increment: true}
      - {name: sku, type: string}
      - {name: order, relation: many_to_one, target: Order}
`

// workspace changes into a temporary directory holding schema.yaml.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("schema.yaml", []byte(shop), 0o644))
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestDDL(t *testing.T) {
	dir := workspace(t)
	dsn := "--database-dsn=file:" + filepath.Join(dir, "ddl.db")

	out, _, err := run(t, "ddl", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS orders (")
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS line_items (")
	assert.Contains(t, out, "order_id")

	out, _, err = run(t, "ddl", "--drop", dsn)
	require.NoError(t, err)
	assert.Equal(t, "DROP TABLE IF EXISTS line_items;\nDROP TABLE IF EXISTS orders;\n", out)
}

func TestMigrate(t *testing.T) {
	dir := workspace(t)
	db := filepath.Join(dir, "shop.db")

	_, logs, err := run(t, "migrate", "--database-dsn=file:"+db, "--log-format=json")
	require.NoError(t, err)
	assert.Contains(t, logs, `"msg":"created tables"`)
	assert.Contains(t, logs, `"types":2`)

	_, logs, err = run(t, "migrate", "--drop", "--database-dsn=file:"+db)
	require.NoError(t, err)
	assert.Contains(t, logs, "dropped tables")

	doc, err := schema.ReadDocumentFile(filepath.Join(dir, "schema.yaml"))
	require.NoError(t, err)
	reg, err := doc.Registry(nil)
	require.NoError(t, err)
	drv, err := dsql.Open("sqlite", "file:"+db)
	require.NoError(t, err)
	defer drv.Close()
	s := cascade.NewSession(drv, reg)
	n, err := s.CreateCriteria("LineItem").Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGen(t *testing.T) {
	dir := workspace(t)

	_, _, err := run(t, "gen", "--schema-output", "model", "--schema-package", "model")
	require.NoError(t, err)
	for _, name := range []string{"schema.go", "order.go", "line_item.go"} {
		data, err := os.ReadFile(filepath.Join(dir, "model", name))
		require.NoError(t, err)
		assert.Contains(t, string(data), "package model")
	}
}

func TestErrors(t *testing.T) {
	t.Run("MissingSchema", func(t *testing.T) {
		t.Chdir(t.TempDir())
		_, _, err := run(t, "ddl")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read schema schema.yaml")
	})

	t.Run("MissingConfig", func(t *testing.T) {
		workspace(t)
		_, _, err := run(t, "ddl", "--config", "nope.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config: file nope.yaml not found")
	})

	t.Run("BadLogLevel", func(t *testing.T) {
		workspace(t)
		_, _, err := run(t, "ddl", "--log-level", "loud")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config: log.level")
	})
}
