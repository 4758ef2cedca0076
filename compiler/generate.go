package compiler

import (
	"bytes"
	"context"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"sync"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/cascade/schema"
)

// registryFileName is the name of the generated registry file.
const registryFileName = "schema.go"

// Generator renders the accessor tables of a schema document.
type Generator struct {
	doc *schema.Document
	reg *schema.Registry
	cfg *Config
	pkg string

	mu      sync.Mutex
	metrics Metrics
}

// Metrics tracks generation output.
type Metrics struct {
	FilesGenerated int
	TotalBytes     int64
}

// New validates the document and returns a generator for it.
func New(doc *schema.Document, opts ...Option) (*Generator, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if doc == nil || len(doc.Types) == 0 {
		return nil, &SchemaError{Message: "document declares no types"}
	}
	reg, err := doc.Registry(nil)
	if err != nil {
		return nil, &SchemaError{Message: "invalid document", Cause: err}
	}
	g := &Generator{doc: doc, reg: reg, cfg: cfg}
	if g.pkg, err = g.packageName(); err != nil {
		return nil, err
	}
	files := map[string]string{registryFileName: "registry"}
	for _, ts := range doc.Types {
		if !token.IsExported(ts.Name) || !token.IsIdentifier(ts.Name) {
			return nil, &SchemaError{Type: ts.Name, Message: "type name must be an exported Go identifier"}
		}
		name := fileName(ts.Name)
		if prev, ok := files[name]; ok {
			return nil, &SchemaError{Type: ts.Name, Message: fmt.Sprintf("file %s is also generated for %s", name, prev)}
		}
		files[name] = ts.Name
	}
	return g, nil
}

func (g *Generator) packageName() (string, error) {
	pkg := g.cfg.Package
	if pkg == "" {
		pkg = g.doc.Package
	}
	if pkg == "" {
		abs, err := filepath.Abs(g.cfg.Target)
		if err != nil {
			return "", &ConfigError{Option: "Target", Value: g.cfg.Target, Message: err.Error()}
		}
		pkg = filepath.Base(abs)
	}
	if !token.IsIdentifier(pkg) {
		return "", &ConfigError{Option: "Package", Value: pkg, Message: "package name must be a Go identifier"}
	}
	return pkg, nil
}

// Package returns the name of the generated package.
func (g *Generator) Package() string { return g.pkg }

// Metrics returns the output of the last Generate call.
func (g *Generator) Metrics() Metrics {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.metrics
}

// fileTask is one file to render.
type fileTask struct {
	name   string
	render func() (*jen.File, error)
}

// Generate writes one file per entity type and the registry file into
// the target directory.
func (g *Generator) Generate(ctx context.Context) error {
	if err := os.MkdirAll(g.cfg.Target, 0o755); err != nil {
		return &GenerationError{Message: "create output directory", Cause: err}
	}
	g.mu.Lock()
	g.metrics = Metrics{}
	g.mu.Unlock()

	tasks := []fileTask{{name: registryFileName, render: g.registryFile}}
	for _, ts := range g.doc.Types {
		tasks = append(tasks, fileTask{
			name:   fileName(ts.Name),
			render: func() (*jen.File, error) { return g.entityFile(ts) },
		})
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for _, task := range tasks {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return g.writeFile(task)
			}
		})
	}
	return eg.Wait()
}

// writeFile renders and formats a file. The unformatted source is written
// next to the target with an .error suffix when formatting fails.
func (g *Generator) writeFile(task fileTask) error {
	f, err := task.render()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return &GenerationError{File: task.name, Message: "render", Cause: err}
	}
	path := filepath.Join(g.cfg.Target, task.name)
	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		_ = os.WriteFile(path+".error", buf.Bytes(), 0o644)
		return &GenerationError{File: task.name, Message: "format (unformatted source written to " + path + ".error)", Cause: err}
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return &GenerationError{File: task.name, Message: "write", Cause: err}
	}

	g.mu.Lock()
	g.metrics.FilesGenerated++
	g.metrics.TotalBytes += int64(len(formatted))
	g.mu.Unlock()
	return nil
}

func (g *Generator) newFile() *jen.File {
	f := jen.NewFile(g.pkg)
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	return f
}

// Generate validates the document and writes its accessor tables.
func Generate(ctx context.Context, doc *schema.Document, opts ...Option) error {
	g, err := New(doc, opts...)
	if err != nil {
		return err
	}
	return g.Generate(ctx)
}

// GenerateFile reads the schema document at path and writes its accessor
// tables.
func GenerateFile(ctx context.Context, path string, opts ...Option) error {
	doc, err := schema.ReadDocumentFile(path)
	if err != nil {
		return &SchemaError{Message: "read " + path, Cause: err}
	}
	return Generate(ctx, doc, opts...)
}
