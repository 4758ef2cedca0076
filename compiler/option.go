package compiler

import (
	"go/token"
	"runtime"
)

// Config holds the generator settings.
type Config struct {
	// Target is the output directory.
	Target string
	// Package is the name of the generated package. It defaults to the
	// package declared by the document, then to the base name of Target.
	Package string
	// Header is the comment written at the top of every file.
	Header string
	// Imports maps the package qualifier of custom Go types to an import
	// path, e.g. "money" to "example.com/shop/money".
	Imports map[string]string
	// Workers bounds the number of files rendered in parallel.
	Workers int
}

// DefaultHeader is the header comment of generated files.
const DefaultHeader = "Code generated by cascade. DO NOT EDIT."

// Option configures code generation.
type Option func(*Config) error

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return &ConfigError{Option: "Target", Message: "target directory cannot be empty"}
		}
		c.Target = dir
		return nil
	}
}

// WithPackage sets the generated package name.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if !token.IsIdentifier(pkg) {
			return &ConfigError{Option: "Package", Value: pkg, Message: "package name must be a Go identifier"}
		}
		c.Package = pkg
		return nil
	}
}

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithImport maps the qualifier of custom field types to an import path.
func WithImport(qualifier, path string) Option {
	return func(c *Config) error {
		if qualifier == "" || path == "" {
			return &ConfigError{Option: "Imports", Value: qualifier, Message: "qualifier and path are required"}
		}
		if c.Imports == nil {
			c.Imports = make(map[string]string)
		}
		c.Imports[qualifier] = path
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return &ConfigError{Option: "Workers", Value: n, Message: "workers must be positive"}
		}
		c.Workers = n
		return nil
	}
}

func newConfig(opts []Option) (*Config, error) {
	c := &Config{Header: DefaultHeader, Workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.Target == "" {
		return nil, &ConfigError{Option: "Target", Message: "no target directory: use WithTarget"}
	}
	return c, nil
}
