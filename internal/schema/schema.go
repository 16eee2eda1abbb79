// Package schema resolves a format identifier into the canonical field
// schema applied to every chunk of a preprocessing run.
package schema

import (
	"NetFlowGen/internal/model"
	"fmt"
)

// registry maps format identifiers to schema constructors.
var registry = make(map[string]func() *model.FieldSchema)

// Register adds a format. Meant to be called from init functions.
func Register(name string, fn func() *model.FieldSchema) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("format '%s' already registered", name))
	}
	registry[name] = fn
}

// Resolve returns the schema for a format identifier. It fails with
// model.ErrUnknownFormat before any file is opened.
func Resolve(name string) (*model.FieldSchema, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", model.ErrUnknownFormat, name)
	}
	return fn(), nil
}

// Formats lists the registered format identifiers.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
