// Package encoder holds the encoder registry and the normalization
// rules shared by all encoding strategies.
package encoder

import (
	"NetFlowGen/internal/config"
	"NetFlowGen/internal/model"
	"fmt"
)

// Factory creates an encoder from the run configuration.
type Factory func(cfg *config.Config) (model.Encoder, error)

// registry holds the mapping of encoder names to their factory functions.
var registry = make(map[string]Factory)

// Register registers a new encoding strategy with its factory function.
func Register(name string, factory Factory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("encoder '%s' already registered", name))
	}
	registry[name] = factory
}

// Create instantiates the encoder selected by name.
func Create(name string, cfg *config.Config) (model.Encoder, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", model.ErrUnknownEncoder, name)
	}
	return factory(cfg)
}
