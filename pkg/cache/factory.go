package cache

import (
	"errors"
	"fmt"
)

// Type names a cache backend.
type Type string

const (
	// TypeMemory is the in-process cache.
	TypeMemory Type = "memory"

	// TypeNATS is the NATS JetStream KV cache.
	TypeNATS Type = "nats"

	// TypeNone disables caching.
	TypeNone Type = "none"
)

// Static configuration errors.
var (
	ErrNATSConfigRequired = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedType    = errors.New("unsupported cache type")
)

// Config selects and configures a cache backend.
type Config struct {
	// Type is the backend to build.
	Type Type

	// Memory configures the in-process backend.
	Memory *MemoryConfig

	// NATS configures the JetStream KV backend.
	NATS *NATSKVConfig

	// Options are common knobs applied to any backend. Nil means
	// DefaultOptions().
	Options *Options
}

// MemoryConfig configures the in-process backend.
type MemoryConfig struct {
	// MaxSize is the maximum number of entries held.
	MaxSize int
}

// DefaultConfig returns the configuration used when none is given: a
// memory cache with the default options.
func DefaultConfig() *Config {
	return &Config{
		Type:    TypeMemory,
		Memory:  &MemoryConfig{MaxSize: DefaultOptions().MaxSize},
		Options: DefaultOptions(),
	}
}

// New creates a cache backend from configuration.
func New(config *Config) (Cache, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Type {
	case TypeMemory:
		return newMemoryFromConfig(config.Memory), nil

	case TypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(config.NATS)

	case TypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, config.Type)
	}
}

func newMemoryFromConfig(config *MemoryConfig) *MemoryCache {
	if config == nil {
		config = &MemoryConfig{MaxSize: DefaultOptions().MaxSize}
	}

	return NewMemoryCache(config.MaxSize)
}

// Builder assembles a cache configuration fluently.
type Builder struct {
	config *Config
}

// NewBuilder creates a builder preloaded with the defaults.
func NewBuilder() *Builder {
	return &Builder{
		config: &Config{
			Type:    TypeMemory,
			Options: DefaultOptions(),
		},
	}
}

// WithType sets the backend type.
func (b *Builder) WithType(cacheType Type) *Builder {
	b.config.Type = cacheType

	return b
}

// WithMemoryConfig sets the in-process backend's size bound.
func (b *Builder) WithMemoryConfig(maxSize int) *Builder {
	b.config.Memory = &MemoryConfig{MaxSize: maxSize}

	return b
}

// WithNATSConfig sets the JetStream KV backend's configuration.
func (b *Builder) WithNATSConfig(config *NATSKVConfig) *Builder {
	b.config.NATS = config

	return b
}

// WithOptions sets the common options.
func (b *Builder) WithOptions(options *Options) *Builder {
	b.config.Options = options

	return b
}

// Build creates the cache.
func (b *Builder) Build() (Cache, error) {
	return New(b.config)
}
