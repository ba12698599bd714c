// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the YAML configuration of the seglog command.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/seglog/seglog"
	"github.com/ava-labs/seglog/segment"
	"github.com/ava-labs/seglog/storage"
)

const (
	LRU  = "lru"
	FIFO = "fifo"

	// Disk keeps each segment in a pair of files.
	Disk = "disk"
	// Pebble keeps every segment in one pebble database.
	Pebble = "pebble"

	// UnboundedCache keeps the index of every read segment in memory.
	UnboundedCache = -1
)

var (
	ErrUnknownCachePolicy = errors.New("unknown cache policy")
	ErrUnknownBackend     = errors.New("unknown storage backend")
)

// Provider is a storage backend owning open resources.
type Provider interface {
	storage.Provider
	Close() error
}

// Config fields left out of the YAML keep their defaults.
type Config struct {
	Dir        string `yaml:"dir"`
	Backend    string `yaml:"backend"`
	BufferSize int    `yaml:"bufferSize"`
	PageSize   int    `yaml:"pageSize"`

	MaxStoreSize     uint64 `yaml:"maxStoreSize"`
	MaxStoreOverflow uint64 `yaml:"maxStoreOverflow"`
	MaxIndexSize     uint64 `yaml:"maxIndexSize"`
	InitialIndex     uint64 `yaml:"initialIndex"`

	IndexCachedReadSegments int    `yaml:"indexCachedReadSegments"`
	CachePolicy             string `yaml:"cachePolicy"`
	MaxConcurrentReads      int64  `yaml:"maxConcurrentReads"`

	LogLevel    string `yaml:"logLevel"`
	LogDir      string `yaml:"logDir"`
	LogMaxSize  int    `yaml:"logMaxSize"` // megabytes
	LogMaxFiles int    `yaml:"logMaxFiles"`
	LogMaxAge   int    `yaml:"logMaxAge"` // days
	LogCompress bool   `yaml:"logCompress"`
}

func Default() *Config {
	s := segment.DefaultConfig()
	return &Config{
		Dir:                     "seglog",
		Backend:                 Disk,
		BufferSize:              64 * units.KiB,
		PageSize:                storage.DefaultPageSize,
		MaxStoreSize:            s.MaxStoreSize,
		MaxStoreOverflow:        s.MaxStoreOverflow,
		MaxIndexSize:            s.MaxIndexSize,
		IndexCachedReadSegments: 8,
		CachePolicy:             LRU,
		MaxConcurrentReads:      64,
		LogLevel:                "info",
		LogMaxSize:              8,
		LogMaxFiles:             4,
		LogMaxAge:               30,
	}
}

// Load reads [path] over the defaults. An empty [path] returns the
// defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if len(path) == 0 {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalStrict(b, c); err != nil {
		return nil, fmt.Errorf("%w: unable to parse %s", err, path)
	}
	return c, nil
}

func (c *Config) GetLogLevel() (logging.Level, error) {
	return logging.ToLevel(c.LogLevel)
}

// OpenProvider opens the storage backend in [c.Dir]. Both backends hold
// resources that must be released with Close.
func (c *Config) OpenProvider(log logging.Logger, registerer prometheus.Registerer) (Provider, error) {
	switch c.Backend {
	case Disk:
		p, err := storage.NewDiskProvider(c.Dir, c.BufferSize)
		if err != nil {
			return nil, err
		}
		return p, nil
	case Pebble:
		p, err := storage.NewPebbleProvider(
			c.Dir,
			c.PageSize,
			log,
			prometheus.WrapRegistererWithPrefix("pebble_", registerer),
		)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}

// LogConfig returns the segmented log configuration described by [c].
func (c *Config) LogConfig() (seglog.Config, error) {
	config := seglog.Config{
		Segment: segment.Config{
			MaxStoreSize:     c.MaxStoreSize,
			MaxStoreOverflow: c.MaxStoreOverflow,
			MaxIndexSize:     c.MaxIndexSize,
		},
		InitialIndex: c.InitialIndex,
	}
	switch c.CachePolicy {
	case LRU:
		config.NewPolicy = seglog.NewLRUPolicy
	case FIFO:
		config.NewPolicy = seglog.NewFIFOPolicy
	default:
		return seglog.Config{}, fmt.Errorf("%w: %q", ErrUnknownCachePolicy, c.CachePolicy)
	}
	if c.IndexCachedReadSegments == UnboundedCache {
		config.IndexCachedReadSegments = maybe.Nothing[int]()
	} else {
		config.IndexCachedReadSegments = maybe.Some(c.IndexCachedReadSegments)
	}
	return config, config.Verify()
}
