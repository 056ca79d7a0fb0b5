// Package config provides configuration structures and defaults for the bjson codec.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/MikhailWahib/bjson/internal/derrors"
	"gopkg.in/yaml.v3"
)

const (
	defaultArenaCapacity  = 4096
	defaultOutputCapacity = 4096
	defaultDumpValueLimit = 1024
	defaultWorkers        = 4
)

// Config holds the tunable limits of an encode session and of the
// supporting tools.
type Config struct {
	// ArenaCapacity bounds the bytes the parser may duplicate out of the
	// source text during one encode call.
	ArenaCapacity int `yaml:"arena_capacity"`
	// OutputCapacity is the size of the buffer Codec.Marshal encodes into.
	OutputCapacity int `yaml:"output_capacity"`
	// StrictKeys rejects objects that repeat a key. By default duplicates
	// are encoded and lookups return the first one.
	StrictKeys bool `yaml:"strict_keys"`
	// DumpValueLimit caps the string bytes printed per entry by the dumper.
	DumpValueLimit int `yaml:"dump_value_limit"`
	// Workers bounds the number of files encoded concurrently by a batch.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns a Config struct populated with default values.
func DefaultConfig() *Config {
	return &Config{
		ArenaCapacity:  defaultArenaCapacity,
		OutputCapacity: defaultOutputCapacity,
		DumpValueLimit: defaultDumpValueLimit,
		Workers:        defaultWorkers,
	}
}

// FillDefaults sets any zero-value fields in the Config to their default values.
func (c *Config) FillDefaults() {
	def := DefaultConfig()
	if c.ArenaCapacity == 0 {
		c.ArenaCapacity = def.ArenaCapacity
	}
	if c.OutputCapacity == 0 {
		c.OutputCapacity = def.OutputCapacity
	}
	if c.DumpValueLimit == 0 {
		c.DumpValueLimit = def.DumpValueLimit
	}
	if c.Workers == 0 {
		c.Workers = def.Workers
	}
}

// Validate reports an InvalidArgument error for negative limits.
func (c *Config) Validate() error {
	switch {
	case c.ArenaCapacity < 0:
		return derrorf("arena_capacity must not be negative, got %d", c.ArenaCapacity)
	case c.OutputCapacity < 0:
		return derrorf("output_capacity must not be negative, got %d", c.OutputCapacity)
	case c.DumpValueLimit < 0:
		return derrorf("dump_value_limit must not be negative, got %d", c.DumpValueLimit)
	case c.Workers < 0:
		return derrorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Parse parses yamlData as a YAML description of a Config. Fields missing
// from the document keep their default values; unknown fields are an error.
func Parse(yamlData []byte) (_ *Config, err error) {
	defer derrors.Wrap(&err, "config.Parse")

	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(yamlData))
	dec.KnownFields(true)
	// An empty document decodes to io.EOF and means "all defaults".
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.FillDefaults()
	return &c, nil
}

// Load reads and parses the YAML config file at path.
func Load(path string) (_ *Config, err error) {
	defer derrors.Wrap(&err, "config.Load(%q)", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func derrorf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, derrors.InvalidArgument)...)
}
