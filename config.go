package main

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"gregoryjjb/cyclist/cyclic"
)

// ConfigFileName is looked up in the home directory when no path is given.
const ConfigFileName = "cyclist.toml"

const (
	defaultHost             = "127.0.0.1"
	defaultPort             = 1225
	defaultMaxBuffers       = 64
	defaultHistorySize      = 256
	defaultSubscriberBuffer = 16
	defaultMaxCapacity      = 1 << 20
)

// Flags are the command line options that feed into Config.
type Flags struct {
	ConfigPath string
	Verbose    bool
}

type tomlConfig struct {
	Host             string `toml:"host"`
	Port             int    `toml:"port"`
	DefaultCapacity  int    `toml:"default_capacity"`
	MaxBuffers       int    `toml:"max_buffers"`
	HistorySize      int    `toml:"history_size"`
	SubscriberBuffer int    `toml:"subscriber_buffer"`
	MaxCapacity      int    `toml:"max_capacity"`
	LogLevel         string `toml:"log_level"`
	NoColor          bool   `toml:"no_color"`
}

// Config resolves settings from flags, then environment, then the TOML
// file, then defaults.
type Config struct {
	flags  Flags
	getenv func(string) string
	path   string
	toml   tomlConfig
}

func NewConfig(fs CyclistFS, flags Flags, getenv func(string) string) (*Config, error) {
	c := &Config{
		flags:  flags,
		getenv: getenv,
	}

	explicit := true
	path := flags.ConfigPath
	if path == "" {
		path = getenv("CYCLIST_CONFIG")
	}
	if path == "" {
		explicit = false
		home, err := fs.HomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		path = filepath.Join(home, ConfigFileName)
	}

	abs, err := fs.Abs(path)
	if err != nil {
		return nil, err
	}
	c.path = abs

	data, ok, err := readOptionalFile(fs, abs)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", abs, err)
	}
	if !ok {
		if explicit {
			return nil, fmt.Errorf("config %q %w", abs, ErrNotExist)
		}
		return c, c.validate()
	}

	decoder := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := decoder.Decode(&c.toml); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: config %q: %s", ErrValidation, abs, strict.String())
		}
		return nil, fmt.Errorf("parse config %q: %w", abs, err)
	}

	return c, c.validate()
}

func (c *Config) validate() error {
	var problems []string
	if c.toml.Port < 0 || c.toml.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.toml.Port))
	}
	if c.toml.DefaultCapacity < 0 || c.toml.DefaultCapacity > cyclic.MaxCapacity {
		problems = append(problems, fmt.Sprintf("default_capacity must be between 0 and %d", cyclic.MaxCapacity))
	}
	if c.toml.MaxCapacity < 0 || c.toml.MaxCapacity > cyclic.MaxCapacity {
		problems = append(problems, fmt.Sprintf("max_capacity must be between 0 and %d", cyclic.MaxCapacity))
	} else if c.DefaultCapacity() > c.MaxCapacity() {
		problems = append(problems, fmt.Sprintf("default_capacity %d exceeds max_capacity %d", c.DefaultCapacity(), c.MaxCapacity()))
	}
	if c.toml.MaxBuffers < 0 {
		problems = append(problems, "max_buffers cannot be negative")
	}
	if c.toml.HistorySize < 0 {
		problems = append(problems, "history_size cannot be negative")
	}
	if c.toml.SubscriberBuffer < 0 {
		problems = append(problems, "subscriber_buffer cannot be negative")
	}
	if _, err := c.parseLogLevel(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) envOr(key string, fallback string) string {
	if value := c.getenv(key); value != "" {
		return value
	}
	return fallback
}

// Path is the config file that was (or would have been) read.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) Host() string {
	host := c.toml.Host
	if host == "" {
		host = defaultHost
	}
	return c.envOr("HOST", host)
}

func (c *Config) Port() string {
	port := c.toml.Port
	if port == 0 {
		port = defaultPort
	}
	return c.envOr("PORT", strconv.Itoa(port))
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.Host(), c.Port())
}

// DefaultCapacity is used for buffers created without an explicit capacity.
func (c *Config) DefaultCapacity() int {
	if c.toml.DefaultCapacity == 0 {
		return cyclic.DefaultCapacity
	}
	return c.toml.DefaultCapacity
}

// MaxCapacity is the most slots a single buffer may allocate.
func (c *Config) MaxCapacity() int {
	if c.toml.MaxCapacity == 0 {
		return defaultMaxCapacity
	}
	return c.toml.MaxCapacity
}

func (c *Config) MaxBuffers() int {
	if c.toml.MaxBuffers == 0 {
		return defaultMaxBuffers
	}
	return c.toml.MaxBuffers
}

func (c *Config) HistorySize() int {
	if c.toml.HistorySize == 0 {
		return defaultHistorySize
	}
	return c.toml.HistorySize
}

func (c *Config) SubscriberBuffer() int {
	if c.toml.SubscriberBuffer == 0 {
		return defaultSubscriberBuffer
	}
	return c.toml.SubscriberBuffer
}

func (c *Config) LogLevel() zerolog.Level {
	level, err := c.parseLogLevel()
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func (c *Config) parseLogLevel() (zerolog.Level, error) {
	if c.flags.Verbose {
		return zerolog.DebugLevel, nil
	}
	name := c.envOr("CYCLIST_LOG_LEVEL", c.toml.LogLevel)
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

func (c *Config) NoColor() bool {
	return c.toml.NoColor || c.getenv("NO_COLOR") != ""
}
