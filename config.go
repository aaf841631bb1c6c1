package treekv

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

const (
	BackendMem  = "mem"
	BackendBolt = "bolt"
	BackendEtcd = "etcd"
)

const DefaultDialTimeout = 5 * time.Second

// Config describes a KV and the store behind it, as read from a TOML file.
type Config struct {
	Name    string `toml:"name"`
	Backend string `toml:"backend"`

	// Path is the Bolt database file.
	Path string `toml:"path"`

	Endpoints   []string `toml:"endpoints"`
	DialTimeout Duration `toml:"dial-timeout"`

	Prefix  uint8    `toml:"prefix"`
	Timeout Duration `toml:"timeout"`
	Verbose bool     `toml:"verbose"`
}

func NewConfig() Config {
	return Config{
		Backend:     BackendMem,
		DialTimeout: Duration(DefaultDialTimeout),
		Timeout:     Duration(DefaultTimeout),
	}
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendMem:
	case BackendBolt:
		if c.Path == "" {
			return errors.New("bolt backend requires path")
		}
	case BackendEtcd:
		if len(c.Endpoints) == 0 {
			return errors.New("etcd backend requires endpoints")
		}
		if c.DialTimeout <= 0 {
			return errors.New("dial-timeout must be positive")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// Options returns engine options matching c.
func (c Config) Options(logger *zap.Logger) Options {
	return Options{
		Name:    c.Name,
		Prefix:  c.Prefix,
		Timeout: time.Duration(c.Timeout),
		Logger:  logger,
		Verbose: c.Verbose,
	}
}

// Open connects to the configured store and returns a KV on top of it.
func (c Config) Open(logger *zap.Logger) (*KV, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var client Client
	var err error
	switch c.Backend {
	case BackendMem:
		client = NewMemClient()
	case BackendBolt:
		client, err = OpenBoltClient(c.Path, BoltOptions{Timeout: time.Second})
	case BackendEtcd:
		client, err = DialEtcd(c.Endpoints, time.Duration(c.DialTimeout))
	}
	if err != nil {
		return nil, err
	}
	return New(client, c.Options(logger)), nil
}

// LoadConfig parses a configuration file at path.
func LoadConfig(path string) (Config, error) {
	c := NewConfig()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseConfig parses a configuration string.
func ParseConfig(s string) (Config, error) {
	c := NewConfig()
	if _, err := toml.Decode(s, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Duration is a time.Duration written as "300ms" in config files.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
