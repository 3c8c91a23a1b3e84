// Package config loads the platform settings used by the command line tools.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// BAREMETAL_* environment variables where an underscore separates key
// segments (BAREMETAL_HEAP_SIZE sets heap.size).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/inhies/go-bytesize"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/wippyai/baremetal-platform/errors"
	"github.com/wippyai/baremetal-platform/host"
	"github.com/wippyai/baremetal-platform/platform"
	"github.com/wippyai/baremetal-platform/printf"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "BAREMETAL_"

const (
	ConsoleLog = "log"
	ConsoleNop = "nop"

	ClockCounter   = "counter"
	ClockMonotonic = "monotonic"

	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config is the resolved configuration.
type Config struct {
	Printf  PrintfConfig
	Console ConsoleConfig
	Heap    HeapConfig
	Clock   ClockConfig
	Stack   StackConfig
	Log     LogConfig
	WASI    WASIConfig
}

type PrintfConfig struct {
	Profile     printf.Profile
	Untruncated bool
	LongSize    int
	SizeSize    int
}

type ConsoleConfig struct {
	Mode   string
	Buffer int
}

// HeapConfig places the guest heap. A zero Size selects the upper half of
// guest memory.
type HeapConfig struct {
	Base uint32
	Size uint32
}

type ClockConfig struct {
	Source string
}

type StackConfig struct {
	Start uint32
}

type LogConfig struct {
	Level  string
	Format string
}

type WASIConfig struct {
	Enabled bool
}

// Defaults returns the built-in configuration layer.
func Defaults() map[string]any {
	return map[string]any{
		"printf.profile":     "minimal",
		"printf.untruncated": false,
		"printf.longsize":    4,
		"printf.sizesize":    4,
		"console.mode":       ConsoleLog,
		"console.buffer":     "512B",
		"heap.base":          "0",
		"heap.size":          "0",
		"clock.source":       ClockCounter,
		"stack.start":        "0",
		"log.level":          "info",
		"log.format":         FormatConsole,
		"wasi.enabled":       false,
	}
}

// Load builds the configuration from the defaults, the YAML file at path
// (skipped when path is empty) and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "load defaults")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.New(errors.PhaseConfig, errors.KindNotFound).
				Path(path).
				Cause(err).
				Detail("config file").
				Build()
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
				Path(path).
				Cause(err).
				Detail("parse config file").
				Build()
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "load environment")
	}

	return FromKoanf(k)
}

// FromKoanf resolves and validates a loaded koanf instance.
func FromKoanf(k *koanf.Koanf) (*Config, error) {
	var (
		c   Config
		err error
	)

	if c.Printf.Profile, err = printf.ParseProfile(k.String("printf.profile")); err != nil {
		return nil, invalid("printf.profile", err)
	}
	c.Printf.Untruncated = k.Bool("printf.untruncated")
	if c.Printf.LongSize, err = wordSize(k, "printf.longsize"); err != nil {
		return nil, err
	}
	if c.Printf.SizeSize, err = wordSize(k, "printf.sizesize"); err != nil {
		return nil, err
	}

	c.Console.Mode = strings.ToLower(k.String("console.mode"))
	if c.Console.Mode != ConsoleLog && c.Console.Mode != ConsoleNop {
		return nil, invalid("console.mode", fmt.Errorf("unknown mode %q", c.Console.Mode))
	}
	buffer, err := size(k, "console.buffer")
	if err != nil {
		return nil, err
	}
	if buffer < 2 {
		return nil, invalid("console.buffer", fmt.Errorf("buffer of %d bytes cannot hold a line", buffer))
	}
	c.Console.Buffer = int(buffer)

	if c.Heap.Base, err = address(k, "heap.base"); err != nil {
		return nil, err
	}
	if c.Heap.Size, err = size(k, "heap.size"); err != nil {
		return nil, err
	}

	c.Clock.Source = strings.ToLower(k.String("clock.source"))
	if c.Clock.Source != ClockCounter && c.Clock.Source != ClockMonotonic {
		return nil, invalid("clock.source", fmt.Errorf("unknown clock %q", c.Clock.Source))
	}

	if c.Stack.Start, err = address(k, "stack.start"); err != nil {
		return nil, err
	}

	c.Log.Level = strings.ToLower(k.String("log.level"))
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return nil, invalid("log.level", err)
	}
	c.Log.Format = strings.ToLower(k.String("log.format"))
	if c.Log.Format != FormatConsole && c.Log.Format != FormatJSON {
		return nil, invalid("log.format", fmt.Errorf("unknown format %q", c.Log.Format))
	}

	c.WASI.Enabled = k.Bool("wasi.enabled")
	return &c, nil
}

// Formatter returns the formatter the configuration describes.
func (c *Config) Formatter() *printf.Formatter {
	return &printf.Formatter{
		Profile:     c.Printf.Profile,
		LongSize:    c.Printf.LongSize,
		SizeSize:    c.Printf.SizeSize,
		Untruncated: c.Printf.Untruncated,
	}
}

// NewPlatform builds a platform. Guest console output goes to log.
func (c *Config) NewPlatform(log *zap.Logger) *platform.Platform {
	f := c.Formatter()
	p := platform.New().WithFormatter(f)
	if c.Clock.Source == ClockMonotonic {
		p.WithClock(platform.NewMonotonicClock())
	}
	if c.Console.Mode == ConsoleLog {
		if log == nil {
			log = zap.NewNop()
		}
		p.WithConsole(platform.NewLogConsole(log.Named("guest"), f, c.Console.Buffer))
	}
	if c.Stack.Start != 0 {
		p.Stack().Register(c.Stack.Start)
	}
	return p
}

// HostOptions returns the env module options the configuration describes.
func (c *Config) HostOptions() []host.Option {
	var opts []host.Option
	if c.Heap.Size != 0 {
		opts = append(opts, host.WithHeap(c.Heap.Base, c.Heap.Size))
	}
	return opts
}

func invalid(key string, err error) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(key).
		Cause(err).
		Detail("invalid value").
		Build()
}

func wordSize(k *koanf.Koanf, key string) (int, error) {
	n := k.Int(key)
	if n != 4 && n != 8 {
		return 0, invalid(key, fmt.Errorf("size must be 4 or 8, got %q", k.String(key)))
	}
	return n, nil
}

// address parses a 32-bit address in decimal, 0x hex or 0o octal.
func address(k *koanf.Koanf, key string) (uint32, error) {
	s := strings.TrimSpace(k.String(key))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, invalid(key, err)
	}
	return uint32(v), nil
}

// size parses a byte count such as "4096", "64KB" or "1MB".
func size(k *koanf.Koanf, key string) (uint32, error) {
	s := strings.TrimSpace(k.String(key))
	if s == "" {
		return 0, nil
	}
	var v uint64
	if n, err := strconv.ParseUint(s, 0, 64); err == nil {
		v = n
	} else {
		b, err := bytesize.Parse(s)
		if err != nil {
			return 0, invalid(key, err)
		}
		v = uint64(b)
	}
	if v > 1<<32-1 {
		return 0, invalid(key, fmt.Errorf("%s exceeds the 32-bit address space", s))
	}
	return uint32(v), nil
}
