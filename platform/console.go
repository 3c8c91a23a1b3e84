package platform

import (
	"bytes"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/baremetal-platform/printf"
)

// Console is the diagnostic output sink.
type Console interface {
	Printf(format string, args ...printf.Arg) int
	Vprintf(format []byte, ap printf.ArgReader) int
	// Puts is the unformatted variant.
	Puts(s []byte) int
}

// NopConsole discards everything and reports 0 bytes.
type NopConsole struct{}

func (NopConsole) Printf(string, ...printf.Arg) int { return 0 }
func (NopConsole) Vprintf([]byte, printf.ArgReader) int { return 0 }
func (NopConsole) Puts([]byte) int { return 0 }

// DefaultConsoleBuffer is the line buffer size of a LogConsole.
const DefaultConsoleBuffer = 512

// LogConsole renders each call into a fixed line buffer and emits the
// result as one log entry. Output longer than the buffer is truncated.
type LogConsole struct {
	mu  sync.Mutex
	log *zap.Logger
	fmt *printf.Formatter
	buf []byte
}

// NewLogConsole returns a console writing to log. A size of zero selects
// DefaultConsoleBuffer.
func NewLogConsole(log *zap.Logger, f *printf.Formatter, size int) *LogConsole {
	if log == nil {
		log = zap.NewNop()
	}
	if f == nil {
		f = &printf.Formatter{}
	}
	if size <= 0 {
		size = DefaultConsoleBuffer
	}
	return &LogConsole{log: log, fmt: f, buf: make([]byte, size)}
}

func (c *LogConsole) Printf(format string, args ...printf.Arg) int {
	return c.Vprintf([]byte(format), printf.NewArgList(args...))
}

func (c *LogConsole) Vprintf(format []byte, ap printf.ArgReader) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.fmt.Vsnprintf(c.buf, format, ap)
	line := c.buf[:min(n, len(c.buf)-1)]
	line = bytes.TrimRight(line, "\r\n")
	if len(line) > 0 {
		c.log.Info(string(line))
	}
	return n
}

// Puts discards s.
func (c *LogConsole) Puts([]byte) int { return 0 }
