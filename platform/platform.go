package platform

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/baremetal-platform/printf"
)

// Platform owns the stateful services of the platform layer: the boot
// clock, the console, the stack boundary and the formatter configuration.
type Platform struct {
	clock     Clock
	console   Console
	formatter *printf.Formatter
	stack     StackBoundary
	ready     atomic.Bool
}

// New returns a platform with a CounterClock, a NopConsole and the minimal
// formatter profile.
func New() *Platform {
	return &Platform{
		clock:     NewCounterClock(),
		console:   NopConsole{},
		formatter: &printf.Formatter{},
	}
}

func (p *Platform) WithClock(c Clock) *Platform {
	p.clock = c
	return p
}

func (p *Platform) WithConsole(c Console) *Platform {
	p.console = c
	return p
}

func (p *Platform) WithFormatter(f *printf.Formatter) *Platform {
	p.formatter = f
	return p
}

func (p *Platform) Clock() Clock { return p.clock }
func (p *Platform) Console() Console { return p.console }
func (p *Platform) Formatter() *printf.Formatter { return p.formatter }
func (p *Platform) Stack() *StackBoundary { return &p.stack }

// Init prepares the platform. It cannot fail on this target.
func (p *Platform) Init() error {
	p.ready.Store(true)
	Logger().Debug("platform initialized",
		zap.String("profile", p.formatter.Profile.String()),
		zap.Uint32("stack_boundary", p.stack.Boundary()))
	return nil
}

// Destroy tears the platform down. Calling it twice is harmless.
func (p *Platform) Destroy() {
	if p.ready.Swap(false) {
		Logger().Debug("platform destroyed")
	}
}

// Ready reports whether Init ran and Destroy has not.
func (p *Platform) Ready() bool { return p.ready.Load() }

// Snprintf formats with the platform's formatter.
func (p *Platform) Snprintf(dst []byte, format string, args ...printf.Arg) int {
	return p.formatter.Snprintf(dst, format, args...)
}

// Vsnprintf formats with the platform's formatter.
func (p *Platform) Vsnprintf(dst []byte, format []byte, ap printf.ArgReader) int {
	return p.formatter.Vsnprintf(dst, format, ap)
}
