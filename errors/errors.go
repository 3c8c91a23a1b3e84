package errors

import (
	"fmt"
	"strings"
)

// Phase names the layer that failed.
type Phase string

const (
	PhaseMemory   Phase = "memory"   // linear memory access
	PhaseAlloc    Phase = "alloc"    // heap and page mapping
	PhaseHost     Phase = "host"     // env host module
	PhasePlatform Phase = "platform" // OS-service stand-ins
	PhaseConfig   Phase = "config"   // configuration loading
	PhaseLoad     Phase = "load"     // guest module loading
)

// Kind is the failure category. It maps onto the C return conventions the
// host module reports to guests.
type Kind string

const (
	KindOutOfBounds   Kind = "out_of_bounds"
	KindInvalidData   Kind = "invalid_data"
	KindUnsupported   Kind = "unsupported"
	KindAllocation    Kind = "allocation"
	KindOverflow      Kind = "overflow"
	KindNilPointer    Kind = "nil_pointer"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindInstantiation Kind = "instantiation"
	KindAborted       Kind = "aborted"
)

// Error is a platform-layer failure. Path locates it (a config key, a host
// function, a heap operation) and Value holds the offending address, size or
// setting when there is one.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error renders "phase: path: kind: detail (value): cause", omitting empty
// parts. Addresses and sizes held as uint32 print in hex.
func (e *Error) Error() string {
	parts := make([]string, 0, 5)
	parts = append(parts, string(e.Phase))
	if len(e.Path) > 0 {
		parts = append(parts, strings.Join(e.Path, "."))
	}

	head := string(e.Kind)
	if e.Detail != "" {
		head += ": " + e.Detail
	}
	switch v := e.Value.(type) {
	case nil:
	case uint32:
		head += fmt.Sprintf(" (%#x)", v)
	default:
		head += fmt.Sprintf(" (%v)", v)
	}
	parts = append(parts, head)

	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches a target *Error by kind, and by phase when the target sets one.
// errors.Is(err, &Error{Kind: KindNotFound}) matches a miss from any layer.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e.Kind != t.Kind {
		return false
	}
	return t.Phase == "" || t.Phase == e.Phase
}

// Builder assembles an Error field by field.
type Builder struct {
	err Error
}

// New starts an error of the given phase and kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the message; with args it is a format string.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	b.err.Detail = msg
	return b
}

func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// AllocationFailed reports a heap that could not satisfy size bytes at align.
func AllocationFailed(phase Phase, size, align uint32) *Error {
	return New(phase, KindAllocation).
		Value(size).
		Detail("no free span for %d bytes at alignment %d", size, align).
		Build()
}

// Unsupported reports a service the single-core platform does not offer.
func Unsupported(phase Phase, what string) *Error {
	return New(phase, KindUnsupported).Detail(what + " not supported").Build()
}

// OutOfBounds reports an access at index against a region of length bytes.
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return New(phase, KindOutOfBounds).
		Path(path...).
		Value(index).
		Detail("offset %d outside %d-byte region", index, length).
		Build()
}

// NilPointer reports a null guest pointer where what was required.
func NilPointer(phase Phase, path []string, what string) *Error {
	return New(phase, KindNilPointer).Path(path...).Detail("null " + what).Build()
}

// Overflow reports value not fitting in limit.
func Overflow(phase Phase, path []string, value any, limit string) *Error {
	return New(phase, KindOverflow).
		Path(path...).
		Value(value).
		Detail("exceeds " + limit).
		Build()
}

func InvalidInput(phase Phase, detail string) *Error {
	return New(phase, KindInvalidInput).Detail(detail).Build()
}

// InvalidData reports corrupt state read back from memory or a file.
func InvalidData(phase Phase, path []string, detail string) *Error {
	return New(phase, KindInvalidData).Path(path...).Detail(detail).Build()
}

func NotFound(phase Phase, what string) *Error {
	return New(phase, KindNotFound).Detail(what + " not found").Build()
}

// Wrap attaches phase, kind and detail to cause.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return New(phase, kind).Cause(cause).Detail(detail).Build()
}
