package printf

import (
	"errors"
	"strconv"
)

// Sentinel errors returned by ArgReader implementations. The formatter never
// returns them; it renders a fallback instead.
var (
	ErrMissingArg = errors.New("printf: missing argument")
	ErrBadArg     = errors.New("printf: argument does not match directive")
)

// Kind is the tag of an Arg.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindUint
	KindChar
	KindPointer
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindChar:
		return "char"
	case KindPointer:
		return "ptr"
	case KindString:
		return "str"
	default:
		return "invalid"
	}
}

// Arg is a single tagged argument value.
type Arg struct {
	str  []byte
	bits uint64
	kind Kind
	null bool
}

var empty = []byte{}

// Int returns a signed integer argument.
func Int(v int64) Arg { return Arg{kind: KindInt, bits: uint64(v)} }

// Uint returns an unsigned integer argument.
func Uint(v uint64) Arg { return Arg{kind: KindUint, bits: v} }

// Char returns a character argument.
func Char(c byte) Arg { return Arg{kind: KindChar, bits: uint64(c)} }

// Ptr returns a pointer argument holding an address.
func Ptr(addr uint64) Arg { return Arg{kind: KindPointer, bits: addr} }

// Str returns a string argument.
func Str(s string) Arg {
	if s == "" {
		return Arg{kind: KindString, str: empty}
	}
	return Arg{kind: KindString, str: []byte(s)}
}

// Bytes returns a string argument over b. A nil slice is the null pointer.
func Bytes(b []byte) Arg {
	if b == nil {
		return Null()
	}
	return Arg{kind: KindString, str: b}
}

// Null returns a null string pointer argument.
func Null() Arg { return Arg{kind: KindString, null: true} }

// From converts a plain Go value into an Arg. Unsupported types produce a
// KindInvalid argument, which renders as BADARG.
func From(v any) Arg {
	switch v := v.(type) {
	case Arg:
		return v
	case nil:
		return Null()
	case int:
		return Int(int64(v))
	case int8:
		return Int(int64(v))
	case int16:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint:
		return Uint(uint64(v))
	case uint8:
		return Uint(uint64(v))
	case uint16:
		return Uint(uint64(v))
	case uint32:
		return Uint(uint64(v))
	case uint64:
		return Uint(v)
	case uintptr:
		return Ptr(uint64(v))
	case bool:
		if v {
			return Int(1)
		}
		return Int(0)
	case string:
		return Str(v)
	case []byte:
		return Bytes(v)
	default:
		return Arg{}
	}
}

// Args converts each value with From.
func Args(vals ...any) []Arg {
	out := make([]Arg, len(vals))
	for i, v := range vals {
		out[i] = From(v)
	}
	return out
}

// Kind returns the argument's tag.
func (a Arg) Kind() Kind { return a.kind }

// IsNull reports whether a is a null string pointer.
func (a Arg) IsNull() bool { return a.kind == KindString && a.null }

func (a Arg) String() string {
	switch a.kind {
	case KindInt:
		return "int(" + strconv.FormatInt(int64(a.bits), 10) + ")"
	case KindUint:
		return "uint(" + strconv.FormatUint(a.bits, 10) + ")"
	case KindChar:
		return "char(" + strconv.QuoteRune(rune(byte(a.bits))) + ")"
	case KindPointer:
		return "ptr(0x" + strconv.FormatUint(a.bits, 16) + ")"
	case KindString:
		if a.null {
			return "null"
		}
		return "str(" + strconv.Quote(string(a.str)) + ")"
	default:
		return "invalid"
	}
}

// ArgReader is the argument cursor. Every call consumes exactly one argument.
type ArgReader interface {
	// NextInt returns the raw bits of an integer argument size bytes wide.
	NextInt(size int) (uint64, error)
	// NextPointer returns the address held by a pointer argument.
	NextPointer() (uint64, error)
	// NextString returns the bytes of a string argument. A nil slice with a
	// nil error is the null pointer.
	NextString() ([]byte, error)
}

// ArgList is an ArgReader over an ordered sequence of tagged arguments.
type ArgList struct {
	args []Arg
	next int
}

// NewArgList returns a cursor positioned at the first of args.
func NewArgList(args ...Arg) *ArgList {
	return &ArgList{args: args}
}

// Remaining returns the number of unconsumed arguments.
func (l *ArgList) Remaining() int { return len(l.args) - l.next }

func (l *ArgList) NextInt(size int) (uint64, error) {
	a, ok := popArg(l.args, &l.next)
	return intArg(a, ok, size)
}

func (l *ArgList) NextPointer() (uint64, error) {
	return pointerArg(popArg(l.args, &l.next))
}

func (l *ArgList) NextString() ([]byte, error) {
	return stringArg(popArg(l.args, &l.next))
}

// cursor is the reader render works with: the caller's ArgReader when one
// is given, otherwise a slice walked in place. Snprintf keeps it on the
// stack so formatting does not allocate.
type cursor struct {
	reader ArgReader
	args   []Arg
	next   int
}

func (c *cursor) NextInt(size int) (uint64, error) {
	if c.reader != nil {
		return c.reader.NextInt(size)
	}
	a, ok := popArg(c.args, &c.next)
	return intArg(a, ok, size)
}

func (c *cursor) NextPointer() (uint64, error) {
	if c.reader != nil {
		return c.reader.NextPointer()
	}
	return pointerArg(popArg(c.args, &c.next))
}

func (c *cursor) NextString() ([]byte, error) {
	if c.reader != nil {
		return c.reader.NextString()
	}
	return stringArg(popArg(c.args, &c.next))
}

// popArg consumes args[*next]; ok is false past the end.
func popArg(args []Arg, next *int) (Arg, bool) {
	if *next >= len(args) {
		return Arg{}, false
	}
	a := args[*next]
	*next++
	return a, true
}

func intArg(a Arg, ok bool, size int) (uint64, error) {
	if !ok {
		return 0, ErrMissingArg
	}
	switch a.kind {
	case KindInt, KindUint, KindChar, KindPointer:
		return a.bits & mask(size*8), nil
	}
	return 0, ErrBadArg
}

func pointerArg(a Arg, ok bool) (uint64, error) {
	if !ok {
		return 0, ErrMissingArg
	}
	switch a.kind {
	case KindPointer, KindInt, KindUint:
		return a.bits, nil
	case KindString:
		if a.null {
			return 0, nil
		}
	}
	return 0, ErrBadArg
}

func stringArg(a Arg, ok bool) ([]byte, error) {
	if !ok {
		return nil, ErrMissingArg
	}
	if a.kind != KindString {
		return nil, ErrBadArg
	}
	if a.null {
		return nil, nil
	}
	return a.str, nil
}

func mask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(bits) - 1
}
