package printf

import (
	"bytes"
	"errors"
)

const nullText = "(null)"

// Formatter renders format strings into bounded buffers. The zero value is
// the minimal profile for a 32-bit target.
type Formatter struct {
	Profile Profile
	// LongSize is the number of bytes an 'l' argument occupies (4 or 8).
	LongSize int
	// SizeSize is the number of bytes a 'z' argument occupies (4 or 8).
	SizeSize int
	// Untruncated makes the formatters report the length the output would
	// have had with unlimited capacity instead of the bytes written.
	Untruncated bool
}

var std Formatter

// Snprintf renders format with args into dst. See Formatter.Snprintf.
func Snprintf(dst []byte, format string, args ...Arg) int {
	return std.Snprintf(dst, format, args...)
}

// Vsnprintf renders format with the arguments read from ap into dst. See
// Formatter.Vsnprintf.
func Vsnprintf(dst []byte, format []byte, ap ArgReader) int {
	return std.Vsnprintf(dst, format, ap)
}

// Snprintf renders format with args into dst.
//
// At most len(dst)-1 content bytes are written, followed by a NUL. The result
// is the number of content bytes written. An empty dst is left untouched and
// yields 0.
func (f *Formatter) Snprintf(dst []byte, format string, args ...Arg) int {
	if len(dst) == 0 {
		return 0
	}
	ap := cursor{args: args}
	return render(f, dst, format, &ap)
}

// Vsnprintf is Snprintf with an explicit argument cursor. A nil format is the
// null format string: only the terminator is written.
func (f *Formatter) Vsnprintf(dst []byte, format []byte, ap ArgReader) int {
	if len(dst) == 0 {
		return 0
	}
	if format == nil {
		dst[0] = 0
		return 0
	}
	c := cursor{reader: ap}
	return render(f, dst, format, &c)
}

func render[S ~string | ~[]byte](f *Formatter, dst []byte, format S, ap *cursor) int {
	out := newOutput(dst, f.Untruncated)

	for i := 0; i < len(format) && format[i] != 0 && !out.done(); {
		if format[i] != '%' {
			out.put(format[i])
			i++
			continue
		}
		var d Directive
		d, i = parseDirective(format, i)
		f.convert(&out, d, ap)
	}

	out.terminate()
	if f.Untruncated {
		return out.attempted
	}
	return out.pos
}

func (f *Formatter) convert(out *output, d Directive, ap *cursor) {
	var s scratch

	switch d.Conv {
	case ConvPercent, ConvIncomplete:
		out.put('%')

	case ConvUnknown:
		out.put('%')
		out.put(d.Verb)

	case ConvString:
		str, err := ap.NextString()
		if err != nil {
			badArg(out, d, err)
			return
		}
		if str == nil {
			f.emitString(out, d, nullText)
			return
		}
		if n := bytes.IndexByte(str, 0); n >= 0 {
			str = str[:n]
		}
		if f.Profile == ProfilePadded && d.Precision >= 0 && d.Precision < len(str) {
			str = str[:d.Precision]
		}
		f.emit(out, d, "", str, false)

	case ConvChar:
		raw, err := ap.NextInt(4)
		if err != nil {
			badArg(out, d, err)
			return
		}
		s[0] = byte(raw)
		f.emit(out, d, "", s[:1], false)

	case ConvSigned:
		size, bits := f.intWidth(d.Length)
		raw, err := ap.NextInt(size)
		if err != nil {
			badArg(out, d, err)
			return
		}
		sign, mag := magnitude(signExtend(raw, bits))
		f.emit(out, d, sign, formatUint(&s, mag, 10, false), true)

	case ConvUnsigned, ConvHexLower, ConvHexUpper:
		size, bits := f.intWidth(d.Length)
		raw, err := ap.NextInt(size)
		if err != nil {
			badArg(out, d, err)
			return
		}
		base := uint64(10)
		if d.Conv != ConvUnsigned {
			base = 16
		}
		f.emit(out, d, "", formatUint(&s, raw&mask(bits), base, d.Conv == ConvHexUpper), true)

	case ConvPointer:
		addr, err := ap.NextPointer()
		if err != nil {
			badArg(out, d, err)
			return
		}
		f.emit(out, d, "0x", formatUint(&s, addr, 16, false), false)
	}
}

// intWidth returns the bytes consumed from the cursor and the significant
// bits of the value for a length modifier. Arguments narrower than int are
// promoted by the caller, so they still occupy 4 bytes.
func (f *Formatter) intWidth(l LengthModifier) (size, bits int) {
	switch l {
	case LengthChar:
		return 4, 8
	case LengthShort:
		return 4, 16
	case LengthLong:
		size = wordSize(f.LongSize)
	case LengthLongLong:
		size = 8
	case LengthSize:
		size = wordSize(f.SizeSize)
	default:
		size = 4
	}
	return size, size * 8
}

func wordSize(n int) int {
	if n == 8 {
		return 8
	}
	return 4
}

func (f *Formatter) pad(d Directive, n int) int {
	if f.Profile != ProfilePadded || d.Width <= n {
		return 0
	}
	return d.Width - n
}

// emit writes prefix and body padded to the directive's field width.
func (f *Formatter) emit(out *output, d Directive, prefix string, body []byte, numeric bool) {
	n := f.pad(d, len(prefix)+len(body))
	switch {
	case d.Flags&FlagLeft != 0:
		out.writeString(prefix)
		out.write(body)
		out.fill(' ', n)
	case numeric && d.Flags&FlagZero != 0:
		out.writeString(prefix)
		out.fill('0', n)
		out.write(body)
	default:
		out.fill(' ', n)
		out.writeString(prefix)
		out.write(body)
	}
}

func (f *Formatter) emitString(out *output, d Directive, body string) {
	n := f.pad(d, len(body))
	if d.Flags&FlagLeft == 0 {
		out.fill(' ', n)
	}
	out.writeString(body)
	if d.Flags&FlagLeft != 0 {
		out.fill(' ', n)
	}
}

func badArg(out *output, d Directive, err error) {
	out.put('%')
	out.put('!')
	out.put(d.Verb)
	if errors.Is(err, ErrMissingArg) {
		out.writeString("(MISSING)")
	} else {
		out.writeString("(BADARG)")
	}
}
