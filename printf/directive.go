package printf

// Flags is the set of flag characters seen in a directive.
type Flags uint8

const (
	FlagLeft  Flags = 1 << iota // '-'
	FlagPlus                    // '+'
	FlagSpace                   // ' '
	FlagAlt                     // '#'
	FlagZero                    // '0'
)

// LengthModifier selects the width of the integer argument consumed.
type LengthModifier uint8

const (
	LengthNone     LengthModifier = iota
	LengthChar                    // hh
	LengthShort                   // h
	LengthLong                    // l
	LengthLongLong                // ll
	LengthSize                    // z
)

func (l LengthModifier) String() string {
	switch l {
	case LengthChar:
		return "hh"
	case LengthShort:
		return "h"
	case LengthLong:
		return "l"
	case LengthLongLong:
		return "ll"
	case LengthSize:
		return "z"
	default:
		return ""
	}
}

// Conversion is the kind of a directive.
type Conversion uint8

const (
	ConvUnknown    Conversion = iota // unrecognized verb
	ConvIncomplete                   // format ended inside the directive
	ConvPercent                      // %%
	ConvString                       // %s
	ConvSigned                       // %d %i
	ConvUnsigned                     // %u
	ConvHexLower                     // %x
	ConvHexUpper                     // %X
	ConvPointer                      // %p
	ConvChar                         // %c
)

// maxWidth caps parsed widths and precisions.
const maxWidth = 1 << 20

// Directive is one parsed conversion directive.
type Directive struct {
	Flags     Flags
	Width     int
	Precision int // -1 when absent
	Length    LengthModifier
	Conv      Conversion
	Verb      byte
}

// ParseDirective parses the directive whose '%' is at format[i]. It returns
// the directive and the index of the first byte after it. A NUL byte ends the
// format like the end of the slice does.
func ParseDirective(format []byte, i int) (Directive, int) {
	return parseDirective(format, i)
}

func parseDirective[S ~string | ~[]byte](format S, i int) (Directive, int) {
	d := Directive{Precision: -1}
	i++

	if at(format, i) == '%' {
		d.Conv, d.Verb = ConvPercent, '%'
		return d, i + 1
	}

flags:
	for ; ; i++ {
		switch at(format, i) {
		case '-':
			d.Flags |= FlagLeft
		case '+':
			d.Flags |= FlagPlus
		case ' ':
			d.Flags |= FlagSpace
		case '#':
			d.Flags |= FlagAlt
		case '0':
			d.Flags |= FlagZero
		default:
			break flags
		}
	}

	d.Width, i = digits(format, i)
	if at(format, i) == '.' {
		d.Precision, i = digits(format, i+1)
	}

	switch at(format, i) {
	case 'l':
		i++
		d.Length = LengthLong
		if at(format, i) == 'l' {
			i++
			d.Length = LengthLongLong
		}
	case 'h':
		i++
		d.Length = LengthShort
		if at(format, i) == 'h' {
			i++
			d.Length = LengthChar
		}
	case 'z':
		i++
		d.Length = LengthSize
	}

	c := at(format, i)
	if c == 0 {
		d.Conv = ConvIncomplete
		return d, i
	}
	d.Verb = c
	d.Conv = conversionOf(c)
	return d, i + 1
}

func conversionOf(c byte) Conversion {
	switch c {
	case 's':
		return ConvString
	case 'd', 'i':
		return ConvSigned
	case 'u':
		return ConvUnsigned
	case 'x':
		return ConvHexLower
	case 'X':
		return ConvHexUpper
	case 'p':
		return ConvPointer
	case 'c':
		return ConvChar
	case '%':
		return ConvPercent
	default:
		return ConvUnknown
	}
}

func at[S ~string | ~[]byte](s S, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func digits[S ~string | ~[]byte](s S, i int) (int, int) {
	n := 0
	for c := at(s, i); c >= '0' && c <= '9'; c = at(s, i) {
		if n < maxWidth {
			n = n*10 + int(c-'0')
		}
		i++
	}
	if n > maxWidth {
		n = maxWidth
	}
	return n, i
}
