// Package printf implements the bounded formatted-output primitive of the
// platform layer: render a format string and its arguments into a
// fixed-capacity caller buffer.
//
// The contract is that of C snprintf with two deliberate differences:
//
//   - the result is the number of bytes actually written before the
//     terminator (the truncated length), unless Formatter.Untruncated is set;
//   - arguments are tagged values ([Arg]) read through an [ArgReader], so an
//     argument/directive mismatch renders a marker instead of being undefined.
//
// Supported directives are %s %d %i %u %x %X %p %c and %%, with the length
// modifiers hh, h, l, ll and z. Flags, width and precision are parsed; the
// minimal profile discards them, [ProfilePadded] honours '-', '0', the width
// and the precision of %s.
//
// Degraded renderings:
//
//	%s with a null pointer   (null)
//	unknown verb %q          %q
//	missing argument         %!d(MISSING)
//	wrong argument kind      %!s(BADARG)
//
// The output always ends with a NUL byte and never extends past len(dst).
//
//	buf := make([]byte, 16)
//	n := printf.Snprintf(buf, "%s=%d", printf.Str("x"), printf.Int(-3))
//	fmt.Println(string(buf[:n])) // x=-3
package printf
