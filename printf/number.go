package printf

const (
	lowerDigits = "0123456789abcdef"
	upperDigits = "0123456789ABCDEF"
)

// scratch holds a rendered number: 22 octal digits of a 64-bit value is the
// widest case for base >= 8.
type scratch [24]byte

// formatUint renders v in base into s, least significant digit first from
// the end of the array, and returns the rendered digits.
func formatUint(s *scratch, v uint64, base uint64, upper bool) []byte {
	digits := lowerDigits
	if upper {
		digits = upperDigits
	}
	i := len(s)
	if v == 0 {
		i--
		s[i] = '0'
		return s[i:]
	}
	for v > 0 {
		i--
		s[i] = digits[v%base]
		v /= base
	}
	return s[i:]
}

// signExtend interprets the low bits of raw as a two's complement integer.
func signExtend(raw uint64, bits int) int64 {
	if bits >= 64 {
		return int64(raw)
	}
	shift := uint(64 - bits)
	return int64(raw<<shift) >> shift
}

// magnitude splits v into its sign prefix and absolute value. Negation
// happens in unsigned arithmetic so the most negative value survives.
func magnitude(v int64) (string, uint64) {
	if v < 0 {
		return "-", -uint64(v)
	}
	return "", uint64(v)
}
