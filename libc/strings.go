package libc

import (
	"bytes"
	"math"

	baremetal "github.com/wippyai/baremetal-platform"
	"github.com/wippyai/baremetal-platform/errors"
)

// NoLimit makes CString scan until the terminator or the end of memory.
const NoLimit = math.MaxUint32

// CString returns the bytes of the NUL-terminated string at ptr, without
// the terminator, reading at most limit bytes. When the memory reports its
// size the result is a view into memory. A null ptr yields nil.
func CString(mem baremetal.Memory, ptr, limit uint32) ([]byte, error) {
	if ptr == 0 {
		return nil, nil
	}
	if s, ok := mem.(baremetal.MemorySizer); ok {
		size := s.Size()
		if ptr >= size {
			return nil, errors.OutOfBounds(errors.PhaseMemory, []string{"cstring"}, int(ptr), int(size))
		}
		n := min(limit, size-ptr)
		data, err := mem.Read(ptr, n)
		if err != nil {
			return nil, err
		}
		if i := bytes.IndexByte(data, 0); i >= 0 {
			return data[:i], nil
		}
		if n < limit {
			return nil, errors.InvalidData(errors.PhaseMemory, []string{"cstring"}, "string is not terminated before the end of memory")
		}
		return data, nil
	}

	var out []byte
	for i := uint32(0); i < limit; i++ {
		c, err := mem.ReadU8(ptr + i)
		if err != nil {
			return nil, err
		}
		if c == 0 {
			break
		}
		out = append(out, c)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// Strlen returns the length of the string at ptr.
func Strlen(mem baremetal.Memory, ptr uint32) (uint32, error) {
	s, err := CString(mem, ptr, NoLimit)
	if err != nil {
		return 0, err
	}
	return uint32(len(s)), nil
}

// Strcmp compares two strings byte by byte as unsigned chars. A null
// pointer sorts before any string and equal to another null.
func Strcmp(mem baremetal.Memory, a, b uint32) (int32, error) {
	if a == 0 || b == 0 {
		switch {
		case a == b:
			return 0, nil
		case a == 0:
			return -1, nil
		default:
			return 1, nil
		}
	}
	return compare(mem, a, b, NoLimit)
}

// Strncmp compares at most n bytes of two strings.
func Strncmp(mem baremetal.Memory, a, b, n uint32) (int32, error) {
	if n == 0 {
		return 0, nil
	}
	return compare(mem, a, b, n)
}

// Memcmp compares n bytes. A null side compares equal.
func Memcmp(mem baremetal.Memory, a, b, n uint32) (int32, error) {
	if a == 0 || b == 0 || n == 0 {
		return 0, nil
	}
	x, err := mem.Read(a, n)
	if err != nil {
		return 0, err
	}
	y, err := mem.Read(b, n)
	if err != nil {
		return 0, err
	}
	for i := range x {
		if x[i] != y[i] {
			return int32(x[i]) - int32(y[i]), nil
		}
	}
	return 0, nil
}

func compare(mem baremetal.Memory, a, b, n uint32) (int32, error) {
	for i := uint32(0); i < n; i++ {
		c1, err := mem.ReadU8(a + i)
		if err != nil {
			return 0, err
		}
		c2, err := mem.ReadU8(b + i)
		if err != nil {
			return 0, err
		}
		if c1 != c2 {
			return int32(c1) - int32(c2), nil
		}
		if c1 == 0 {
			return 0, nil
		}
	}
	return 0, nil
}

// Atoi parses a decimal integer: leading spaces, an optional sign, then
// digits up to the first non-digit. Overflow wraps.
func Atoi(mem baremetal.Memory, ptr uint32) (int32, error) {
	if ptr == 0 {
		return 0, nil
	}
	s, err := CString(mem, ptr, NoLimit)
	if err != nil {
		return 0, err
	}
	return ParseInt(s), nil
}

// ParseInt is Atoi over a byte slice.
func ParseInt(s []byte) int32 {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	negative := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		negative = s[i] == '-'
		i++
	}
	var result int32
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		result = result*10 + int32(s[i]-'0')
	}
	if negative {
		return -result
	}
	return result
}
