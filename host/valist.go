package host

import (
	"math"

	baremetal "github.com/wippyai/baremetal-platform"
	"github.com/wippyai/baremetal-platform/libc"
	"github.com/wippyai/baremetal-platform/printf"
)

// VaList is a printf.ArgReader over a wasm32 C variadic argument area.
// Every value occupies the next address aligned to its size: 4 bytes for
// int, char, pointers and promoted short types, 8 bytes for long long.
// Strings are 4-byte pointers to NUL-terminated data.
type VaList struct {
	mem baremetal.Memory
	ptr uint32
}

var _ printf.ArgReader = (*VaList)(nil)

// NewVaList returns a cursor at ap. A zero ap is an empty list.
func NewVaList(mem baremetal.Memory, ap uint32) *VaList {
	return &VaList{mem: mem, ptr: ap}
}

// Offset returns the address of the next unread slot.
func (v *VaList) Offset() uint32 { return v.ptr }

func (v *VaList) next(size uint32) (uint64, error) {
	if v.ptr == 0 {
		return 0, printf.ErrMissingArg
	}
	// The aligned slot must end inside the 32-bit address space.
	if v.ptr > math.MaxUint32-(size-1) {
		return 0, printf.ErrBadArg
	}
	addr := (v.ptr + size - 1) &^ (size - 1)
	var (
		raw uint64
		err error
	)
	if size == 8 {
		raw, err = v.mem.ReadU64(addr)
	} else {
		var w uint32
		w, err = v.mem.ReadU32(addr)
		raw = uint64(w)
	}
	if err != nil {
		return 0, err
	}
	v.ptr = addr + size
	return raw, nil
}

func (v *VaList) NextInt(size int) (uint64, error) {
	if size == 8 {
		return v.next(8)
	}
	return v.next(4)
}

func (v *VaList) NextPointer() (uint64, error) {
	return v.next(4)
}

func (v *VaList) NextString() ([]byte, error) {
	p, err := v.next(4)
	if err != nil {
		return nil, err
	}
	if p == 0 {
		return nil, nil
	}
	return libc.CString(v.mem, uint32(p), libc.NoLimit)
}
