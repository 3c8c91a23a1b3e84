package alloc

import (
	"go.uber.org/zap"

	"github.com/wippyai/baremetal-platform/errors"
)

// Protection flags accepted by ProtectPages. There is no MMU; they are
// ignored.
const (
	ProtNone  = 0
	ProtRead  = 1
	ProtWrite = 2
	ProtExec  = 4
)

var zeroPage [PageSize]byte

// PageAlign rounds size up to a whole number of pages.
func PageAlign(size uint32) uint64 {
	return alignUp64(uint64(size), PageSize)
}

// MapPages maps a zeroed, page-aligned region of at least size bytes.
func (h *Heap) MapPages(size uint32) (uint32, error) {
	if size == 0 {
		return 0, errors.InvalidInput(errors.PhaseAlloc, "zero-length mapping")
	}
	length := PageAlign(size)
	if length > uint64(h.limit-h.base) {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, PageSize)
	}
	addr, ok := h.take(uint32(length), PageSize)
	if !ok {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, PageSize)
	}
	for off := uint32(0); off < uint32(length); off += PageSize {
		if err := h.mem.Write(addr+off, zeroPage[:]); err != nil {
			h.give(addr, uint32(length))
			return 0, errors.Wrap(errors.PhaseAlloc, errors.KindOutOfBounds, err, "zero mapping")
		}
	}
	h.pages[addr] = uint32(length)
	h.inUse += uint32(length)
	Logger().Debug("map pages", zap.Uint32("addr", addr), zap.Uint64("length", length))
	return addr, nil
}

// UnmapPages releases a mapping. A null address or zero size is ignored.
func (h *Heap) UnmapPages(addr, size uint32) error {
	if addr == 0 || size == 0 {
		return nil
	}
	length, ok := h.pages[addr]
	if !ok {
		return notMapped(addr)
	}
	delete(h.pages, addr)
	h.inUse -= length
	h.give(addr, length)
	Logger().Debug("unmap pages", zap.Uint32("addr", addr), zap.Uint32("length", length))
	return nil
}

// ProtectPages changes the protection of a mapping. It succeeds for any
// non-empty range.
func (h *Heap) ProtectPages(addr, size uint32, prot int) error {
	if addr == 0 || size == 0 {
		return errors.InvalidInput(errors.PhaseAlloc, "empty protection range")
	}
	return nil
}

// RemapPages moves a mapping to a new region of newSize bytes, keeping the
// first min(length, newSize) bytes where length is the size recorded when
// addr was mapped; oldSize is not consulted. An unknown addr fails before
// anything is mapped.
func (h *Heap) RemapPages(addr, oldSize, newSize uint32) (uint32, error) {
	if addr == 0 {
		return 0, errors.NilPointer(errors.PhaseAlloc, nil, "mapping")
	}
	length, ok := h.pages[addr]
	if !ok {
		return 0, notMapped(addr)
	}
	next, err := h.MapPages(newSize)
	if err != nil {
		return 0, err
	}
	if err := h.copy(next, addr, min(length, newSize)); err != nil {
		_ = h.UnmapPages(next, newSize)
		return 0, err
	}
	if err := h.UnmapPages(addr, length); err != nil {
		return 0, err
	}
	return next, nil
}

func notMapped(addr uint32) error {
	return errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
		Value(addr).
		Detail("address 0x%x is not a mapping", addr).
		Build()
}
