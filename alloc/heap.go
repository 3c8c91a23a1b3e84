package alloc

import (
	"sort"

	"go.uber.org/zap"

	baremetal "github.com/wippyai/baremetal-platform"
	"github.com/wippyai/baremetal-platform/errors"
)

const (
	// Align is the alignment of every pointer returned by Allocate.
	Align = 8
	// HeaderSize is the size header stored in front of each block.
	HeaderSize = 8
	// PageSize is the alignment and granularity of page mappings.
	PageSize = 4096
)

var _ baremetal.Allocator = (*Heap)(nil)

type span struct {
	addr, size uint32
}

type block struct {
	start uint32 // address of the header
	size  uint32 // bytes requested by the caller
	total uint32 // bytes taken from the region
}

// Heap is a first-fit allocator over [base, base+size) of a Memory.
type Heap struct {
	mem   baremetal.Memory
	base  uint32
	limit uint32
	free  []span // sorted by addr, never adjacent
	live  map[uint32]block
	pages map[uint32]uint32 // mapped address -> mapped length
	inUse uint32
}

// NewHeap returns a heap managing size bytes of mem starting at base. The
// region is trimmed inwards to Align.
func NewHeap(mem baremetal.Memory, base, size uint32) (*Heap, error) {
	if mem == nil {
		return nil, errors.NilPointer(errors.PhaseAlloc, nil, "memory")
	}
	end := uint64(base) + uint64(size)
	if end > 1<<32 {
		return nil, errors.Overflow(errors.PhaseAlloc, nil, end, "32-bit address space")
	}
	if s, ok := mem.(baremetal.MemorySizer); ok && end > uint64(s.Size()) {
		return nil, errors.OutOfBounds(errors.PhaseAlloc, []string{"heap"}, int(end), int(s.Size()))
	}

	start := alignUp64(uint64(base), Align)
	limit := end &^ (Align - 1)
	if limit > 1<<32-Align {
		limit = 1<<32 - Align
	}
	if start == 0 {
		// Keep address 0 out of the heap so no block can look like null.
		start = Align
	}
	if start >= limit {
		return nil, errors.InvalidInput(errors.PhaseAlloc, "heap region is too small")
	}

	h := &Heap{
		mem:   mem,
		base:  uint32(start),
		limit: uint32(limit),
		live:  make(map[uint32]block),
		pages: make(map[uint32]uint32),
	}
	h.free = []span{{addr: h.base, size: h.limit - h.base}}
	return h, nil
}

// Base returns the first address managed by the heap.
func (h *Heap) Base() uint32 { return h.base }

// Limit returns the address one past the managed region.
func (h *Heap) Limit() uint32 { return h.limit }

// InUse returns the number of region bytes held by live blocks and
// mappings, headers and padding included.
func (h *Heap) InUse() uint32 { return h.inUse }

// Free returns the number of region bytes on the free list.
func (h *Heap) Free() uint32 {
	var n uint32
	for _, s := range h.free {
		n += s.size
	}
	return n
}

// Allocate returns a pointer to size bytes. A zero size yields the null
// pointer without error.
func (h *Heap) Allocate(size uint32) (uint32, error) {
	if size == 0 {
		return 0, nil
	}
	total := alignUp64(uint64(size), Align) + HeaderSize
	if total > uint64(h.limit-h.base) {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, Align)
	}

	start, ok := h.take(uint32(total), Align)
	if !ok {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, Align)
	}
	if err := h.mem.WriteU64(start, uint64(total)); err != nil {
		h.give(start, uint32(total))
		return 0, errors.Wrap(errors.PhaseAlloc, errors.KindOutOfBounds, err, "write size header")
	}

	ptr := start + HeaderSize
	h.live[ptr] = block{start: start, size: size, total: uint32(total)}
	h.inUse += uint32(total)
	Logger().Debug("allocate", zap.Uint32("size", size), zap.Uint32("ptr", ptr))
	return ptr, nil
}

// Release returns the block at ptr to the heap. Releasing the null pointer
// does nothing.
func (h *Heap) Release(ptr uint32) error {
	if ptr == 0 {
		return nil
	}
	b, err := h.lookup(ptr)
	if err != nil {
		return err
	}
	delete(h.live, ptr)
	h.inUse -= b.total
	h.give(b.start, b.total)
	Logger().Debug("release", zap.Uint32("ptr", ptr), zap.Uint32("size", b.size))
	return nil
}

// Reallocate resizes the block at ptr. A null ptr allocates, a zero size
// releases and returns the null pointer, an unchanged size returns ptr.
// Otherwise the contents move to a new block and the old one is released.
func (h *Heap) Reallocate(ptr, size uint32) (uint32, error) {
	if ptr == 0 {
		return h.Allocate(size)
	}
	if size == 0 {
		return 0, h.Release(ptr)
	}
	b, err := h.lookup(ptr)
	if err != nil {
		return 0, err
	}
	if b.size == size {
		return ptr, nil
	}

	next, err := h.Allocate(size)
	if err != nil {
		return 0, err
	}
	if err := h.copy(next, ptr, min(b.size, size)); err != nil {
		_ = h.Release(next)
		return 0, err
	}
	if err := h.Release(ptr); err != nil {
		return 0, err
	}
	return next, nil
}

// Size returns the size requested for the block at ptr.
func (h *Heap) Size(ptr uint32) (uint32, error) {
	b, err := h.lookup(ptr)
	if err != nil {
		return 0, err
	}
	return b.size, nil
}

// lookup validates ptr against the live table and the in-memory header.
func (h *Heap) lookup(ptr uint32) (block, error) {
	b, ok := h.live[ptr]
	if !ok {
		return block{}, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Value(ptr).
			Detail("pointer 0x%x was not returned by the allocator", ptr).
			Build()
	}
	header, err := h.mem.ReadU64(b.start)
	if err != nil {
		return block{}, errors.Wrap(errors.PhaseAlloc, errors.KindOutOfBounds, err, "read size header")
	}
	if header != uint64(b.total) {
		return block{}, errors.New(errors.PhaseAlloc, errors.KindInvalidData).
			Value(ptr).
			Detail("size header at 0x%x is %d, want %d", b.start, header, b.total).
			Build()
	}
	return b, nil
}

func (h *Heap) copy(dst, src, n uint32) error {
	if n == 0 {
		return nil
	}
	data, err := h.mem.Read(src, n)
	if err != nil {
		return errors.Wrap(errors.PhaseAlloc, errors.KindOutOfBounds, err, "read block")
	}
	// Read may return a view into memory; blocks never overlap, so the copy
	// is safe without a temporary.
	if err := h.mem.Write(dst, data); err != nil {
		return errors.Wrap(errors.PhaseAlloc, errors.KindOutOfBounds, err, "write block")
	}
	return nil
}

// take carves size bytes aligned to align from the first span that fits.
func (h *Heap) take(size, align uint32) (uint32, bool) {
	for i, s := range h.free {
		addr := uint32(alignUp64(uint64(s.addr), uint64(align)))
		pad := addr - s.addr
		if pad > s.size || s.size-pad < size {
			continue
		}
		rest := s.size - pad - size
		h.free = append(h.free[:i], h.free[i+1:]...)
		if pad > 0 {
			h.insert(span{addr: s.addr, size: pad})
		}
		if rest > 0 {
			h.insert(span{addr: addr + size, size: rest})
		}
		return addr, true
	}
	return 0, false
}

// give returns a span to the free list, merging it with its neighbours.
func (h *Heap) give(addr, size uint32) {
	h.insert(span{addr: addr, size: size})
}

func (h *Heap) insert(s span) {
	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].addr >= s.addr })
	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = s

	if i+1 < len(h.free) && h.free[i].addr+h.free[i].size == h.free[i+1].addr {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].addr+h.free[i-1].size == h.free[i].addr {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
}

func alignUp64(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
