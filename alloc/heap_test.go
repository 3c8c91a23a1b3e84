package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	baremetal "github.com/wippyai/baremetal-platform"
	"github.com/wippyai/baremetal-platform/errors"
)

func newTestHeap(t *testing.T, size uint32) (*Heap, baremetal.ByteMemory) {
	t.Helper()
	mem := baremetal.NewByteMemory(size + 1024)
	h, err := NewHeap(mem, 1024, size)
	require.NoError(t, err)
	return h, mem
}

func TestNewHeap(t *testing.T) {
	mem := baremetal.NewByteMemory(4096)

	h, err := NewHeap(mem, 3, 100)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), h.Base())
	assert.Equal(t, uint32(96), h.Limit())
	assert.Equal(t, uint32(88), h.Free())

	h, err = NewHeap(mem, 0, 64)
	require.NoError(t, err)
	assert.Equal(t, uint32(Align), h.Base(), "address 0 stays out of the heap")

	_, err = NewHeap(mem, 4000, 200)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindOutOfBounds})

	_, err = NewHeap(mem, 16, 4)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindInvalidInput})

	_, err = NewHeap(nil, 0, 64)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindNilPointer})
}

func TestAllocate(t *testing.T) {
	h, mem := newTestHeap(t, 4096)

	p, err := h.Allocate(10)
	require.NoError(t, err)
	assert.Zero(t, p%Align)
	assert.Equal(t, h.Base()+HeaderSize, p)

	header, err := mem.ReadU64(p - HeaderSize)
	require.NoError(t, err)
	assert.Equal(t, uint64(16+HeaderSize), header)
	assert.Equal(t, uint32(24), h.InUse())

	q, err := h.Allocate(1)
	require.NoError(t, err)
	assert.Equal(t, p+16+HeaderSize, q)

	size, err := h.Size(q)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), size)
}

func TestTake_AlignsInsideSpan(t *testing.T) {
	h, _ := newTestHeap(t, 3*PageSize)
	require.NotZero(t, h.Base()%PageSize)
	free := h.Free()

	addr, ok := h.take(100, PageSize)
	require.True(t, ok)
	assert.Equal(t, uint32(PageSize), addr)
	assert.Equal(t, free-100, h.Free(), "the alignment padding stays on the free list")

	next, ok := h.take(8, PageSize)
	require.True(t, ok)
	assert.Equal(t, uint32(2*PageSize), next)

	_, ok = h.take(2*PageSize, PageSize)
	assert.False(t, ok)

	low, ok := h.take(8, Align)
	require.True(t, ok)
	assert.Equal(t, h.Base(), low, "padding below the page is reused")
}

func TestAllocate_Zero(t *testing.T) {
	h, _ := newTestHeap(t, 256)
	p, err := h.Allocate(0)
	require.NoError(t, err)
	assert.Zero(t, p)
	assert.Zero(t, h.InUse())
}

func TestAllocate_Exhausted(t *testing.T) {
	h, _ := newTestHeap(t, 64)

	_, err := h.Allocate(1 << 20)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindAllocation})

	p, err := h.Allocate(56)
	require.NoError(t, err)
	_, err = h.Allocate(1)
	assert.Error(t, err)

	require.NoError(t, h.Release(p))
	_, err = h.Allocate(56)
	assert.NoError(t, err)
}

func TestRelease_Coalesces(t *testing.T) {
	h, _ := newTestHeap(t, 1024)
	total := h.Free()

	var ptrs []uint32
	for i := 0; i < 5; i++ {
		p, err := h.Allocate(40)
		require.NoError(t, err)
		ptrs = append(ptrs, p)
	}
	for _, i := range []int{1, 3, 0, 4, 2} {
		require.NoError(t, h.Release(ptrs[i]))
	}

	assert.Equal(t, total, h.Free())
	assert.Len(t, h.free, 1)
	assert.Zero(t, h.InUse())
}

func TestRelease_Errors(t *testing.T) {
	h, mem := newTestHeap(t, 1024)

	require.NoError(t, h.Release(0))

	err := h.Release(h.Base() + 64)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindInvalidInput})

	p, err := h.Allocate(8)
	require.NoError(t, err)
	require.NoError(t, mem.WriteU64(p-HeaderSize, 9999))
	err = h.Release(p)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindInvalidData})

	require.NoError(t, mem.WriteU64(p-HeaderSize, 16))
	require.NoError(t, h.Release(p))
	assert.Error(t, h.Release(p), "double release")
}

func TestReallocate(t *testing.T) {
	h, mem := newTestHeap(t, 1024)

	p, err := h.Reallocate(0, 4)
	require.NoError(t, err)
	require.NoError(t, mem.Write(p, []byte("abcd")))

	same, err := h.Reallocate(p, 4)
	require.NoError(t, err)
	assert.Equal(t, p, same)

	grown, err := h.Reallocate(p, 32)
	require.NoError(t, err)
	assert.NotEqual(t, p, grown)
	data, err := mem.Read(grown, 4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))
	_, err = h.Size(p)
	assert.Error(t, err, "old block is released")

	shrunk, err := h.Reallocate(grown, 2)
	require.NoError(t, err)
	data, err = mem.Read(shrunk, 2)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))

	null, err := h.Reallocate(shrunk, 0)
	require.NoError(t, err)
	assert.Zero(t, null)
	assert.Zero(t, h.InUse())
}

func TestReallocate_FailureKeepsBlock(t *testing.T) {
	h, _ := newTestHeap(t, 128)

	p, err := h.Allocate(16)
	require.NoError(t, err)

	_, err = h.Reallocate(p, 4096)
	require.Error(t, err)

	size, err := h.Size(p)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), size)
}
