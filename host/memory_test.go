package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	baremetal "github.com/wippyai/baremetal-platform"
	"github.com/wippyai/baremetal-platform/errors"
)

func TestWrapMemory(t *testing.T) {
	assert.Nil(t, WrapMemory(nil))

	h := newHarness(t, New(nil))
	mem := WrapMemory(h.mem())
	size := mem.(baremetal.MemorySizer).Size()
	assert.Equal(t, uint32(2*65536), size)

	require.NoError(t, mem.WriteU8(10, 0x7f))
	require.NoError(t, mem.WriteU32(16, 0xdeadbeef))
	require.NoError(t, mem.WriteU64(24, 0x0102030405060708))

	b, err := mem.ReadU8(10)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x7f), b)

	w, err := mem.ReadU32(16)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), w)

	d, err := mem.ReadU64(24)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), d)

	view, err := mem.Read(16, 4)
	require.NoError(t, err)
	view[0] = 0xff
	w, err = mem.ReadU32(16)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeff), w, "Read returns a view")

	require.NoError(t, mem.Write(40, []byte("abc")))
	assert.Equal(t, []byte("abc"), h.bytes(40, 3))
}

func TestWrapMemory_OutOfBounds(t *testing.T) {
	h := newHarness(t, New(nil))
	mem := WrapMemory(h.mem())
	end := h.mem().Size()

	oob := &errors.Error{Phase: errors.PhaseMemory, Kind: errors.KindOutOfBounds}

	_, err := mem.Read(end-2, 4)
	assert.ErrorIs(t, err, oob)
	assert.ErrorIs(t, mem.Write(end, []byte{1}), oob)
	_, err = mem.ReadU8(end)
	assert.ErrorIs(t, err, oob)
	_, err = mem.ReadU32(end - 3)
	assert.ErrorIs(t, err, oob)
	_, err = mem.ReadU64(end - 7)
	assert.ErrorIs(t, err, oob)
	assert.ErrorIs(t, mem.WriteU8(end, 1), oob)
	assert.ErrorIs(t, mem.WriteU32(end-1, 1), oob)
	assert.ErrorIs(t, mem.WriteU64(end-1, 1), oob)
}
