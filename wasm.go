package baremetal

import (
	"encoding/binary"

	"github.com/wippyai/baremetal-platform/errors"
)

// Memory represents a linear memory the platform layer reads and writes.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator is the raw allocation contract of the platform layer.
// A zero pointer is the null pointer.
type Allocator interface {
	Allocate(size uint32) (uint32, error)
	Reallocate(ptr, size uint32) (uint32, error)
	Release(ptr uint32) error
}

// ByteMemory is a Memory backed by a plain byte slice.
type ByteMemory []byte

// NewByteMemory returns a zeroed memory of the given size.
func NewByteMemory(size uint32) ByteMemory {
	return make(ByteMemory, size)
}

func (m ByteMemory) Size() uint32 { return uint32(len(m)) }

func (m ByteMemory) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(m)) {
		return errors.OutOfBounds(errors.PhaseMemory, nil, int(offset)+int(length), len(m))
	}
	return nil
}

// Read returns a view of length bytes at offset. Writes to the view are
// visible in memory.
func (m ByteMemory) Read(offset, length uint32) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	return m[offset : offset+length : offset+length], nil
}

func (m ByteMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m[offset:], data)
	return nil
}

func (m ByteMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m[offset], nil
}

func (m ByteMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m[offset:]), nil
}

func (m ByteMemory) ReadU64(offset uint32) (uint64, error) {
	if err := m.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m[offset:]), nil
}

func (m ByteMemory) WriteU8(offset uint32, value uint8) error {
	if err := m.check(offset, 1); err != nil {
		return err
	}
	m[offset] = value
	return nil
}

func (m ByteMemory) WriteU32(offset uint32, value uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m[offset:], value)
	return nil
}

func (m ByteMemory) WriteU64(offset uint32, value uint64) error {
	if err := m.check(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m[offset:], value)
	return nil
}
