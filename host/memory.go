package host

import (
	"github.com/tetratelabs/wazero/api"

	baremetal "github.com/wippyai/baremetal-platform"
	"github.com/wippyai/baremetal-platform/errors"
)

// WrapMemory adapts a wazero memory to baremetal.Memory. Read returns a
// view of guest memory, so writes through it are visible to the guest.
func WrapMemory(mem api.Memory) baremetal.Memory {
	if mem == nil {
		return nil
	}
	return &guestMemory{mem: mem}
}

type guestMemory struct {
	mem api.Memory
}

var (
	_ baremetal.Memory      = (*guestMemory)(nil)
	_ baremetal.MemorySizer = (*guestMemory)(nil)
)

func (m *guestMemory) Size() uint32 { return m.mem.Size() }

func (m *guestMemory) fault(offset uint32, length int) error {
	return errors.OutOfBounds(errors.PhaseMemory, nil, int(offset)+length, int(m.mem.Size()))
}

func (m *guestMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, m.fault(offset, int(length))
	}
	return data, nil
}

func (m *guestMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return m.fault(offset, len(data))
	}
	return nil
}

func (m *guestMemory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, m.fault(offset, 1)
	}
	return v, nil
}

func (m *guestMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, m.fault(offset, 4)
	}
	return v, nil
}

func (m *guestMemory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, m.fault(offset, 8)
	}
	return v, nil
}

func (m *guestMemory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return m.fault(offset, 1)
	}
	return nil
}

func (m *guestMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return m.fault(offset, 4)
	}
	return nil
}

func (m *guestMemory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return m.fault(offset, 8)
	}
	return nil
}
