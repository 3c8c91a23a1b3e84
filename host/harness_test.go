package host

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/baremetal-platform/internal/wasmgen"
)

// harness instantiates a host module and a guest that re-exports every host
// function as call_<name>.
type harness struct {
	t     *testing.T
	ctx   context.Context
	r     wazero.Runtime
	host  *Module
	guest api.Module
}

func newHarness(t *testing.T, host *Module) *harness {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = r.Close(ctx) })

	_, err := host.Instantiate(ctx, r)
	require.NoError(t, err)

	gen := wasmgen.New(2)
	for _, s := range host.Exports() {
		gen.Import(host.Name(), s.Name, valTypes(s.Params), valTypes(s.Results))
	}
	guest, err := r.Instantiate(ctx, gen.Encode())
	require.NoError(t, err)

	return &harness{t: t, ctx: ctx, r: r, host: host, guest: guest}
}

func valTypes(in []api.ValueType) []wasmgen.ValType {
	out := make([]wasmgen.ValType, len(in))
	for i, v := range in {
		out[i] = wasmgen.ValType(v)
	}
	return out
}

func (h *harness) call(name string, args ...uint64) []uint64 {
	h.t.Helper()
	fn := h.guest.ExportedFunction(wasmgen.ExportPrefix + name)
	require.NotNil(h.t, fn, "missing export %s", name)
	res, err := fn.Call(h.ctx, args...)
	require.NoError(h.t, err, name)
	return res
}

func (h *harness) i32(name string, args ...uint64) int32 {
	h.t.Helper()
	res := h.call(name, args...)
	require.Len(h.t, res, 1)
	return api.DecodeI32(res[0])
}

func (h *harness) u32(name string, args ...uint64) uint32 {
	return uint32(h.i32(name, args...))
}

func (h *harness) mem() api.Memory { return h.guest.Memory() }

// cstr writes s and a terminator at addr.
func (h *harness) cstr(addr uint32, s string) uint64 {
	h.t.Helper()
	require.True(h.t, h.mem().Write(addr, append([]byte(s), 0)))
	return uint64(addr)
}

func (h *harness) bytes(addr, n uint32) []byte {
	h.t.Helper()
	data, ok := h.mem().Read(addr, n)
	require.True(h.t, ok)
	return append([]byte(nil), data...)
}

// text returns the NUL-terminated string at addr.
func (h *harness) text(addr uint32) string {
	h.t.Helper()
	var out []byte
	for {
		c, ok := h.mem().ReadByte(addr)
		require.True(h.t, ok)
		if c == 0 {
			return string(out)
		}
		out = append(out, c)
		addr++
	}
}

// va lays out a wasm32 variadic argument area at addr. int32 and uint32
// values take 4-byte slots, int64 and uint64 values 8-byte aligned slots.
func (h *harness) va(addr uint32, vals ...any) uint64 {
	h.t.Helper()
	buf := vaBytes(addr, vals...)
	require.True(h.t, h.mem().Write(addr, buf))
	return uint64(addr)
}

func vaBytes(addr uint32, vals ...any) []byte {
	var buf []byte
	for _, v := range vals {
		switch v := v.(type) {
		case int32:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
		case uint32:
			buf = binary.LittleEndian.AppendUint32(buf, v)
		case int64:
			for (addr+uint32(len(buf)))%8 != 0 {
				buf = append(buf, 0xEE)
			}
			buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
		case uint64:
			for (addr+uint32(len(buf)))%8 != 0 {
				buf = append(buf, 0xEE)
			}
			buf = binary.LittleEndian.AppendUint64(buf, v)
		default:
			panic("unsupported vararg type")
		}
	}
	return buf
}
