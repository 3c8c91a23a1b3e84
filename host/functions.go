package host

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/baremetal-platform/alloc"
	"github.com/wippyai/baremetal-platform/errors"
	"github.com/wippyai/baremetal-platform/libc"
	"github.com/wippyai/baremetal-platform/platform"
)

const (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
	f32 = api.ValueTypeF32
	f64 = api.ValueTypeF64
)

// cError is the failure return of the int-returning C functions.
const cError = -1

func types(t ...api.ValueType) []api.ValueType { return t }

func def(name string, params, results []api.ValueType, fn api.GoModuleFunc) function {
	return function{Signature: Signature{Name: name, Params: params, Results: results}, fn: fn}
}

// status maps an error to the 0 / -1 convention.
func status(name string, err error) uint64 {
	if err != nil {
		failed(name, err)
		return api.EncodeI32(cError)
	}
	return 0
}

func (m *Module) functions() []function {
	fns := []function{
		def("snprintf", types(i32, i32, i32, i32), types(i32), m.format("snprintf")),
		def("vsnprintf", types(i32, i32, i32, i32), types(i32), m.format("vsnprintf")),
		def("os_printf", types(i32, i32), types(i32), m.print("os_printf")),
		def("os_vprintf", types(i32, i32), types(i32), m.print("os_vprintf")),
		def("puts", types(i32), types(i32), m.puts),

		def("os_malloc", types(i32), types(i32), m.malloc),
		def("os_realloc", types(i32, i32), types(i32), m.realloc),
		def("os_free", types(i32), nil, m.free),
		def("os_mmap", types(i32, i32, i32, i32, i32), types(i32), m.mmap),
		def("os_munmap", types(i32, i32), nil, m.munmap),
		def("os_mprotect", types(i32, i32, i32), types(i32), m.mprotect),
		def("os_mremap", types(i32, i32, i32), types(i32), m.mremap),
		def("os_getpagesize", nil, types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(int32(platform.GetPageSize()))
		}),

		def("os_time_get_boot_us", nil, types(i64), m.bootMicroseconds),
		def("os_time_get_boot_microsecond", nil, types(i64), m.bootMicroseconds),
		def("os_time_thread_cputime_us", nil, types(i64), m.bootMicroseconds),
		def("os_time_get_boot_nanosecond", nil, types(i64), func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = m.platform.Clock().BootNanoseconds()
		}),

		def("os_thread_create", types(i32, i32, i32, i32), types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
			_, err := platform.CreateThread(nil, api.DecodeU32(stack[2]), api.DecodeU32(stack[3]))
			stack[0] = status("os_thread_create", err)
		}),
		def("os_thread_join", types(i32, i32), types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
			_, err := platform.JoinThread(platform.ThreadID(api.DecodeU32(stack[0])))
			stack[0] = status("os_thread_join", err)
		}),
		def("os_self_thread", nil, types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeU32(uint32(platform.SelfThread()))
		}),
		def("os_thread_get_stack_boundary", nil, types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeU32(m.platform.Stack().Boundary())
		}),

		def("bh_platform_init", nil, types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = status("bh_platform_init", m.platform.Init())
		}),
		def("bh_platform_destroy", nil, nil, func(context.Context, api.Module, []uint64) {
			m.platform.Destroy()
		}),
		def("abort", nil, nil, m.abort),

		def("strcmp", types(i32, i32), types(i32), m.strcmp),
		def("strncmp", types(i32, i32, i32), types(i32), m.strncmp),
		def("strlen", types(i32), types(i32), m.strlen),
		def("memcmp", types(i32, i32, i32), types(i32), m.memcmp),
		def("atoi", types(i32), types(i32), m.atoi),

		def("os_dcache_flush", nil, nil, func(context.Context, api.Module, []uint64) {}),
		def("os_icache_flush", types(i32, i32), nil, func(context.Context, api.Module, []uint64) {}),
		def("os_thread_jit_write_protect_np", types(i32), nil, func(context.Context, api.Module, []uint64) {}),
	}
	fns = append(fns, m.lockFunctions()...)
	return append(fns, mathFunctions()...)
}

func (m *Module) lockFunctions() []function {
	lock := func(name string, op func() error) function {
		return def(name, types(i32), types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = status(name, op())
		})
	}
	do := func(f func()) func() error {
		return func() error {
			f()
			return nil
		}
	}
	return []function{
		lock("os_mutex_init", m.mutex.Init),
		lock("os_recursive_mutex_init", m.mutex.Init),
		lock("os_mutex_destroy", m.mutex.Destroy),
		lock("os_mutex_lock", do(m.mutex.Lock)),
		lock("os_mutex_unlock", do(m.mutex.Unlock)),

		lock("os_cond_init", m.cond.Init),
		lock("os_cond_destroy", m.cond.Destroy),
		lock("os_cond_signal", m.cond.Signal),
		lock("os_cond_broadcast", m.cond.Broadcast),
		def("os_cond_wait", types(i32, i32), types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = status("os_cond_wait", m.cond.Wait(&m.mutex))
		}),
		def("os_cond_reltimedwait", types(i32, i32, i64), types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
			d := time.Duration(stack[2]) * time.Microsecond
			stack[0] = status("os_cond_reltimedwait", m.cond.TimedWait(&m.mutex, d))
		}),

		lock("os_rwlock_init", m.rwlock.Init),
		lock("os_rwlock_destroy", m.rwlock.Destroy),
		lock("os_rwlock_rdlock", do(m.rwlock.RLock)),
		lock("os_rwlock_wrlock", do(m.rwlock.Lock)),
		lock("os_rwlock_unlock", do(m.rwlock.Unlock)),
	}
}

func (m *Module) format(name string) api.GoModuleFunc {
	return func(_ context.Context, guest api.Module, stack []uint64) {
		dst, size := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
		format, ap := api.DecodeU32(stack[2]), api.DecodeU32(stack[3])
		n, err := m.formatInto(guest, dst, size, format, ap)
		if err != nil {
			failed(name, err)
		}
		stack[0] = api.EncodeI32(int32(n))
	}
}

// formatInto renders into the guest buffer [dst, dst+size). The capacity
// is clipped to the end of guest memory.
func (m *Module) formatInto(guest api.Module, dst, size, format, ap uint32) (int, error) {
	if dst == 0 || size == 0 {
		return 0, nil
	}
	mem, err := memoryOf(guest)
	if err != nil {
		return 0, err
	}
	if dst >= mem.Size() {
		return 0, errors.OutOfBounds(errors.PhaseHost, []string{"snprintf", "buf"}, int(dst), int(mem.Size()))
	}
	buf, err := mem.Read(dst, min(size, mem.Size()-dst))
	if err != nil {
		return 0, err
	}

	f, err := libc.CString(mem, format, libc.NoLimit)
	if err != nil {
		buf[0] = 0
		return 0, errors.Wrap(errors.PhaseHost, errors.KindInvalidData, err, "format string")
	}

	n := m.platform.Formatter().Vsnprintf(buf, f, NewVaList(mem, ap))
	written := min(n, len(buf)-1)
	if err := mem.Write(dst, buf[:written+1]); err != nil {
		return 0, err
	}
	return n, nil
}

func (m *Module) print(name string) api.GoModuleFunc {
	return func(_ context.Context, guest api.Module, stack []uint64) {
		format, ap := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
		stack[0] = 0
		mem, err := memoryOf(guest)
		if err != nil {
			failed(name, err)
			return
		}
		f, err := libc.CString(mem, format, libc.NoLimit)
		if err != nil {
			failed(name, err)
			return
		}
		n := m.platform.Console().Vprintf(f, NewVaList(mem, ap))
		stack[0] = api.EncodeI32(int32(n))
	}
}

func (m *Module) puts(_ context.Context, guest api.Module, stack []uint64) {
	ptr := api.DecodeU32(stack[0])
	stack[0] = api.EncodeI32(cError)
	mem, err := memoryOf(guest)
	if err != nil {
		failed("puts", err)
		return
	}
	s, err := libc.CString(mem, ptr, libc.NoLimit)
	if err != nil {
		failed("puts", err)
		return
	}
	stack[0] = api.EncodeI32(int32(m.platform.Console().Puts(s)))
}

func (m *Module) malloc(_ context.Context, guest api.Module, stack []uint64) {
	size := api.DecodeU32(stack[0])
	var ptr uint32
	err := m.withHeap(guest, func(h *alloc.Heap) (err error) {
		ptr, err = h.Allocate(size)
		return err
	})
	if err != nil {
		failed("os_malloc", err)
		ptr = 0
	}
	stack[0] = api.EncodeU32(ptr)
}

func (m *Module) realloc(_ context.Context, guest api.Module, stack []uint64) {
	old, size := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
	var ptr uint32
	err := m.withHeap(guest, func(h *alloc.Heap) (err error) {
		ptr, err = h.Reallocate(old, size)
		return err
	})
	if err != nil {
		failed("os_realloc", err)
		ptr = 0
	}
	stack[0] = api.EncodeU32(ptr)
}

func (m *Module) free(_ context.Context, guest api.Module, stack []uint64) {
	ptr := api.DecodeU32(stack[0])
	if err := m.withHeap(guest, func(h *alloc.Heap) error { return h.Release(ptr) }); err != nil {
		failed("os_free", err)
	}
}

func (m *Module) mmap(_ context.Context, guest api.Module, stack []uint64) {
	size := api.DecodeU32(stack[1])
	var addr uint32
	err := m.withHeap(guest, func(h *alloc.Heap) (err error) {
		addr, err = h.MapPages(size)
		return err
	})
	if err != nil {
		failed("os_mmap", err)
		addr = 0
	}
	stack[0] = api.EncodeU32(addr)
}

func (m *Module) munmap(_ context.Context, guest api.Module, stack []uint64) {
	addr, size := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
	if err := m.withHeap(guest, func(h *alloc.Heap) error { return h.UnmapPages(addr, size) }); err != nil {
		failed("os_munmap", err)
	}
}

func (m *Module) mprotect(_ context.Context, guest api.Module, stack []uint64) {
	addr, size, prot := api.DecodeU32(stack[0]), api.DecodeU32(stack[1]), api.DecodeI32(stack[2])
	err := m.withHeap(guest, func(h *alloc.Heap) error { return h.ProtectPages(addr, size, int(prot)) })
	stack[0] = status("os_mprotect", err)
}

func (m *Module) mremap(_ context.Context, guest api.Module, stack []uint64) {
	old, oldSize, newSize := api.DecodeU32(stack[0]), api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
	var addr uint32
	err := m.withHeap(guest, func(h *alloc.Heap) (err error) {
		addr, err = h.RemapPages(old, oldSize, newSize)
		return err
	})
	if err != nil {
		failed("os_mremap", err)
		addr = 0
	}
	stack[0] = api.EncodeU32(addr)
}

func (m *Module) bootMicroseconds(_ context.Context, _ api.Module, stack []uint64) {
	stack[0] = m.platform.Clock().BootMicroseconds()
}

func (m *Module) abort(_ context.Context, guest api.Module, _ []uint64) {
	Logger().Error("guest called abort", zap.String("guest", guest.Name()))
	panic(errors.New(errors.PhaseHost, errors.KindAborted).
		Path(guest.Name()).
		Detail("abort() called").
		Build())
}

// cint runs a libc routine against guest memory, returning 0 on failure.
func cint(name string, guest api.Module, stack []uint64, fn func(*guestMemory) (int32, error)) {
	mem, err := memoryOf(guest)
	if err == nil {
		var v int32
		if v, err = fn(mem); err == nil {
			stack[0] = api.EncodeI32(v)
			return
		}
	}
	failed(name, err)
	stack[0] = 0
}

func (m *Module) strcmp(_ context.Context, guest api.Module, stack []uint64) {
	a, b := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
	cint("strcmp", guest, stack, func(mem *guestMemory) (int32, error) {
		return libc.Strcmp(mem, a, b)
	})
}

func (m *Module) strncmp(_ context.Context, guest api.Module, stack []uint64) {
	a, b, n := api.DecodeU32(stack[0]), api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
	cint("strncmp", guest, stack, func(mem *guestMemory) (int32, error) {
		return libc.Strncmp(mem, a, b, n)
	})
}

func (m *Module) strlen(_ context.Context, guest api.Module, stack []uint64) {
	ptr := api.DecodeU32(stack[0])
	cint("strlen", guest, stack, func(mem *guestMemory) (int32, error) {
		n, err := libc.Strlen(mem, ptr)
		return int32(n), err
	})
}

func (m *Module) memcmp(_ context.Context, guest api.Module, stack []uint64) {
	a, b, n := api.DecodeU32(stack[0]), api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
	cint("memcmp", guest, stack, func(mem *guestMemory) (int32, error) {
		return libc.Memcmp(mem, a, b, n)
	})
}

func (m *Module) atoi(_ context.Context, guest api.Module, stack []uint64) {
	ptr := api.DecodeU32(stack[0])
	cint("atoi", guest, stack, func(mem *guestMemory) (int32, error) {
		return libc.Atoi(mem, ptr)
	})
}

func mathFunctions() []function {
	binary64 := func(name string, op func(x, y float64) float64) function {
		return def(name, types(f64, f64), types(f64), func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeF64(op(api.DecodeF64(stack[0]), api.DecodeF64(stack[1])))
		})
	}
	binary32 := func(name string, op func(x, y float32) float32) function {
		return def(name, types(f32, f32), types(f32), func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeF32(op(api.DecodeF32(stack[0]), api.DecodeF32(stack[1])))
		})
	}
	unary64 := func(name string, op func(float64) float64) function {
		return def(name, types(f64), types(f64), func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeF64(op(api.DecodeF64(stack[0])))
		})
	}
	unary32 := func(name string, op func(float32) float32) function {
		return def(name, types(f32), types(f32), func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeF32(op(api.DecodeF32(stack[0])))
		})
	}
	return []function{
		binary64("fmin", libc.Fmin),
		binary64("fmax", libc.Fmax),
		binary32("fminf", libc.Fminf),
		binary32("fmaxf", libc.Fmaxf),
		unary64("ceil", libc.Ceil),
		unary64("floor", libc.Floor),
		unary64("trunc", libc.Trunc),
		unary64("rint", libc.Rint),
		unary32("ceilf", libc.Ceilf),
		unary32("floorf", libc.Floorf),
		unary32("truncf", libc.Truncf),
		unary32("rintf", libc.Rintf),
	}
}
