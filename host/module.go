package host

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/baremetal-platform/alloc"
	"github.com/wippyai/baremetal-platform/errors"
	"github.com/wippyai/baremetal-platform/platform"
)

// DefaultModuleName is the import module name guests link against.
const DefaultModuleName = "env"

// Signature describes one exported host function.
type Signature struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

type function struct {
	Signature
	fn api.GoModuleFunc
}

// Module is the env host module bound to a Platform.
type Module struct {
	platform *platform.Platform
	name     string

	heapBase uint32
	heapSize uint32
	heapSet  bool

	mutex  platform.Mutex
	cond   platform.Cond
	rwlock platform.RWLock

	mu    sync.Mutex
	heaps map[api.Module]*alloc.Heap
}

// Option configures a Module.
type Option func(*Module)

// WithHeap places each guest's heap at [base, base+size) of its memory.
// Without it the heap is the upper half of the memory at first use.
func WithHeap(base, size uint32) Option {
	return func(m *Module) {
		m.heapBase, m.heapSize, m.heapSet = base, size, true
	}
}

// WithModuleName overrides DefaultModuleName.
func WithModuleName(name string) Option {
	return func(m *Module) {
		m.name = name
	}
}

// New returns a host module backed by p. A nil p uses platform.New().
func New(p *platform.Platform, opts ...Option) *Module {
	if p == nil {
		p = platform.New()
	}
	m := &Module{
		platform: p,
		name:     DefaultModuleName,
		heaps:    make(map[api.Module]*alloc.Heap),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the import module name.
func (m *Module) Name() string { return m.name }

// Platform returns the platform the module exposes.
func (m *Module) Platform() *platform.Platform { return m.platform }

// Exports lists the functions the module exports, in export order.
func (m *Module) Exports() []Signature {
	fns := m.functions()
	out := make([]Signature, len(fns))
	for i, f := range fns {
		out[i] = f.Signature
	}
	return out
}

// Instantiate defines the host module in r.
func (m *Module) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(m.name)
	for _, f := range m.functions() {
		builder = builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.Params, f.Results).
			WithName(f.Name).
			Export(f.Name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.New(errors.PhaseHost, errors.KindInstantiation).
			Path(m.name).
			Cause(err).
			Detail("instantiate host module").
			Build()
	}
	Logger().Debug("host module instantiated", zap.String("name", m.name))
	return mod, nil
}

// Heap returns the heap of a guest, creating it on first use.
func (m *Module) Heap(guest api.Module) (*alloc.Heap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heapLocked(guest)
}

// Detach drops the heap state of a guest that has been closed.
func (m *Module) Detach(guest api.Module) {
	m.mu.Lock()
	delete(m.heaps, guest)
	m.mu.Unlock()
}

func (m *Module) heapLocked(guest api.Module) (*alloc.Heap, error) {
	if h, ok := m.heaps[guest]; ok {
		return h, nil
	}
	mem := guest.Memory()
	if mem == nil {
		return nil, errors.NotFound(errors.PhaseHost, "guest memory")
	}
	base, size := m.heapBase, m.heapSize
	if !m.heapSet {
		total := mem.Size()
		base = total / 2
		size = total - base
	}
	h, err := alloc.NewHeap(WrapMemory(mem), base, size)
	if err != nil {
		return nil, err
	}
	m.heaps[guest] = h
	Logger().Debug("guest heap created",
		zap.String("guest", guest.Name()),
		zap.Uint32("base", h.Base()),
		zap.Uint32("limit", h.Limit()))
	return h, nil
}

// withHeap runs fn with the guest's heap while holding the heap lock.
func (m *Module) withHeap(guest api.Module, fn func(*alloc.Heap) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, err := m.heapLocked(guest)
	if err != nil {
		return err
	}
	return fn(h)
}

func memoryOf(guest api.Module) (*guestMemory, error) {
	mem := guest.Memory()
	if mem == nil {
		return nil, errors.NotFound(errors.PhaseHost, "guest memory")
	}
	return &guestMemory{mem: mem}, nil
}

func failed(name string, err error) {
	Logger().Debug("host call failed", zap.String("func", name), zap.Error(err))
}
