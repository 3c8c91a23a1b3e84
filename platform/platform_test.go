package platform

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/baremetal-platform/errors"
	"github.com/wippyai/baremetal-platform/printf"
)

func TestThreadsNotSupported(t *testing.T) {
	id, err := CreateThread(func(uint32) uint32 { return 0 }, 0, 0)
	assert.Zero(t, id)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotSupported)

	var perr *errors.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, errors.PhasePlatform, perr.Phase)
	assert.Equal(t, errors.KindUnsupported, perr.Kind)

	_, err = JoinThread(3)
	assert.ErrorIs(t, err, ErrNotSupported)
	assert.Equal(t, ThreadID(0), SelfThread())
}

func TestSyncPrimitivesAreNoOps(t *testing.T) {
	var mu Mutex
	require.NoError(t, mu.Init())
	mu.Lock()
	mu.Lock() // re-entrant by construction
	assert.True(t, mu.TryLock())
	mu.Unlock()
	require.NoError(t, mu.Destroy())

	var cond Cond
	require.NoError(t, cond.Init())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = cond.Wait(&mu)
		_ = cond.TimedWait(&mu, time.Hour)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("condition wait blocked")
	}
	assert.NoError(t, cond.Signal())
	assert.NoError(t, cond.Broadcast())
	assert.NoError(t, cond.Destroy())

	var rw RWLock
	var locker sync.Locker = &rw
	locker.Lock()
	rw.RLock()
	rw.RUnlock()
	locker.Unlock()
	assert.NoError(t, rw.Destroy())

	var sem Sem
	assert.NoError(t, sem.Wait())
	assert.NoError(t, sem.TryWait())
	assert.NoError(t, sem.Post())
	assert.NoError(t, sem.Close())
}

func TestHandles(t *testing.T) {
	assert.Equal(t, FileHandle(-1), InvalidHandle())
	assert.Equal(t, 4096, GetPageSize())
}

func TestCounterClock(t *testing.T) {
	c := NewCounterClock()
	a := c.BootMicroseconds()
	b := c.BootMicroseconds()
	n := c.BootNanoseconds()
	assert.Equal(t, uint64(1), a)
	assert.Equal(t, uint64(2), b)
	assert.Equal(t, uint64(3000), n)

	other := NewCounterClock()
	assert.Equal(t, uint64(1), other.BootMicroseconds(), "clocks must not share state")
}

func TestCounterClock_Concurrent(t *testing.T) {
	const workers, reads = 8, 500
	c := NewCounterClock()
	p := New().WithClock(c)

	readings := make([][]uint64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			assert.NoError(t, p.Init())
			for i := 0; i < reads; i++ {
				readings[w] = append(readings[w], c.BootMicroseconds())
			}
			_ = p.Ready()
		}(w)
	}
	wg.Wait()

	seen := make(map[uint64]bool, workers*reads)
	for _, rs := range readings {
		for _, r := range rs {
			assert.False(t, seen[r], "reading %d returned twice", r)
			seen[r] = true
		}
	}
	assert.Len(t, seen, workers*reads)
	assert.Equal(t, uint64(workers*reads+1), c.BootMicroseconds())
	assert.True(t, p.Ready())
}

func TestMonotonicClock(t *testing.T) {
	c := NewMonotonicClock()
	n1 := c.BootNanoseconds()
	time.Sleep(2 * time.Millisecond)
	n2 := c.BootNanoseconds()
	us := c.BootMicroseconds()

	assert.Greater(t, n2, n1)
	assert.GreaterOrEqual(t, n2-n1, uint64(time.Millisecond))
	assert.GreaterOrEqual(t, us, uint64(2000))
}

func TestStackBoundary(t *testing.T) {
	var s StackBoundary
	assert.Zero(t, s.Boundary())

	s.Register(0x20010000)
	assert.Equal(t, uint32(0x20010000-8*1024), s.Boundary())

	s.Register(100)
	assert.Zero(t, s.Boundary())
}

func TestNopConsole(t *testing.T) {
	var c Console = NopConsole{}
	assert.Zero(t, c.Printf("%d", printf.Int(1)))
	assert.Zero(t, c.Vprintf([]byte("x"), nil))
	assert.Zero(t, c.Puts([]byte("x")))
}

func TestLogConsole(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := NewLogConsole(zap.New(core), nil, 0)

	n := c.Printf("loaded %s in %d ms\n", printf.Str("app.wasm"), printf.Int(12))
	assert.Equal(t, len("loaded app.wasm in 12 ms\n"), n)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "loaded app.wasm in 12 ms", logs.All()[0].Message)

	assert.Equal(t, 1, c.Printf("\n"), "the count includes the newline")
	assert.Equal(t, 1, logs.Len(), "empty lines are not logged")

	assert.Zero(t, c.Puts([]byte("dropped")))
	assert.Equal(t, 1, logs.Len())
}

func TestLogConsole_Truncates(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := NewLogConsole(zap.New(core), &printf.Formatter{Untruncated: true}, 8)

	n := c.Printf("%s", printf.Str("0123456789"))
	assert.Equal(t, 10, n)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "0123456", logs.All()[0].Message)
}

func TestPlatformLifecycle(t *testing.T) {
	p := New()
	assert.IsType(t, &CounterClock{}, p.Clock())
	assert.IsType(t, NopConsole{}, p.Console())
	assert.Equal(t, printf.ProfileMinimal, p.Formatter().Profile)

	assert.False(t, p.Ready())
	require.NoError(t, p.Init())
	assert.True(t, p.Ready())
	p.Destroy()
	p.Destroy()
	assert.False(t, p.Ready())
}

func TestPlatformWith(t *testing.T) {
	clock := NewMonotonicClock()
	console := NewLogConsole(nil, nil, 0)
	f := &printf.Formatter{Profile: printf.ProfilePadded}

	p := New().WithClock(clock).WithConsole(console).WithFormatter(f)
	assert.Same(t, clock, p.Clock())
	assert.Same(t, console, p.Console())
	assert.Same(t, f, p.Formatter())

	p.Stack().Register(0x10000)
	assert.Equal(t, uint32(0x10000-StackMargin), p.Stack().Boundary())

	buf := make([]byte, 16)
	n := p.Snprintf(buf, "[%4d]", printf.Int(7))
	assert.Equal(t, "[   7]", string(buf[:n]))

	n = p.Vsnprintf(buf, []byte("%-3s|"), printf.NewArgList(printf.Str("a")))
	assert.Equal(t, "a  |", string(buf[:n]))
}
