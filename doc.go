// Package baremetal provides the platform layer a bare-metal WebAssembly
// runtime build expects from its host, implemented in Go on top of wazero.
//
// A WAMR build for a target without an operating system links against a small
// set of C functions: bounded formatting, a heap, page mappings, a boot clock,
// thread and lock primitives, and a handful of libc routines. This module
// supplies those functions as an "env" host module so such guests run
// unchanged.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	baremetal/           Root package with core Memory and Allocator interfaces
//	├── printf/          Bounded snprintf/vsnprintf and the argument cursor
//	├── platform/        Single-core platform: clocks, console, stack, no-op sync
//	├── alloc/           Guest heap with size headers and page mappings
//	├── libc/            C string and math routines over guest memory
//	├── host/            The wazero "env" host module and va_list decoding
//	├── config/          Layered configuration for the command line tools
//	├── errors/          Structured error types for debugging
//	└── cmd/run          CLI: run guests, render formats, interactive playground
//
// # Quick Start
//
// Format into a bounded buffer:
//
//	buf := make([]byte, 8)
//	n := printf.Snprintf(buf, "%s=%d", printf.Str("answer"), printf.Int(42))
//	// buf holds "answer=" and a NUL, n is 7
//
// Host a guest:
//
//	r := wazero.NewRuntime(ctx)
//	defer r.Close(ctx)
//
//	env := host.New(platform.New())
//	if _, err := env.Instantiate(ctx, r); err != nil {
//	    log.Fatal(err)
//	}
//	guest, err := r.Instantiate(ctx, wasmBytes)
//
// # Bounded Output
//
// Every formatting entry point writes at most capacity-1 content bytes and
// always terminates a non-empty destination. The count returned is the number
// of bytes written, not the length the output would have had; set
// printf.Formatter.Untruncated for the latter.
//
// # Thread Safety
//
// The platform is single-core: mutexes, condition variables and read-write
// locks are no-ops, and thread creation reports failure. The host module
// itself guards its per-guest heap table and may be shared by guests
// instantiated in the same runtime.
package baremetal
