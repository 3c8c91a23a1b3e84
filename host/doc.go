// Package host exposes the platform layer to WebAssembly guests as a wazero
// host module, named "env" by default.
//
// The exported functions follow the C ABI a guest built for the bare-metal
// runtime port links against: the bounded formatter as snprintf and
// vsnprintf, the diagnostic console as os_printf and os_vprintf, the heap and
// page mapper, the boot clock, the inert thread and lock primitives and a
// handful of libc string and math routines.
//
// Variadic arguments are read from guest memory with the wasm32 C layout:
// the caller passes a pointer to an argument area in which each value sits
// at the next address aligned to its own size.
//
// Failures never fault the guest. They are logged at debug level and mapped
// to the C return convention: 0, -1 or the null pointer. The only function
// that traps is abort.
package host
