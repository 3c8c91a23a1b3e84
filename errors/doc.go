// Package errors defines the structured error type shared by the platform
// packages.
//
// An Error names the layer that failed (Phase), what went wrong (Kind), where
// (Path) and the offending value. Host functions log these and hand guests
// the C convention instead: 0 or -1, or a null pointer.
//
//	err := errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
//		Path("heap", "release").
//		Value(ptr).
//		Detail("pointer was not allocated by this heap").
//		Build()
//
// Constructors cover the frequent cases:
//
//	errors.OutOfBounds(errors.PhaseMemory, nil, int(offset), int(size))
//	errors.Unsupported(errors.PhasePlatform, "threads")
//
// errors.Is matches on Kind, and on Phase when the target sets one.
//
// The bounded formatter never returns these; it degrades in its output.
package errors
