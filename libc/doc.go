// Package libc implements the C string and math helpers that a freestanding
// guest links against, operating on linear memory addresses.
//
// Null pointers follow the lenient conventions of the platform port rather
// than faulting: strlen of null is 0, memcmp with a null side is 0, and
// strcmp orders null before any string.
package libc
