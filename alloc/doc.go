// Package alloc manages a region of linear memory for the platform layer.
//
// Heap implements the raw allocation contract (allocate, reallocate,
// release) with an 8-byte size header in front of every block, and the
// page mapper (MapPages and friends) that the runtime uses for its own
// large, page-aligned regions. Both draw from the same free list.
//
// A Heap is not safe for concurrent use; the platform has a single caller.
package alloc
