// Package platform provides the operating-system services a WebAssembly
// runtime port expects on a single-threaded bare-metal target.
//
// Most of it is inert. Threads cannot be created, locks and condition
// variables succeed without doing anything, and the file-handle types exist
// only so code written against a hosted platform keeps compiling. The parts
// with behavior are the boot clock, the stack boundary and the diagnostic
// console, all owned by a Platform value rather than process-wide state.
package platform
