package wasmgen

import (
	"bytes"
	"encoding/binary"
)

// writer accumulates the binary encoding of a module.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) Bytes() []byte { return w.buf.Bytes() }

func (w *writer) Byte(b byte) { w.buf.WriteByte(b) }

func (w *writer) WriteBytes(data []byte) { w.buf.Write(data) }

// WriteU32 writes an unsigned LEB128 encoded uint32.
func (w *writer) WriteU32(v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if v == 0 {
			break
		}
	}
}

// WriteS32 writes a signed LEB128 encoded int32.
func (w *writer) WriteS32(v int32) {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		w.buf.WriteByte(b)
	}
}

// WriteName writes a length-prefixed UTF-8 name.
func (w *writer) WriteName(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf.WriteString(s)
}

// WriteU32LE writes a fixed-width little-endian uint32.
func (w *writer) WriteU32LE(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// section writes a section with its id and size prefix.
func (w *writer) section(id byte, body *writer) {
	w.Byte(id)
	w.WriteU32(uint32(body.buf.Len()))
	w.WriteBytes(body.Bytes())
}
