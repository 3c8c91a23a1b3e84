package printf

// output is the write cursor over the destination buffer. end is the slot
// reserved for the terminator; content is never written at or past it.
type output struct {
	buf       []byte
	pos       int
	end       int
	attempted int
	counting  bool
}

func newOutput(dst []byte, counting bool) output {
	return output{buf: dst, end: len(dst) - 1, counting: counting}
}

func (o *output) full() bool { return o.pos >= o.end }

// done reports whether further rendering can have no observable effect.
func (o *output) done() bool { return !o.counting && o.full() }

func (o *output) put(c byte) {
	o.attempted++
	if o.pos < o.end {
		o.buf[o.pos] = c
		o.pos++
	}
}

func (o *output) write(b []byte) {
	for i := 0; i < len(b) && !o.done(); i++ {
		o.put(b[i])
	}
}

func (o *output) writeString(s string) {
	for i := 0; i < len(s) && !o.done(); i++ {
		o.put(s[i])
	}
}

func (o *output) fill(c byte, n int) {
	for ; n > 0 && !o.done(); n-- {
		o.put(c)
	}
}

func (o *output) terminate() {
	o.buf[o.pos] = 0
}
