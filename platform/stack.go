package platform

// StackMargin is the headroom kept between the recorded stack start and the
// boundary the runtime checks against.
const StackMargin = 8 * 1024

// StackBoundary tracks the lowest usable stack address.
type StackBoundary struct {
	boundary uint32
}

// Register records the stack start address. Addresses below StackMargin
// clamp the boundary to zero.
func (s *StackBoundary) Register(start uint32) {
	if start < StackMargin {
		s.boundary = 0
		return
	}
	s.boundary = start - StackMargin
}

// Boundary returns the boundary, or 0 when no start was registered.
func (s *StackBoundary) Boundary() uint32 { return s.boundary }
