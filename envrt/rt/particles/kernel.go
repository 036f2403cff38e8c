package particles

// Kernel runs the update pass on some compute backend. It owns the two particle
// buffers; the Simulator only ever refers to them by index.
type Kernel interface {
	// Allocate creates buffers 0 and 1 with room for capacity particles.
	// Buffer 0 is zeroed, buffer 1 may hold anything.
	Allocate(capacity int) error
	// Dispatch evaluates UpdateSlot for every slot of buffer read into buffer write.
	// All writes must be complete and visible to later readers when it returns.
	Dispatch(read, write int, u Uniforms) error
	// Snapshot appends the contents of buffer index to dst.
	Snapshot(index int, dst []Particle) ([]Particle, error)
	Release()
}
