package core

// Stateless per-slot randomness. The same functions are implemented in
// shaders/particles_update.{glsl,wgsl}; keep the three in sync.

const goldenGamma = 0x9E3779B9

// PCG is the pcg-rxs-m-xs 32 bit hash.
func PCG(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// SlotRand returns a value in [0,1) that depends only on its inputs.
func SlotRand(seed, slot, frame, salt uint32) float32 {
	h := PCG(seed ^ PCG(slot^PCG(frame^(salt*goldenGamma))))
	return float32(h>>8) * (1.0 / 16777216.0)
}
