package particles

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/atmos/envrt/rt/core"
)

// Random stream salts. Shared with the shader ports.
const (
	saltJitterX uint32 = iota + 1
	saltJitterY
	saltJitterZ
	saltSpeed
	saltTTL
	saltSpin
	saltAngle
)

// UpdateSlot is the per-slot rule of one update pass. It reads only the slot's own
// previous state and the uniforms, so slots can be evaluated in any order.
func UpdateSlot(i uint32, in Particle, u *Uniforms) Particle {
	if i >= u.NParticles {
		return Particle{}
	}
	if in.TimeToLive <= 0 {
		return spawnSlot(i, u)
	}

	out := in
	dt := u.DeltaTime
	out.TimeToLive = max(in.TimeToLive-dt, 0)
	out.Position = in.Position.Add(in.Velocity.Vec3().Mul(dt))
	out.ZOrientation = in.ZOrientation + in.Velocity[3]*dt

	life := float32(0)
	if in.MaxTimeToLive > 0 {
		life = out.TimeToLive / in.MaxTimeToLive
	}
	out.Color[3] = u.StartColor[3] * life
	size := u.StartSize + u.SizeGrowth*(1-life)
	out.Size = mgl32.Vec2{size, size}
	return out
}

func spawnSlot(i uint32, u *Uniforms) Particle {
	rnd := func(salt uint32) float32 { return core.SlotRand(u.Seed, i, u.Frame, salt) }

	dir := u.EmitterDir
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	jitter := mgl32.Vec3{
		rnd(saltJitterX)*2 - 1,
		rnd(saltJitterY)*2 - 1,
		rnd(saltJitterZ)*2 - 1,
	}
	v := dir.Add(jitter.Mul(u.Spread))
	if l := v.Len(); l > 0 {
		v = v.Mul(1 / l)
	}
	speed := u.SpeedMin + (u.SpeedMax-u.SpeedMin)*rnd(saltSpeed)
	v = v.Mul(speed)

	ttl := u.TTLMin + (u.TTLMax-u.TTLMin)*rnd(saltTTL)
	spin := u.SpinMin + (u.SpinMax-u.SpinMin)*rnd(saltSpin)

	return Particle{
		Position:      u.EmitterPos,
		ZOrientation:  rnd(saltAngle) * 2 * math.Pi,
		Velocity:      v.Vec4(spin),
		Color:         u.StartColor,
		Size:          mgl32.Vec2{u.StartSize, u.StartSize},
		TimeToLive:    ttl,
		MaxTimeToLive: ttl,
	}
}
