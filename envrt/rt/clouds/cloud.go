package clouds

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/atmos/envrt/rt/core"
)

// FadePhase classifies the opacity trend of a cloud. Derived from lifetime, never set directly.
type FadePhase uint8

const (
	FadeIn FadePhase = iota
	Stable
	FadeOut
)

func (p FadePhase) String() string {
	switch p {
	case FadeIn:
		return "fade-in"
	case Stable:
		return "stable"
	case FadeOut:
		return "fade-out"
	}
	return "unknown"
}

// Cloud is one slot of the cloud pool.
type Cloud struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3 // unit, horizontal
	Speed     float32
	Scale     mgl32.Vec3

	RotationY      float32
	RotationSpeedY float32

	FloatOffset float32
	FloatSpeed  float32
	FloatAmount float32

	Lifetime    float32
	MaxLifetime float32

	FadePhase FadePhase
	Alpha     float32
}

func (c *Cloud) Transform() core.YawTransform {
	return core.YawTransform{Position: c.Position, Yaw: c.RotationY, Scale: c.Scale}
}

// FadeAlpha evaluates the three-segment opacity rule: a linear ramp up over the first
// fade seconds, a plateau at 1, and a linear ramp down over the last fade seconds.
// When maxLifetime is shorter than two ramps the lower ramp wins, keeping alpha continuous.
func FadeAlpha(lifetime, maxLifetime, fade float32) (FadePhase, float32) {
	rise := lifetime / fade
	fall := (maxLifetime - lifetime) / fade

	var phase FadePhase
	switch {
	case lifetime < fade:
		phase = FadeIn
	case lifetime < maxLifetime-fade:
		phase = Stable
	default:
		phase = FadeOut
	}

	alpha := min(rise, fall, 1)
	if alpha < 0 {
		alpha = 0
	}
	return phase, alpha
}

// Instance is the renderer-facing view of a visible cloud.
type Instance struct {
	Slot      int
	Transform core.YawTransform
	Model     mgl32.Mat4
	Alpha     float32
}
