package core

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func closeEnough(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestSlotRandRangeAndDeterminism(t *testing.T) {
	for slot := uint32(0); slot < 512; slot++ {
		for frame := uint32(0); frame < 8; frame++ {
			v := SlotRand(42, slot, frame, 3)
			if v < 0 || v >= 1 {
				t.Fatalf("SlotRand out of [0,1): %f (slot %d, frame %d)", v, slot, frame)
			}
			assert.Equal(t, v, SlotRand(42, slot, frame, 3))
		}
	}
	assert.NotEqual(t, SlotRand(1, 7, 0, 0), SlotRand(1, 7, 0, 1), "salt should decorrelate draws")
	assert.NotEqual(t, SlotRand(1, 7, 0, 0), SlotRand(1, 7, 1, 0), "frame should decorrelate draws")
}

func TestRange(t *testing.T) {
	r := R(2, 4)
	assert.Equal(t, float32(2), r.Lerp(0))
	assert.Equal(t, float32(3), r.Lerp(0.5))
	assert.True(t, r.Contains(2))
	assert.False(t, r.Contains(4))
	assert.True(t, R(1, 1).Contains(1))

	assert.NoError(t, r.Validate("speed"))
	err := R(5, 1).Validate("speed")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestYawTransformInverse(t *testing.T) {
	tr := YawTransform{
		Position: mgl32.Vec3{10, 20, 30},
		Yaw:      1.1,
		Scale:    mgl32.Vec3{2, 0.8, 1.5},
	}

	identity := tr.ObjectToWorld().Mul4(tr.WorldToObject())
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if !closeEnough(identity.At(i, j), want, 1e-4) {
				t.Errorf("identity[%d,%d] = %f, want %f", i, j, identity.At(i, j), want)
			}
		}
	}

	// Origin maps to the translation.
	p := tr.ObjectToWorld().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 10, p.X(), 1e-5)
	assert.InDelta(t, 20, p.Y(), 1e-5)
	assert.InDelta(t, 30, p.Z(), 1e-5)
}

func TestPlanarLengthIgnoresHeight(t *testing.T) {
	assert.InDelta(t, 5, PlanarLength(mgl32.Vec3{3, 100, 4}), 1e-6)
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	assert.NotNil(t, l)
	assert.False(t, l.DebugEnabled())
}

func TestValidDelta(t *testing.T) {
	inf := float32(math.Inf(1))
	tests := []struct {
		dt   float32
		want bool
	}{
		{0, true},
		{0.016, true},
		{1e6, true},
		{-0.001, false},
		{float32(math.NaN()), false},
		{inf, false},
		{-inf, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidDelta(tt.dt), "dt=%v", tt.dt)
	}
}
