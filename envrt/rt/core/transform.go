package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// YawTransform is a translate, yaw, scale placement. Clouds only rotate about Y.
type YawTransform struct {
	Position mgl32.Vec3
	Yaw      float32
	Scale    mgl32.Vec3
}

func (t YawTransform) ObjectToWorld() mgl32.Mat4 {
	// M = T * Ry * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := mgl32.HomogRotate3DY(t.Yaw)
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

func (t YawTransform) WorldToObject() mgl32.Mat4 {
	invScale := mgl32.Scale3D(1.0/t.Scale.X(), 1.0/t.Scale.Y(), 1.0/t.Scale.Z())
	invRotate := mgl32.HomogRotate3DY(-t.Yaw)
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

// PlanarLength is the distance from the origin ignoring height.
func PlanarLength(v mgl32.Vec3) float32 {
	return mgl32.Vec2{v.X(), v.Z()}.Len()
}
