package core

import "github.com/go-gl/mathgl/mgl32"

// Light is the ambient directional light handed to cloud shading. Read-only for the simulation.
type Light struct {
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

func DefaultLight() Light {
	return Light{
		Direction: mgl32.Vec3{-0.4, -1, -0.3}.Normalize(),
		Color:     mgl32.Vec3{1, 0.97, 0.9},
		Intensity: 1,
	}
}

// Frame carries the per-frame camera state a renderer needs to draw.
type Frame struct {
	Proj      mgl32.Mat4
	View      mgl32.Mat4
	CameraPos mgl32.Vec3
	Light     Light
}
