package shaders

import (
	_ "embed"
)

//go:embed particles_update.wgsl
var ParticlesUpdateWGSL string

//go:embed particles_update.glsl
var ParticlesUpdateGLSL string

//go:embed clouds.vert.glsl
var CloudsVertexGLSL string

//go:embed clouds.frag.glsl
var CloudsFragmentGLSL string

//go:embed particles.vert.glsl
var ParticlesVertexGLSL string

//go:embed particles.frag.glsl
var ParticlesFragmentGLSL string
