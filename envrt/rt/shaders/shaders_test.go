package shaders

import (
	"strings"
	"testing"
)

func TestUpdateKernelsShareHash(t *testing.T) {
	for name, src := range map[string]string{"glsl": ParticlesUpdateGLSL, "wgsl": ParticlesUpdateWGSL} {
		for _, c := range []string{"747796405u", "2891336453u", "277803737u", "0x9E3779B9u", "16777216.0"} {
			if !strings.Contains(src, c) {
				t.Errorf("%s update kernel lacks hash constant %s", name, c)
			}
		}
		if !strings.Contains(src, "local_size_x = 64") && !strings.Contains(src, "@workgroup_size(64)") {
			t.Errorf("%s update kernel must use 64 wide workgroups", name)
		}
	}
}
