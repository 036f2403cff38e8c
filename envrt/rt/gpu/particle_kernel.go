package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/atmos/envrt/rt/particles"
	"github.com/gekko3d/atmos/envrt/rt/shaders"
)

const workgroupSize = 64

// ParticleKernel runs the particle update pass as a WebGPU compute shader.
// Bind group r reads buffer r and writes buffer 1-r.
type ParticleKernel struct {
	Device *wgpu.Device

	Pipeline   *wgpu.ComputePipeline
	ParamsBuf  *wgpu.Buffer
	Buffers    [2]*wgpu.Buffer
	BindGroups [2]*wgpu.BindGroup
	StagingBuf *wgpu.Buffer

	capacity int
}

func NewParticleKernel(device *wgpu.Device) *ParticleKernel {
	return &ParticleKernel{Device: device}
}

func (k *ParticleKernel) Allocate(capacity int) error {
	if k.Device == nil {
		return fmt.Errorf("failed to allocate particle buffers: no device")
	}
	if capacity <= 0 {
		return fmt.Errorf("failed to allocate particle buffers: capacity %d", capacity)
	}
	k.Release()

	if err := k.createPipeline(shaders.ParticlesUpdateWGSL); err != nil {
		return err
	}
	if err := k.createBuffers(capacity); err != nil {
		k.Release()
		return err
	}
	if err := k.createBindGroups(); err != nil {
		k.Release()
		return err
	}
	k.capacity = capacity
	return nil
}

func (k *ParticleKernel) createPipeline(code string) error {
	shaderModule, err := k.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "ParticlesUpdateShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: code,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create particle shader module: %w", err)
	}
	defer shaderModule.Release()

	k.Pipeline, err = k.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "ParticlesUpdatePipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shaderModule,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create particle pipeline: %w", err)
	}
	return nil
}

func (k *ParticleKernel) createBuffers(capacity int) error {
	var err error
	size := uint64(capacity * particles.ParticleStride)

	k.ParamsBuf, err = k.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ParticleParams",
		Size:  particles.UniformsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create particle params buffer: %w", err)
	}

	for i := range k.Buffers {
		k.Buffers[i], err = k.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("Particles%d", i),
			Size:  size,
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
		})
		if err != nil {
			return fmt.Errorf("failed to create particle buffer %d: %w", i, err)
		}
	}

	k.StagingBuf, err = k.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ParticleReadback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create particle readback buffer: %w", err)
	}

	// Only buffer 0 is read before it is written.
	k.Device.GetQueue().WriteBuffer(k.Buffers[0], 0, make([]byte, size))
	return nil
}

func (k *ParticleKernel) createBindGroups() error {
	for r := range k.BindGroups {
		w := 1 - r
		entries := []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: k.ParamsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: k.Buffers[r], Size: wgpu.WholeSize},
			{Binding: 2, Buffer: k.Buffers[w], Size: wgpu.WholeSize},
		}
		var err error
		k.BindGroups[r], err = k.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout:  k.Pipeline.GetBindGroupLayout(0),
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("failed to create particle bind group %d: %w", r, err)
		}
	}
	return nil
}

// Dispatch records, submits and waits for one update pass.
func (k *ParticleKernel) Dispatch(read, write int, u particles.Uniforms) error {
	if k.Pipeline == nil {
		return fmt.Errorf("particle pipeline not created")
	}
	if read < 0 || read > 1 || write != 1-read {
		return fmt.Errorf("invalid particle buffer roles %d -> %d", read, write)
	}

	queue := k.Device.GetQueue()
	queue.WriteBuffer(k.ParamsBuf, 0, u.ToBytes())

	encoder, err := k.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create particle command encoder: %w", err)
	}
	defer encoder.Release()

	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(k.Pipeline)
	computePass.SetBindGroup(0, k.BindGroups[read], nil)
	workgroups := (uint32(k.capacity) + workgroupSize - 1) / workgroupSize
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()
	computePass.Release()

	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish particle commands: %w", err)
	}
	defer cmdBuf.Release()

	queue.Submit(cmdBuf)
	k.Device.Poll(true, nil)
	return nil
}

// Snapshot copies buffer index to the readback buffer and maps it.
func (k *ParticleKernel) Snapshot(index int, dst []particles.Particle) ([]particles.Particle, error) {
	if index < 0 || index > 1 || k.Buffers[index] == nil {
		return dst, fmt.Errorf("failed to snapshot particle buffer %d: not allocated", index)
	}
	size := uint64(k.capacity * particles.ParticleStride)

	encoder, err := k.Device.CreateCommandEncoder(nil)
	if err != nil {
		return dst, fmt.Errorf("failed to create readback encoder: %w", err)
	}
	defer encoder.Release()
	if err := encoder.CopyBufferToBuffer(k.Buffers[index], 0, k.StagingBuf, 0, size); err != nil {
		return dst, fmt.Errorf("failed to copy particle buffer: %w", err)
	}
	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		return dst, fmt.Errorf("failed to finish readback commands: %w", err)
	}
	defer cmdBuf.Release()
	k.Device.GetQueue().Submit(cmdBuf)

	var status wgpu.BufferMapAsyncStatus
	err = k.StagingBuf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if err != nil {
		return dst, fmt.Errorf("failed to map particle readback: %w", err)
	}
	k.Device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return dst, fmt.Errorf("failed to map particle readback: status %s", status.String())
	}
	defer k.StagingBuf.Unmap()

	return particles.DecodeParticles(dst, k.StagingBuf.GetMappedRange(0, uint(size)))
}

// Buffer returns the storage buffer behind index, for vertex pulling in a render pass.
func (k *ParticleKernel) Buffer(index int) *wgpu.Buffer {
	if index < 0 || index > 1 {
		return nil
	}
	return k.Buffers[index]
}

func (k *ParticleKernel) Release() {
	for i := range k.BindGroups {
		if k.BindGroups[i] != nil {
			k.BindGroups[i].Release()
			k.BindGroups[i] = nil
		}
	}
	for i := range k.Buffers {
		if k.Buffers[i] != nil {
			k.Buffers[i].Release()
			k.Buffers[i] = nil
		}
	}
	if k.StagingBuf != nil {
		k.StagingBuf.Release()
		k.StagingBuf = nil
	}
	if k.ParamsBuf != nil {
		k.ParamsBuf.Release()
		k.ParamsBuf = nil
	}
	if k.Pipeline != nil {
		k.Pipeline.Release()
		k.Pipeline = nil
	}
	k.capacity = 0
}

var _ particles.Kernel = (*ParticleKernel)(nil)
