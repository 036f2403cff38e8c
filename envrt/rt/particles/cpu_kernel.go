package particles

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// cpuParallelThreshold is the minimum capacity to fan out to the worker pool.
// Below this the pass runs on the calling goroutine.
const cpuParallelThreshold = 512

var errBufferIndex = errors.New("buffer index out of range")

type cpuChunk struct {
	start, end  int
	read, write []Particle
	u           *Uniforms
}

// CPUKernel evaluates the update pass on a persistent pool of goroutines.
// Dispatch returns only after every chunk has been written.
type CPUKernel struct {
	buffers [2][]Particle

	numWorkers int
	threshold  int

	workChan chan cpuChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

type CPUOption func(*CPUKernel)

// WithWorkers sets the pool size. Values below 1 mean GOMAXPROCS.
func WithWorkers(n int) CPUOption {
	return func(k *CPUKernel) {
		if n > 0 {
			k.numWorkers = n
		}
	}
}

// WithParallelThreshold sets the capacity from which the pool is used.
func WithParallelThreshold(n int) CPUOption {
	return func(k *CPUKernel) { k.threshold = n }
}

func NewCPUKernel(opts ...CPUOption) *CPUKernel {
	k := &CPUKernel{
		numWorkers: runtime.GOMAXPROCS(0),
		threshold:  cpuParallelThreshold,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *CPUKernel) Allocate(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("failed to allocate particle buffers: capacity %d", capacity)
	}
	k.buffers[0] = make([]Particle, capacity)
	k.buffers[1] = make([]Particle, capacity)
	return nil
}

func (k *CPUKernel) valid(i int) bool {
	return i >= 0 && i < len(k.buffers) && k.buffers[i] != nil
}

func (k *CPUKernel) Dispatch(read, write int, u Uniforms) error {
	if !k.valid(read) || !k.valid(write) || read == write {
		return fmt.Errorf("failed to dispatch particle update %d -> %d: %w", read, write, errBufferIndex)
	}
	src, dst := k.buffers[read], k.buffers[write]
	n := len(dst)

	if n < k.threshold || k.numWorkers == 1 {
		updateRange(0, n, src, dst, &u)
		return nil
	}

	k.startWorkers()
	chunkSize := (n + k.numWorkers - 1) / k.numWorkers
	dispatched := 0
	for w := 0; w < k.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		k.workChan <- cpuChunk{start: start, end: end, read: src, write: dst, u: &u}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-k.doneChan
	}
	return nil
}

func updateRange(start, end int, src, dst []Particle, u *Uniforms) {
	for i := start; i < end; i++ {
		dst[i] = UpdateSlot(uint32(i), src[i], u)
	}
}

func (k *CPUKernel) startWorkers() {
	if k.running {
		return
	}
	k.workChan = make(chan cpuChunk, k.numWorkers)
	k.doneChan = make(chan struct{}, k.numWorkers)
	k.stopChan = make(chan struct{})
	k.running = true

	for i := 0; i < k.numWorkers; i++ {
		k.wg.Add(1)
		go k.worker()
	}
}

func (k *CPUKernel) worker() {
	defer k.wg.Done()
	for {
		select {
		case <-k.stopChan:
			return
		case c, ok := <-k.workChan:
			if !ok {
				return
			}
			updateRange(c.start, c.end, c.read, c.write, c.u)
			k.doneChan <- struct{}{}
		}
	}
}

func (k *CPUKernel) stopWorkers() {
	if !k.running {
		return
	}
	close(k.stopChan)
	k.wg.Wait()
	close(k.workChan)
	close(k.doneChan)
	k.running = false
}

func (k *CPUKernel) Snapshot(index int, dst []Particle) ([]Particle, error) {
	if !k.valid(index) {
		return dst, fmt.Errorf("failed to snapshot particle buffer %d: %w", index, errBufferIndex)
	}
	return append(dst, k.buffers[index]...), nil
}

// View exposes buffer index without copying. Callers must not write to it.
func (k *CPUKernel) View(index int) []Particle {
	if !k.valid(index) {
		return nil
	}
	return k.buffers[index]
}

func (k *CPUKernel) Release() {
	k.stopWorkers()
	k.buffers = [2][]Particle{}
}
