package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/gekko3d/atmos/envrt/rt/particles"
)

// FrameRecord is one sampled frame of a run.
type FrameRecord struct {
	RunID   string  `csv:"run_id"`
	Frame   int     `csv:"frame"`
	SimTime float64 `csv:"sim_time"`
	Dt      float32 `csv:"dt"`

	CloudsVisible int    `csv:"clouds_visible"`
	CloudsDrawn   int    `csv:"clouds_drawn"`
	CloudRespawns uint64 `csv:"cloud_respawns"`

	Particles       int     `csv:"particles"`
	ActiveParticles int     `csv:"active_particles"`
	Accumulator     float64 `csv:"spawn_accumulator"`
	MeanLifeLeft    float64 `csv:"mean_life_left"` // mean ttl/maxTtl over active slots
	SkippedFrames   uint64  `csv:"skipped_frames"`
	CurrentBuffer   int     `csv:"current_buffer"`

	UpdateMicros float64 `csv:"update_us"`
}

// Summary aggregates a whole run.
type Summary struct {
	RunID   string  `csv:"run_id"`
	Backend string  `csv:"backend"`
	Frames  int     `csv:"frames"`
	SimTime float64 `csv:"sim_time"`

	CloudsVisibleMean float64 `csv:"clouds_visible_mean"`
	CloudsVisibleStd  float64 `csv:"clouds_visible_std"`
	CloudRespawns     uint64  `csv:"cloud_respawns"`

	FinalParticles  int     `csv:"final_particles"`
	SaturatedAt     float64 `csv:"saturated_at"` // sim time the pool filled, -1 if never
	MeanLifeLeft    float64 `csv:"mean_life_left"`
	SkippedFrames   uint64  `csv:"skipped_frames"`
	UpdateMeanMicro float64 `csv:"update_mean_us"`
	UpdateP95Micro  float64 `csv:"update_p95_us"`
}

// Collector keeps the samples a Summary is computed from.
type Collector struct {
	RunID    string
	Backend  string
	Capacity int

	visible    []float64
	updates    []float64
	lifeLeft   []float64
	last       FrameRecord
	frames     int
	saturated  float64
	hasSamples bool
}

func NewCollector(runID, backend string, capacity int) *Collector {
	return &Collector{RunID: runID, Backend: backend, Capacity: capacity, saturated: -1}
}

func (c *Collector) Add(r FrameRecord) {
	c.frames++
	c.visible = append(c.visible, float64(r.CloudsVisible))
	c.updates = append(c.updates, r.UpdateMicros)
	if r.ActiveParticles > 0 {
		c.lifeLeft = append(c.lifeLeft, r.MeanLifeLeft)
	}
	if c.saturated < 0 && c.Capacity > 0 && r.Particles >= c.Capacity {
		c.saturated = r.SimTime
	}
	c.last = r
	c.hasSamples = true
}

func (c *Collector) Summarize() Summary {
	s := Summary{
		RunID:       c.RunID,
		Backend:     c.Backend,
		Frames:      c.frames,
		SaturatedAt: c.saturated,
	}
	if !c.hasSamples {
		return s
	}
	s.SimTime = c.last.SimTime
	s.CloudRespawns = c.last.CloudRespawns
	s.FinalParticles = c.last.Particles
	s.SkippedFrames = c.last.SkippedFrames

	s.CloudsVisibleMean, s.CloudsVisibleStd = stat.MeanStdDev(c.visible, nil)
	if len(c.lifeLeft) > 0 {
		s.MeanLifeLeft = stat.Mean(c.lifeLeft, nil)
	}
	s.UpdateMeanMicro = stat.Mean(c.updates, nil)

	sorted := append([]float64(nil), c.updates...)
	sort.Float64s(sorted)
	s.UpdateP95Micro = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return s
}

// Summarize builds a Summary from an already collected frame series.
func Summarize(runID, backend string, capacity int, frames []FrameRecord) Summary {
	c := NewCollector(runID, backend, capacity)
	for _, r := range frames {
		c.Add(r)
	}
	return c.Summarize()
}

// LifeStats counts active particles and their mean remaining life fraction.
func LifeStats(ps []particles.Particle) (active int, meanLifeLeft float64) {
	var sum float64
	for _, p := range ps {
		if !p.Active() || p.MaxTimeToLive <= 0 {
			continue
		}
		active++
		sum += float64(p.TimeToLive / p.MaxTimeToLive)
	}
	if active == 0 {
		return 0, 0
	}
	return active, sum / float64(active)
}
