package atmos

import (
	"time"
)

type Time struct {
	Time    time.Time
	Dt      time.Duration
	Elapsed time.Duration
	Frame   uint64
}

// DtSeconds is the last frame delta in seconds.
func (t *Time) DtSeconds() float32 { return float32(t.Dt.Seconds()) }

// Seconds is the total simulated time.
func (t *Time) Seconds() float64 { return t.Elapsed.Seconds() }

type TimeModule struct {
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time: time.Now(),
		Dt:   0,
	})
	cmd.UseSystem(System(timeSystem).InStage(Prelude))
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
	timeResource.Elapsed += timeResource.Dt
	timeResource.Frame++
}

// FixedTime drives Time with a constant step, for headless and reproducible runs.
type FixedTime struct {
	Step  time.Duration
	Steps int // frames before exit, 0 runs until stopped
}

// FixedTimeModule installs Time advanced by a fixed step instead of the wall clock.
type FixedTimeModule struct {
	Dt    float32 // seconds
	Steps int
}

func (mod FixedTimeModule) Install(app *App, cmd *Commands) {
	step := time.Duration(float64(mod.Dt) * float64(time.Second))
	cmd.AddResources(
		&Time{Time: time.Unix(0, 0)},
		&FixedTime{Step: step, Steps: mod.Steps},
	)
	cmd.UseSystem(System(fixedTimeSystem).InStage(Prelude))
	cmd.UseSystem(System(fixedTimeExitSystem).InStage(Finale))
}

func fixedTimeSystem(t *Time, fixed *FixedTime) {
	t.Dt = fixed.Step
	t.Time = t.Time.Add(fixed.Step)
	t.Elapsed += fixed.Step
	t.Frame++
}

func fixedTimeExitSystem(t *Time, fixed *FixedTime, cmd *Commands) {
	if fixed.Steps > 0 && t.Frame >= uint64(fixed.Steps) {
		cmd.Exit()
	}
}
