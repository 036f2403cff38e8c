package opengl

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/atmos/envrt/rt/core"
)

type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) DebugEnabled() bool                { return false }
func (l *recordingLogger) SetDebug(enabled bool)             {}
func (l *recordingLogger) Debugf(format string, args ...any) {}
func (l *recordingLogger) Infof(format string, args ...any)  {}
func (l *recordingLogger) Warnf(format string, args ...any)  {}
func (l *recordingLogger) Errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

// An uncompiled program fails every uniform before any GL call is made.
func TestApplyLogsFirstFailurePerUniform(t *testing.T) {
	log := &recordingLogger{}
	p := NewProgram("clouds")
	p.SetLogger(log)

	assert.ErrorIs(t, p.SetUniform("uAlpha", float32(1)), core.ErrNotInitialized)

	for i := 0; i < 5; i++ {
		p.Apply("uAlpha", float32(0.5))
		p.Apply("uModel", float32(1))
	}

	if assert.Len(t, log.errors, 2) {
		assert.Contains(t, log.errors[0], "uAlpha")
		assert.Contains(t, log.errors[1], "uModel")
	}
}

func TestApplyWithoutLoggerIsSafe(t *testing.T) {
	p := NewProgram("particles")
	p.SetLogger(nil)
	assert.NotPanics(t, func() { p.Apply("uProj", float32(1)) })
}
