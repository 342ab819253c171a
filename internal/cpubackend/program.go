// SPDX-License-Identifier: Unlicense OR MIT

package cpubackend

import (
	"time"

	"github.com/fieldflock/fieldflock/internal/driver"
)

// Program records which buffers were bound to it; Device.DispatchCompute
// reads them back out by the same binding indices internal/sim's
// GPUSim uses, since this backend has no WGSL reflection to recover
// them from.
type Program struct {
	label    string // shaders.Source.Compute, or "<vertex>/<fragment>" for render
	storage  map[int]*Buffer
	vertUniforms, fragUniforms *Buffer
}

func newProgram(label string) *Program {
	return &Program{label: label, storage: make(map[int]*Buffer)}
}

func (p *Program) SetStorageBuffer(binding int, buf driver.Buffer) {
	b, _ := buf.(*Buffer)
	p.storage[binding] = b
}

func (p *Program) SetVertexUniforms(buf driver.Buffer)   { p.vertUniforms, _ = buf.(*Buffer) }
func (p *Program) SetFragmentUniforms(buf driver.Buffer) { p.fragUniforms, _ = buf.(*Buffer) }

func (p *Program) Release() { p.storage = nil }

var _ driver.Program = (*Program)(nil)

// InputLayout has nothing to validate on the CPU path; render passes
// are no-ops here (see device.go), so the layout is never consulted.
type InputLayout struct{}

func (InputLayout) Release() {}

var _ driver.InputLayout = InputLayout{}

// Timer always reports zero duration; there is no GPU queue to time.
type Timer struct{}

func (Timer) Begin()                             {}
func (Timer) End()                                {}
func (Timer) Duration() (time.Duration, bool)     { return 0, true }
func (Timer) Release()                            {}

var _ driver.Timer = Timer{}
