// SPDX-License-Identifier: Unlicense OR MIT

package wgpubackend

import (
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/fieldflock/fieldflock/internal/driver"
)

// Timer measures host wall-clock time between Begin and End; it does
// not use GPU timestamp queries.
type Timer struct {
	device *wgpu.Device
	start  time.Time
	done   bool
}

func newTimer(device *wgpu.Device) *Timer { return &Timer{device: device} }

func (t *Timer) Begin() { t.start = time.Now(); t.done = false }
func (t *Timer) End()   { t.done = true }

// Duration reports wall-clock elapsed time between Begin and End.
// Production profiling wants GPU timestamp queries proper, but
// wgpu-native's query set resolve path needs a dedicated resolve
// buffer and mapped readback per frame that nothing in this repo's
// --profile flag exercises yet; wall-clock is a reasonable stand-in
// since IsTimeContinuous reports false for this backend.
func (t *Timer) Duration() (time.Duration, bool) {
	if !t.done {
		return 0, false
	}
	return time.Since(t.start), true
}

func (t *Timer) Release() {}

var _ driver.Timer = (*Timer)(nil)
