// SPDX-License-Identifier: Unlicense OR MIT

// Package cpubackend implements internal/driver.Device entirely in Go,
// with no graphics API beneath it. It exists for the same reason the
// teacher keeps a g.useCPU escape hatch in gpu/compute.go: headless
// test environments and CI machines with no GPU adapter still need to
// run the simulation, just without a window to paint into. Every
// buffer is a plain byte slice; every compute "dispatch" decodes the
// bound buffers, runs the matching pure-Go pass from internal/sim, and
// re-encodes the result, rather than interpreting WGSL text.
package cpubackend

import (
	"errors"

	"github.com/fieldflock/fieldflock/internal/driver"
)

// Buffer is a plain byte slice satisfying driver.Buffer.
type Buffer struct {
	data []byte
}

func newBuffer(size int) *Buffer { return &Buffer{data: make([]byte, size)} }

func (b *Buffer) Upload(data []byte) { copy(b.data, data) }

func (b *Buffer) Download(data []byte) error {
	if len(data) != len(b.data) {
		return errors.New("cpubackend: download size mismatch")
	}
	copy(data, b.data)
	return nil
}

func (b *Buffer) Release() { b.data = nil }

var _ driver.Buffer = (*Buffer)(nil)
