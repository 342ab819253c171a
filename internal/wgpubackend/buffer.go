// SPDX-License-Identifier: Unlicense OR MIT

package wgpubackend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/fieldflock/fieldflock/internal/driver"
)

// Buffer wraps a wgpu.Buffer. Download requires the buffer to have
// been created with BufferUsageCopySrc (every buffer Device.NewBuffer
// creates is).
type Buffer struct {
	buf    *wgpu.Buffer
	queue  *wgpu.Queue
	device *wgpu.Device
	size   int
}

func (b *Buffer) Upload(data []byte) { b.queue.WriteBuffer(b.buf, 0, data) }

func (b *Buffer) Download(data []byte) error {
	if b.device == nil {
		return fmt.Errorf("wgpubackend: buffer not mappable")
	}
	staging, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback", Size: uint64(b.size),
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpubackend: staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "readback"})
	if err != nil {
		return err
	}
	encoder.CopyBufferToBuffer(b.buf, 0, staging, 0, uint64(b.size))
	cmd, _ := encoder.Finish(nil)
	b.queue.Submit(cmd)
	encoder.Release()

	if err := staging.MapAsync(wgpu.MapModeRead, 0, uint64(b.size)); err != nil {
		return driver.ErrContentLost
	}
	copy(data, staging.GetMappedRange(0, uint(b.size)))
	staging.Unmap()
	return nil
}

func (b *Buffer) Release() { b.buf.Release() }

var _ driver.Buffer = (*Buffer)(nil)
