// SPDX-License-Identifier: Unlicense OR MIT

package wgpubackend

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwSurfaceDescriptor builds the platform-specific surface source
// wgpu needs from a GLFW window's native handles. GLFW with
// glfw.NoAPI leaves the window's platform handle available through
// GetWin32Window/GetCocoaWindow/GetX11Window depending on build
// target; wgpu.GLFWSurfaceDescriptor hides that switch behind one
// constructor the same way the rest of the wgpu-native Go bindings
// hide platform branching.
func glfwSurfaceDescriptor(window *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpu.GLFWSurfaceDescriptor(window)
}
