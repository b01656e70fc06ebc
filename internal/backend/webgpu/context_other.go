//go:build !windows

package webgpu

// gpuContext is empty where the native WebGPU library is not supported.
type gpuContext struct{}

func newContext() (*gpuContext, error) {
	return nil, ErrUnavailable
}

func (c *gpuContext) release() {}

func (c *gpuContext) run(dispatch) ([]float32, error) {
	return nil, ErrUnavailable
}
