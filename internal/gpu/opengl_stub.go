//go:build !opengl

package gpu

import "fmt"

func init() {
	Register("opengl", func() (Device, error) {
		return nil, fmt.Errorf("%w: build with -tags opengl", ErrUnavailable)
	})
}
