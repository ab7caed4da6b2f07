//go:build !sdl

package render

import "errors"

type sdlState struct{}

func (r *Renderer) initSDL() error {
	return errors.New("window backend not enabled; rebuild with -tags sdl")
}

func (r *Renderer) renderSDL(fr *frame, status string) Frame {
	return Frame{
		Status: status,
		Present: func(string) error {
			return ErrRendererQuit
		},
	}
}

func (r *Renderer) resizeSDL() {}

func (r *Renderer) closeSDL() error { return nil }

// SupportsWindow reports whether the binary was built with the SDL backend.
func SupportsWindow() bool { return false }
