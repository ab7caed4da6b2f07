//go:build sdl

package render

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

type sdlState struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	pixels   []byte
	width    int
	height   int
	title    string
}

func (r *Renderer) initSDL() error {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}
	r.sdl = &sdlState{}
	r.mode = backendSDL
	r.useANSI = false
	return nil
}

func (r *Renderer) ensureSDLResources() error {
	st := r.sdl
	if st.window == nil {
		w, err := sdl.CreateWindow("resonance",
			sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
			int32(r.width), int32(r.height), sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
		if err != nil {
			return fmt.Errorf("create window: %w", err)
		}
		st.window = w
	}
	if st.renderer == nil {
		rr, err := sdl.CreateRenderer(st.window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
		if err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
		st.renderer = rr
	}
	if st.texture == nil || st.width != r.width || st.height != r.height {
		if st.texture != nil {
			st.texture.Destroy()
		}
		tex, err := st.renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING,
			int32(r.width), int32(r.height))
		if err != nil {
			return fmt.Errorf("create texture: %w", err)
		}
		_ = st.renderer.SetLogicalSize(int32(r.width), int32(r.height))
		st.texture = tex
		st.width, st.height = r.width, r.height
		st.pixels = make([]byte, r.width*r.height*4)
	}
	return nil
}

func (r *Renderer) renderSDL(fr *frame, status string) Frame {
	if err := r.ensureSDLResources(); err != nil {
		return Frame{
			Status:  status,
			Present: func(string) error { return err },
		}
	}
	st := r.sdl
	pitch := r.width * 4
	r.forEachRow(func(y int) {
		row := st.pixels[y*pitch : (y+1)*pitch]
		for x := 0; x < r.width; x++ {
			value, bright := r.shade(r.xCoords[x], r.yCoords[y], fr)
			cr, cg, cb := hsvToRGB(r.color(value, bright, fr))
			px := row[x*4 : x*4+4]
			px[0] = byte(clampFloat(cr*255, 0, 255))
			px[1] = byte(clampFloat(cg*255, 0, 255))
			px[2] = byte(clampFloat(cb*255, 0, 255))
			px[3] = 255
		}
	})

	return Frame{
		Status: status,
		Present: func(status string) error {
			if status != st.title {
				st.window.SetTitle(status)
				st.title = status
			}
			if err := st.texture.Update(nil, st.pixels, pitch); err != nil {
				return err
			}
			if err := st.renderer.Clear(); err != nil {
				return err
			}
			if err := st.renderer.Copy(st.texture, nil, nil); err != nil {
				return err
			}
			st.renderer.Present()
			for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
				switch e := ev.(type) {
				case *sdl.QuitEvent:
					return ErrRendererQuit
				case *sdl.KeyboardEvent:
					if e.Type == sdl.KEYDOWN && (e.Keysym.Sym == sdl.K_ESCAPE || e.Keysym.Sym == sdl.K_q) {
						return ErrRendererQuit
					}
				}
			}
			return nil
		},
	}
}

func (r *Renderer) resizeSDL() {
	if r.sdl != nil {
		r.sdl.width, r.sdl.height = 0, 0
	}
}

func (r *Renderer) closeSDL() error {
	st := r.sdl
	if st == nil {
		return nil
	}
	if st.texture != nil {
		st.texture.Destroy()
	}
	if st.renderer != nil {
		st.renderer.Destroy()
	}
	if st.window != nil {
		st.window.Destroy()
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	r.sdl = nil
	r.mode = backendText
	return nil
}

// SupportsWindow reports whether the binary was built with the SDL backend.
func SupportsWindow() bool { return true }
