//go:build !sdl

package render

import "testing"

func TestWindowRequiresSDLBuild(t *testing.T) {
	if SupportsWindow() {
		t.Fatalf("stub build reports window support")
	}
	if _, err := New(Options{Width: 10, Height: 10, Window: true}); err == nil {
		t.Fatalf("expected error without the sdl build tag")
	}
}
