package app

import (
	"context"
	"sync"

	"github.com/eiannone/keyboard"
)

type inputEvent int

const (
	inputQuit inputEvent = iota
	inputRandomize
	inputSmoother
	inputSharper
	inputAlphaDown
	inputAlphaUp
)

func keyEvent(char rune, key keyboard.Key) (inputEvent, bool) {
	if key == keyboard.KeyEsc || key == keyboard.KeyCtrlC {
		return inputQuit, true
	}
	switch char {
	case 'q', 'Q':
		return inputQuit, true
	case 'r', 'R':
		return inputRandomize, true
	case ']':
		return inputSmoother, true
	case '[':
		return inputSharper, true
	case '=', '+':
		return inputAlphaUp, true
	case '-', '_':
		return inputAlphaDown, true
	}
	return 0, false
}

func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		return
	}
	events := make(chan inputEvent, 16)
	a.inputEvents = events

	var closeOnce sync.Once
	closeKeyboard := func() { closeOnce.Do(func() { _ = keyboard.Close() }) }
	go func() {
		<-ctx.Done()
		closeKeyboard()
	}()

	go func() {
		defer close(events)
		defer closeKeyboard()
		for {
			char, key, err := keyboard.GetKey()
			if err != nil || ctx.Err() != nil {
				return
			}
			evt, ok := keyEvent(char, key)
			if !ok {
				continue
			}
			select {
			case events <- evt:
			default:
			}
			if evt == inputQuit {
				return
			}
		}
	}()
}

// handleInput applies one event and reports whether the app should quit.
func (a *App) handleInput(evt inputEvent) bool {
	switch evt {
	case inputQuit:
		return true
	case inputRandomize:
		a.randomizeVisuals()
	case inputSmoother, inputSharper:
		step := smoothnessStep
		if evt == inputSharper {
			step = -step
		}
		c := a.adjustControls(func(c *Controls) { c.Smoothness += step })
		a.log.Printf("smoothness %.2f", c.Smoothness)
	case inputAlphaUp, inputAlphaDown:
		step := alphaStep
		if evt == inputAlphaDown {
			step = -step
		}
		c := a.adjustControls(func(c *Controls) { c.Alpha += step })
		a.log.Printf("alpha %.2f", c.Alpha)
	}
	return false
}
