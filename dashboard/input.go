package dashboard

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/spotglobe/event"
)

// intent is one operator action ready to be queued
type intent struct {
	typ     event.EventType
	payload any
}

// pollInput forwards terminal events to the loop until the screen is finalized
func (d *Dashboard) pollInput() {
	for {
		ev := d.screen.PollEvent()
		if ev == nil {
			return
		}
		if in, ok := translate(ev); ok {
			d.loop.Push(in.typ, in.payload)
		}
	}
}

// translate maps a tcell event to an intent
func translate(ev tcell.Event) (intent, bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return translateKey(ev)
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			return intent{}, false
		}
		x, y := ev.Position()
		return intent{event.EventSelectRegion, click{X: x, Y: y}}, true
	case *tcell.EventResize:
		w, h := ev.Size()
		return intent{event.EventResize, size{W: w, H: h}}, true
	}
	return intent{}, false
}

func translateKey(ev *tcell.EventKey) (intent, bool) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return intent{typ: event.EventQuit}, true
	case tcell.KeyEnter:
		return intent{typ: event.EventConfirmMigrate}, true
	case tcell.KeyEscape:
		return intent{typ: event.EventCancel}, true
	case tcell.KeyRune:
	default:
		return intent{}, false
	}

	switch r := ev.Rune(); {
	case r == 'q' || r == 'Q':
		return intent{typ: event.EventQuit}, true
	case r == 'm' || r == 'M':
		return intent{typ: event.EventConfirmMigrate}, true
	case r == 'c' || r == 'C':
		return intent{typ: event.EventCancel}, true
	case r >= '1' && r <= '9':
		return intent{event.EventSelectRegion, regionIndex(r - '0')}, true
	}
	return intent{}, false
}
