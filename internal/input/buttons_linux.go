//go:build linux

package input

import (
	evdev "github.com/gvalkov/golang-evdev"

	"github.com/sweeney/click-debounce/internal/logic"
)

// buttonCodes maps each channel to its evdev key code.
// BTN_SIDE and BTN_EXTRA are the thumb buttons Windows calls X1 and X2.
var buttonCodes = [logic.NumChannels]uint16{
	logic.Left:   evdev.BTN_LEFT,
	logic.Right:  evdev.BTN_RIGHT,
	logic.Middle: evdev.BTN_MIDDLE,
	logic.X1:     evdev.BTN_SIDE,
	logic.X2:     evdev.BTN_EXTRA,
}

// pointerRels are the axes advertised by a pointer with no source device to mirror.
var pointerRels = []int{evdev.REL_X, evdev.REL_Y, evdev.REL_WHEEL, evdev.REL_HWHEEL}

// buttonEvent translates a raw evdev event. Autorepeat (value 2) and
// non-button keys are not button transitions.
func buttonEvent(typ, code uint16, value int32) (logic.Channel, logic.Edge, bool) {
	if typ != evdev.EV_KEY {
		return 0, "", false
	}
	var edge logic.Edge
	switch value {
	case 0:
		edge = logic.EdgeUp
	case 1:
		edge = logic.EdgeDown
	default:
		return 0, "", false
	}
	for ch, c := range buttonCodes {
		if c == code {
			return logic.Channel(ch), edge, true
		}
	}
	return 0, "", false
}

func allButtonCodes() []int {
	codes := make([]int, len(buttonCodes))
	for i, c := range buttonCodes {
		codes[i] = int(c)
	}
	return codes
}
