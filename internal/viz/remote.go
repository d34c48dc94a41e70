package viz

import "github.com/san-kum/romibot/internal/hw"

// KeyRemote turns terminal key presses into remote key codes. Presses beyond
// the buffer are dropped, as a real IR receiver would.
type KeyRemote struct {
	keys chan hw.KeyCode
}

func NewKeyRemote(buffer int) *KeyRemote {
	if buffer <= 0 {
		buffer = 8
	}
	return &KeyRemote{keys: make(chan hw.KeyCode, buffer)}
}

// Press queues k and reports whether it fit.
func (r *KeyRemote) Press(k hw.KeyCode) bool {
	select {
	case r.keys <- k:
		return true
	default:
		return false
	}
}

func (r *KeyRemote) KeyCode() (hw.KeyCode, bool) {
	select {
	case k := <-r.keys:
		return k, true
	default:
		return 0, false
	}
}

// terminalKeys maps terminal keys onto the remote's buttons.
var terminalKeys = map[string]hw.KeyCode{
	" ":         hw.KeyPlayPause,
	"p":         hw.KeyPlayPause,
	"s":         hw.KeySetup,
	"up":        hw.KeyUp,
	"down":      hw.KeyDown,
	"left":      hw.KeyLeft,
	"right":     hw.KeyRight,
	"enter":     hw.KeyEnterSave,
	"x":         hw.KeyStopMode,
	"b":         hw.KeyBack,
	"backspace": hw.KeyBack,
	"0":         hw.Key0,
	"1":         hw.Key1,
	"2":         hw.Key2,
	"3":         hw.Key3,
	"4":         hw.Key4,
	"5":         hw.Key5,
	"6":         hw.Key6,
	"7":         hw.Key7,
	"8":         hw.Key8,
	"9":         hw.Key9,
}

// RemoteKey resolves a terminal key name.
func RemoteKey(name string) (hw.KeyCode, bool) {
	k, ok := terminalKeys[name]
	return k, ok
}
