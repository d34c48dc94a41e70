package hw

import (
	"fmt"
	"sort"
)

// KeyCode is a decoded IR remote button.
type KeyCode uint8

// Codes emitted by the NEC remote shipped with the robot kit.
const (
	KeyVolMinus  KeyCode = 0x00
	KeyPlayPause KeyCode = 0x01
	KeyVolPlus   KeyCode = 0x02
	KeySetup     KeyCode = 0x04
	KeyUp        KeyCode = 0x05
	KeyStopMode  KeyCode = 0x06
	KeyLeft      KeyCode = 0x08
	KeyEnterSave KeyCode = 0x09
	KeyRight     KeyCode = 0x0A
	Key0         KeyCode = 0x0C
	KeyDown      KeyCode = 0x0D
	KeyBack      KeyCode = 0x0E
	Key1         KeyCode = 0x10
	Key2         KeyCode = 0x11
	Key3         KeyCode = 0x12
	Key4         KeyCode = 0x14
	Key5         KeyCode = 0x15
	Key6         KeyCode = 0x16
	Key7         KeyCode = 0x18
	Key8         KeyCode = 0x19
	Key9         KeyCode = 0x1A
)

var keyNames = map[KeyCode]string{
	KeyVolMinus:  "vol_minus",
	KeyPlayPause: "play_pause",
	KeyVolPlus:   "vol_plus",
	KeySetup:     "setup",
	KeyUp:        "up",
	KeyStopMode:  "stop_mode",
	KeyLeft:      "left",
	KeyEnterSave: "enter_save",
	KeyRight:     "right",
	Key0:         "0",
	KeyDown:      "down",
	KeyBack:      "back",
	Key1:         "1",
	Key2:         "2",
	Key3:         "3",
	Key4:         "4",
	Key5:         "5",
	Key6:         "6",
	Key7:         "7",
	Key8:         "8",
	Key9:         "9",
}

func (k KeyCode) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(0x%02x)", uint8(k))
}

// ParseKey resolves a key by its name.
func ParseKey(name string) (KeyCode, error) {
	for code, n := range keyNames {
		if n == name {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown key: %s", name)
}

// KeyNames lists all known key names in sorted order.
func KeyNames() []string {
	names := make([]string, 0, len(keyNames))
	for _, n := range keyNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
