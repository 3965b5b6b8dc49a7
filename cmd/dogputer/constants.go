package main

// Linux input event types (from <linux/input-event-codes.h>)
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Joystick/gamepad button ranges. Gamepads report buttons as EV_KEY events
// with codes in these ranges; we fold them into zero-based button indexes.
const (
	btnJoystick = 0x120 // BTN_TRIGGER .. BTN_DEAD
	btnGamepad  = 0x130 // BTN_SOUTH .. BTN_THUMBR
	btnMax      = 0x140
)

// Hat (d-pad) absolute axes
const (
	absHat0X = 0x10
	absHat0Y = 0x11
)

// Main loop and reload defaults
const (
	defaultTickHz      = 30               // poll loop frequency (Hz)
	defaultIPCQueue    = 64               // buffered commands from IPC before the loop drains them
	deviceReopenMinGap = 1000             // ms between reopen attempts for a lost device
	defaultWebPort     = 8080             // admin HTTP/WS port
	defaultSocketPath  = "/tmp/dogputer.sock"
)

// keyCodes maps the textual key identifiers used in mapping profiles
// (K_0, K_UP, ...) to Linux evdev key codes. The identifiers are the
// user-facing configuration syntax; the codes are what the devices report.
var keyCodes = map[string]uint16{
	"K_ESCAPE": 1,
	"K_1":      2,
	"K_2":      3,
	"K_3":      4,
	"K_4":      5,
	"K_5":      6,
	"K_6":      7,
	"K_7":      8,
	"K_8":      9,
	"K_9":      10,
	"K_0":      11,
	"K_Q":      16,
	"K_W":      17,
	"K_E":      18,
	"K_R":      19,
	"K_T":      20,
	"K_Y":      21,
	"K_U":      22,
	"K_I":      23,
	"K_O":      24,
	"K_P":      25,
	"K_RETURN": 28,
	"K_A":      30,
	"K_S":      31,
	"K_D":      32,
	"K_F":      33,
	"K_G":      34,
	"K_H":      35,
	"K_J":      36,
	"K_K":      37,
	"K_L":      38,
	"K_Z":      44,
	"K_X":      45,
	"K_C":      46,
	"K_V":      47,
	"K_B":      48,
	"K_N":      49,
	"K_M":      50,
	"K_SPACE":  57,
	"K_UP":     103,
	"K_LEFT":   105,
	"K_RIGHT":  106,
	"K_DOWN":   108,
}

// keyNames is the reverse of keyCodes, used when rendering the active
// mapping table back out for the web editor.
var keyNames = func() map[uint16]string {
	m := make(map[uint16]string, len(keyCodes))
	for name, code := range keyCodes {
		m[code] = name
	}
	return m
}()
