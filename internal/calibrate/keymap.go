package calibrate

// Key bytes as delivered by a terminal in raw mode.
const (
	keyCtrlC  = 0x03
	keyCtrlD  = 0x04
	keyEscape = 0x1b
)

var runeEvents = map[byte]Event{
	keyCtrlC: EventExit,
	keyCtrlD: EventExit,
	'\r':     EventAccept,
	'\n':     EventAccept,
	'w':      EventScaleUp,
	'W':      EventScaleUpLarge,
	's':      EventScaleDown,
	'S':      EventScaleDownLarge,
	'e':      EventQualityUp,
	'E':      EventQualityUpLarge,
	'd':      EventQualityDown,
	'D':      EventQualityDownLarge,
}

var arrowEvents = map[byte]Event{
	'A': EventPrevious, // up
	'D': EventPrevious, // left
	'B': EventNext,     // down
	'C': EventNext,     // right
}

// DecodeKeys turns one chunk of raw terminal input into events. A lone escape
// byte is the Escape key; escape followed by '[' or 'O' starts an arrow key
// sequence. Unknown keys and sequences decode to EventNone.
func DecodeKeys(buf []byte) []Event {
	var events []Event
	for i := 0; i < len(buf); {
		ev, n := decodeKey(buf[i:])
		events = append(events, ev)
		i += n
	}
	return events
}

func decodeKey(buf []byte) (Event, int) {
	b := buf[0]
	if b != keyEscape {
		if ev, ok := runeEvents[b]; ok {
			return ev, 1
		}
		return EventNone, 1
	}
	if len(buf) == 1 || (buf[1] != '[' && buf[1] != 'O') {
		return EventExit, 1
	}
	if len(buf) < 3 {
		return EventNone, len(buf)
	}
	if ev, ok := arrowEvents[buf[2]]; ok {
		return ev, 3
	}
	// Skip the rest of an unrecognized CSI sequence up to its final byte.
	n := 2
	for n < len(buf) && (buf[n] < 0x40 || buf[n] > 0x7e) {
		n++
	}
	return EventNone, min(n+1, len(buf))
}
